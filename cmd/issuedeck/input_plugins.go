package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/issuesource"
	"github.com/tinytelemetry/issuedeck/internal/tcpserver"
)

// InputSourcePlugin is a small plugin primitive for wiring issue inputs.
type InputSourcePlugin interface {
	Name() string
	Enabled() bool
	Build(ctx context.Context) (issuesource.Source, error)
}

// InputPluginConfig defines runtime input selection.
type InputPluginConfig struct {
	TCPEnabled      bool
	TCPAddr         string
	StdinPiped      bool
	Fixture         string
	FixtureDebounce time.Duration
	DemoEnabled     bool
	DemoInitial     int
	DemoInterval    time.Duration
}

func buildInputPlugins(cfg InputPluginConfig) []InputSourcePlugin {
	plugins := make([]InputSourcePlugin, 0, 4)
	plugins = append(plugins, tcpInputPlugin{
		addr:    cfg.TCPAddr,
		enabled: cfg.TCPEnabled,
	})
	plugins = append(plugins, stdinInputPlugin{piped: cfg.StdinPiped})
	plugins = append(plugins, fileInputPlugin{
		path:     cfg.Fixture,
		debounce: cfg.FixtureDebounce,
	})
	plugins = append(plugins, demoInputPlugin{
		// Generated issues would mix with real ones.
		enabled:  cfg.DemoEnabled && cfg.Fixture == "" && !cfg.StdinPiped,
		initial:  cfg.DemoInitial,
		interval: cfg.DemoInterval,
	})
	return plugins
}

type tcpInputPlugin struct {
	addr    string
	enabled bool
}

func (p tcpInputPlugin) Name() string { return "tcp" }

func (p tcpInputPlugin) Enabled() bool { return p.enabled }

func (p tcpInputPlugin) Build(_ context.Context) (issuesource.Source, error) {
	server := tcpserver.NewServer(p.addr)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("start tcp server: %w", err)
	}
	return issuesource.NewTCPSource(server), nil
}

type stdinInputPlugin struct {
	piped bool
}

func (p stdinInputPlugin) Name() string { return "stdin" }

func (p stdinInputPlugin) Enabled() bool { return p.piped }

func (p stdinInputPlugin) Build(ctx context.Context) (issuesource.Source, error) {
	return issuesource.NewStdinSource(ctx), nil
}

type fileInputPlugin struct {
	path     string
	debounce time.Duration
}

func (p fileInputPlugin) Name() string { return "file" }

func (p fileInputPlugin) Enabled() bool { return p.path != "" }

func (p fileInputPlugin) Build(ctx context.Context) (issuesource.Source, error) {
	src, err := issuesource.NewFileSource(ctx, p.path, issuesource.FileConfig{Debounce: p.debounce})
	if err != nil {
		return nil, fmt.Errorf("watch fixture: %w", err)
	}
	return src, nil
}

type demoInputPlugin struct {
	enabled  bool
	initial  int
	interval time.Duration
}

func (p demoInputPlugin) Name() string { return "demo" }

func (p demoInputPlugin) Enabled() bool { return p.enabled }

func (p demoInputPlugin) Build(ctx context.Context) (issuesource.Source, error) {
	return issuesource.NewDemoSource(ctx, issuesource.DemoConfig{
		Initial:  p.initial,
		Interval: p.interval,
	}), nil
}

// stdinIsPiped reports whether stdin is a pipe or file rather than a terminal.
func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
