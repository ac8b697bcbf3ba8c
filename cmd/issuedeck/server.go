package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/issuedeck/internal/duckdb"
	"github.com/tinytelemetry/issuedeck/internal/httpserver"
	"github.com/tinytelemetry/issuedeck/internal/ingest"
	"github.com/tinytelemetry/issuedeck/internal/issuesource"
	"github.com/tinytelemetry/issuedeck/internal/model"
	"github.com/tinytelemetry/issuedeck/internal/socketrpc"
)

// ingestObserver receives per-envelope ingestion outcomes.
type ingestObserver interface {
	ObserveIngest(source string, issues int, err error)
}

// runServer starts headless issue ingestion with the HTTP API and the TUI socket.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	// Create insert buffer for batched DuckDB writes
	insertBuffer := duckdb.NewInsertBuffer(store, duckdb.InsertBufferConfig{
		BatchSize:      cfg.InsertBatchSize,
		FlushInterval:  cfg.InsertFlushInterval,
		FlushQueueSize: cfg.InsertFlushQueue,
	})
	defer insertBuffer.Stop()

	retentionCleaner := duckdb.NewRetentionCleaner(store, duckdb.RetentionConfig{
		RetentionDays: cfg.RetentionDays,
	})
	if retentionCleaner != nil {
		defer retentionCleaner.Stop()
	}

	var observer ingestObserver
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, store)
		apiServer.SetPageSize(cfg.PageIncrement)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
		observer = apiServer.Metrics()
	}

	// Start socket RPC server for TUI IPC
	sockServer := socketrpc.NewServer(cfg.SocketPath, store)
	socketOK := true
	if err := sockServer.Start(); err != nil {
		log.Printf("Warning: failed to start socket server: %v", err)
		socketOK = false
	} else {
		defer sockServer.Stop()
	}

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		cleanupSocket(cfg.SocketPath)
		os.Exit(1)
	}()

	plugins := buildInputPlugins(InputPluginConfig{
		TCPEnabled:      cfg.TCPEnabled,
		TCPAddr:         cfg.TCPAddr,
		StdinPiped:      stdinIsPiped(),
		Fixture:         cfg.Fixture,
		FixtureDebounce: cfg.FixtureDebounce,
		DemoEnabled:     cfg.DemoEnabled,
		DemoInitial:     cfg.DemoInitial,
		DemoInterval:    cfg.DemoInterval,
	})
	sources := buildSources(ctx, plugins)

	mux := NewSourceMultiplexer(ctx, sources, cfg.MuxBufferSize)
	mux.Start()

	processor, err := ingest.NewEnvelopeProcessor(cfg.Processor, insertBuffer, store, "")
	if err != nil {
		mux.Stop()
		return err
	}

	printStartupBanner(cfg, mux.SourceNames(), processor.Name(), socketOK)

	g, gctx := errgroup.WithContext(ctx)

	if mux.HasSources() {
		g.Go(func() error {
			ingestLoop(gctx, processor, mux.Envelopes(), observer)
			return nil
		})
	}

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	cancel()
	mux.Stop()
	signal.Stop(sigCh)

	return nil
}

// buildSources starts every enabled plugin. A plugin that fails to start is
// logged and skipped so the others keep running.
func buildSources(ctx context.Context, plugins []InputSourcePlugin) []issuesource.Source {
	sources := make([]issuesource.Source, 0, len(plugins))
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(ctx)
		if err != nil {
			log.Printf("Error initializing input plugin %q: %v", plugin.Name(), err)
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

// ingestLoop drains envelopes into processor until the channel closes or ctx
// is cancelled. Decode errors are logged and counted, never fatal.
func ingestLoop(ctx context.Context, processor ingest.EnvelopeProcessor, envelopes <-chan model.IngestEnvelope, observer ingestObserver) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-envelopes:
			if !ok {
				return
			}
			res := processor.ProcessEnvelope(ctx, env)
			if res == nil {
				continue
			}
			if res.Err != nil {
				log.Printf("ingest: %s: %v", env.Source, res.Err)
			}
			if res.Snapshot {
				log.Printf("ingest: %s replaced the record set with %d issues", env.Source, len(res.Issues))
			}
			if observer != nil {
				observer.ObserveIngest(env.Source, len(res.Issues), res.Err)
			}
		}
	}
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "issuedeck")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "issuedeck.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, sources []string, processorName string, socketOK bool) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦╔═╗╔═╗╦ ╦╔═╗╔╦╗╔═╗╔═╗╦╔═
    ║╚═╗╚═╗║ ║║╣  ║║║╣ ║  ╠╩╗
    ╩╚═╝╚═╝╚═╝╚═╝═╩╝╚═╝╚═╝╩ ╩`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")

	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}
	if socketOK {
		lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", check, cyan.Render(shortenPath(cfg.SocketPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", red.Render("●"), dim.Render("unavailable, see log")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Inputs"))
	lines = append(lines, "")
	if len(sources) == 0 {
		lines = append(lines, fmt.Sprintf("    %s  Sources        %s", dot, dim.Render("none")))
	}
	for _, name := range sources {
		detail := ""
		switch name {
		case "tcp":
			detail = cfg.TCPAddr
		case "file":
			detail = shortenPath(cfg.Fixture)
		case "demo":
			detail = fmt.Sprintf("%d issues, then one every %s", cfg.DemoInitial, cfg.DemoInterval)
		}
		lines = append(lines, fmt.Sprintf("    %s  %-14s %s", check, name, cyan.Render(detail)))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("    %s  Storage        %s", check, dim.Render(shortenPath(cfg.DBPath))))
	if cfg.RetentionDays > 0 {
		lines = append(lines, fmt.Sprintf("    %s  Retention      %s", check, dim.Render(fmt.Sprintf("closed issues, %d days", cfg.RetentionDays))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Retention      %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Runtime"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  Processor      %s", check, dim.Render(processorName)))
	lines = append(lines, fmt.Sprintf("    %s  Page Size      %s", check, dim.Render(fmt.Sprintf("%d", cfg.PageIncrement))))

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
