package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/tinytelemetry/issuedeck/internal/socketrpc"
	"github.com/tinytelemetry/issuedeck/internal/tui"
	"github.com/tinytelemetry/issuedeck/internal/view"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var socketPath string
	var showVersion bool

	pflag.StringVarP(&configPath, "config", "c", "", "config file (default is $HOME/.config/issuedeck/config.yml)")
	pflag.StringVar(&socketPath, "socket", "", "override socket path to connect to the issuedeck service")
	pflag.BoolVarP(&showVersion, "version", "v", false, "print version information")
	pflag.Parse()

	if showVersion {
		fmt.Printf("IssueDeck TUI - Issue Browser\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if socketPath != "" {
		cfg.SocketPath = socketPath
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	// The alt screen owns stdout, so diagnostics go to a file.
	cleanupLogger := configureLogger()
	defer cleanupLogger()

	home, _ := os.UserHomeDir()
	configDir := filepath.Join(home, ".config", "issuedeck")
	if err := tui.InitializeSkin(cfg.Skin, configDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load skin '%s': %v (using default)\n", cfg.Skin, err)
	}

	client, err := socketrpc.Dial(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("cannot connect to issuedeck service at %s: %w\nIs the service running? Start it with: issuedeck", cfg.SocketPath, err)
	}
	defer client.Close()

	feed := view.NewResizeFeed()
	browser := tui.NewBrowserModel(client, tui.Options{
		RefreshInterval:   cfg.RefreshInterval,
		PageIncrement:     cfg.PageIncrement,
		ResetPageOnSelect: cfg.ResetPageOnSelect,
		ChartFacet:        view.Facet(cfg.ChartFacet),
		ExportDir:         cfg.ExportDir,
		ExportFormat:      cfg.ExportFormat,
		DataSource:        "Socket",
		Feed:              feed,
	})
	defer browser.Close()

	app := tui.NewApp(browser, tui.NewSummaryPage(client)).WithResizeFeed(feed)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func configureLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		return func() {}
	}
	logDir := filepath.Join(home, ".local", "state", "issuedeck")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return func() {}
	}
	f, err := os.OpenFile(filepath.Join(logDir, "issuedeck-tui.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return func() {}
	}
	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}
