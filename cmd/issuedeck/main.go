package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tinytelemetry/issuedeck/internal/ingest"
	"github.com/tinytelemetry/issuedeck/internal/socketrpc"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var socketPath string
	var fixturePath string
	var showVersion bool

	pflag.StringVarP(&configPath, "config", "c", "", "config file (default is $HOME/.config/issuedeck/config.yml)")
	pflag.StringVar(&socketPath, "socket", "", "override the unix socket path served to the TUI")
	pflag.StringVarP(&fixturePath, "fixture", "f", "", "YAML or JSON file of issues to load and watch")
	pflag.BoolVarP(&showVersion, "version", "v", false, "print version information")
	pflag.Parse()

	if showVersion {
		fmt.Printf("IssueDeck - Issue Service\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	if fixturePath != "" {
		cfg.Fixture = fixturePath
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "issuedeck", "issuedeck.duckdb")

	v := viper.New()
	v.SetEnvPrefix("ISSUEDECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("host", defaultBindHost)
	v.SetDefault("processor", ingest.ProcessorModeParse)
	v.SetDefault("tcp-enabled", true)
	v.SetDefault("tcp-port", defaultTCPPort)
	v.SetDefault("mux-buffer-size", defaultMuxBufferSize)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("page-increment", defaultPageIncrement)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("insert-batch-size", defaultInsertBatchSize)
	v.SetDefault("insert-flush-interval", defaultInsertFlushInterval)
	v.SetDefault("insert-flush-queue-size", defaultInsertFlushQueue)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("retention-days", defaultRetentionDays)
	v.SetDefault("fixture", "")
	v.SetDefault("fixture-debounce", defaultFixtureDebounce)
	v.SetDefault("demo-enabled", false)
	v.SetDefault("demo-initial", defaultDemoInitial)
	v.SetDefault("demo-interval", defaultDemoInterval)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "issuedeck", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, statErr := os.Stat(cfg.ConfigPath); statErr != nil {
		cfg.ConfigPath = ""
	}

	if cfg.TCPPort <= 0 || cfg.TCPPort > 65535 {
		return cfg, fmt.Errorf("invalid tcp-port: %d", cfg.TCPPort)
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.PageIncrement <= 0 {
		return cfg, fmt.Errorf("invalid page-increment: %d", cfg.PageIncrement)
	}
	if cfg.RetentionDays < 0 {
		return cfg, fmt.Errorf("invalid retention-days: %d", cfg.RetentionDays)
	}
	if _, err := ingest.NewEnvelopeProcessor(cfg.Processor, nil, nil, ""); err != nil {
		return cfg, fmt.Errorf("invalid processor: %w", err)
	}

	// Expand ~ in paths
	cfg.DBPath = expandHome(home, cfg.DBPath)
	cfg.Fixture = expandHome(home, cfg.Fixture)

	if cfg.Host == "" {
		cfg.Host = defaultBindHost
	}
	if cfg.TCPAddr == "" {
		cfg.TCPAddr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.TCPPort))
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
