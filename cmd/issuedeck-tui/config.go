package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/issuedeck/internal/export"
	"github.com/tinytelemetry/issuedeck/internal/model"
	"github.com/tinytelemetry/issuedeck/internal/socketrpc"
	"github.com/tinytelemetry/issuedeck/internal/view"
)

const (
	defaultRefreshInterval = model.DefaultRefreshInterval
	defaultPageIncrement   = model.DefaultPageIncrement
	defaultSkin            = model.DefaultSkin
	defaultChartFacet      = model.DefaultChartFacet
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	RefreshInterval   time.Duration `mapstructure:"refresh-interval"`
	PageIncrement     int           `mapstructure:"page-increment"`
	ResetPageOnSelect bool          `mapstructure:"reset-page-on-select"`
	Skin              string        `mapstructure:"skin"`
	SocketPath        string        `mapstructure:"socket-path"`
	ChartFacet        string        `mapstructure:"chart-facet"`
	ExportDir         string        `mapstructure:"export-dir"`
	ExportFormat      string        `mapstructure:"export-format"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("ISSUEDECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("refresh-interval", defaultRefreshInterval)
	v.SetDefault("page-increment", defaultPageIncrement)
	v.SetDefault("reset-page-on-select", false)
	v.SetDefault("skin", defaultSkin)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("chart-facet", defaultChartFacet)
	v.SetDefault("export-dir", ".")
	v.SetDefault("export-format", export.FormatJSON)

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

	if cfg.RefreshInterval <= 0 {
		return cfg, fmt.Errorf("invalid refresh-interval: %s", cfg.RefreshInterval)
	}
	if cfg.PageIncrement <= 0 {
		return cfg, fmt.Errorf("invalid page-increment: %d", cfg.PageIncrement)
	}
	if _, err := view.ParseFacet(cfg.ChartFacet); err != nil {
		return cfg, fmt.Errorf("invalid chart-facet: %w", err)
	}
	switch cfg.ExportFormat {
	case export.FormatJSON, export.FormatCSV:
	default:
		return cfg, fmt.Errorf("invalid export-format: %q", cfg.ExportFormat)
	}
	if strings.HasPrefix(cfg.ExportDir, "~/") {
		cfg.ExportDir = filepath.Join(home, cfg.ExportDir[2:])
	}

	return cfg, nil
}
