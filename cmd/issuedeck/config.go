package main

import (
	"time"

	"github.com/tinytelemetry/issuedeck/internal/duckdb"
	"github.com/tinytelemetry/issuedeck/internal/issuesource"
	"github.com/tinytelemetry/issuedeck/internal/model"
)

const (
	defaultBindHost            = "127.0.0.1"
	defaultTCPPort             = 4000
	defaultAPIPort             = 3000
	defaultMuxBufferSize       = DefaultMuxBuffer
	defaultQueryTimeout        = duckdb.DefaultQueryTimeout
	defaultInsertBatchSize     = 500
	defaultInsertFlushInterval = 100 * time.Millisecond
	defaultInsertFlushQueue    = duckdb.DefaultFlushQueueSize
	defaultRetentionDays       = 90 // closed issues only, 0 = disabled
	defaultPageIncrement       = model.DefaultPageIncrement
	defaultFixtureDebounce     = issuesource.DefaultFileDebounce
	defaultDemoInitial         = 60
	defaultDemoInterval        = 3 * time.Second
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Host                string        `mapstructure:"host"`
	Processor           string        `mapstructure:"processor"`
	TCPEnabled          bool          `mapstructure:"tcp-enabled"`
	TCPPort             int           `mapstructure:"tcp-port"`
	TCPAddr             string        `mapstructure:"tcp-addr"`
	MuxBufferSize       int           `mapstructure:"mux-buffer-size"`
	DBPath              string        `mapstructure:"db-path"`
	APIEnabled          bool          `mapstructure:"api-enabled"`
	APIPort             int           `mapstructure:"api-port"`
	APIAddr             string        `mapstructure:"api-addr"`
	PageIncrement       int           `mapstructure:"page-increment"`
	QueryTimeout        time.Duration `mapstructure:"query-timeout"`
	InsertBatchSize     int           `mapstructure:"insert-batch-size"`
	InsertFlushInterval time.Duration `mapstructure:"insert-flush-interval"`
	InsertFlushQueue    int           `mapstructure:"insert-flush-queue-size"`
	SocketPath          string        `mapstructure:"socket-path"`
	RetentionDays       int           `mapstructure:"retention-days"`
	Fixture             string        `mapstructure:"fixture"`
	FixtureDebounce     time.Duration `mapstructure:"fixture-debounce"`
	DemoEnabled         bool          `mapstructure:"demo-enabled"`
	DemoInitial         int           `mapstructure:"demo-initial"`
	DemoInterval        time.Duration `mapstructure:"demo-interval"`
	ConfigPath          string        `mapstructure:"-"` // not from config file
}
