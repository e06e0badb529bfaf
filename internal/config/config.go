// Package config contains all knobs and defaults used to configure a
// disksearcher run.
package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"time"
)

const (
	DefaultDirectoryQueueCapacity = 50
	DefaultResultQueueCapacity    = 50
	DefaultCopyBufferSize         = 4096

	// MaxCopyBufferSize bounds the per-copier transfer buffer.
	MaxCopyBufferSize = 65536
)

var (
	ErrMissingRoot        = errors.New("config 'search.root' is required")
	ErrMissingDestination = errors.New("config 'search.destination' is required")
)

// SearchConfig selects what is collected and where it goes.
type SearchConfig struct {
	// Pattern is a literal, case-sensitive substring the file name must contain.
	Pattern string

	// Extension is a literal, case-sensitive suffix the file name must end
	// with, including the dot (e.g. '.txt').
	Extension string

	Root        string
	Destination string
}

type WorkersConfig struct {
	Searchers int
	Copiers   int
}

// QueueConfig sets the capacities of the two stage queues.
type QueueConfig struct {
	DirectoryCapacity int
	ResultCapacity    int
}

type CopyConfig struct {
	// BufferSize is the size in bytes of each copier's transfer buffer.
	BufferSize int

	// Verify re-reads every copy and compares its xxhash digest with the source.
	Verify bool
}

type DatastoreMetricsConfig struct {
	// Enabled enables export of the manifest datastore metrics.
	Enabled bool
}

// ManifestConfig defines where the record of copied files is stored.
type ManifestConfig struct {
	// Engine is the datastore engine to use (e.g. 'memory', 'sqlite', 'postgres', 'mysql')
	Engine   string
	URI      string
	Username string
	Password string

	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of connections to the datastore in the idle connection
	// pool.
	MaxIdleConns int

	// ConnMaxIdleTime is the maximum amount of time a connection to the datastore may be idle.
	ConnMaxIdleTime time.Duration

	// ConnMaxLifetime is the maximum amount of time a connection to the datastore may be reused.
	ConnMaxLifetime time.Duration

	Metrics DatastoreMetricsConfig
}

type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text', 'json' or 'auto')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info')
	Level string
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64
	ServiceName string
}

type OTLPTraceConfig struct {
	Endpoint string
	TLS      OTLPTraceTLSConfig
}

type OTLPTraceTLSConfig struct {
	Enabled bool
}

// MetricConfig defines configurations for serving prometheus metrics while a run is in progress.
type MetricConfig struct {
	Enabled bool
	Addr    string
}

type Config struct {
	Search   SearchConfig
	Workers  WorkersConfig
	Queue    QueueConfig
	Copy     CopyConfig
	Manifest ManifestConfig
	Log      LogConfig
	Trace    TraceConfig
	Metrics  MetricConfig

	// Output is the format of the summary printed after a run ('text', 'json', 'yaml' or 'none').
	Output string
}

var (
	logFormats  = []string{"text", "json", "auto"}
	logLevels   = []string{"none", "debug", "info", "warn", "error", "panic", "fatal"}
	engines     = []string{"memory", "sqlite", "postgres", "mysql"}
	outputKinds = []string{"text", "json", "yaml", "none"}
)

func (cfg *Config) Verify() error {
	if cfg.Search.Root == "" {
		return ErrMissingRoot
	}

	if cfg.Search.Destination == "" {
		return ErrMissingDestination
	}

	if cfg.Workers.Searchers < 1 {
		return fmt.Errorf("config 'workers.searchers' must be a positive integer, got %d", cfg.Workers.Searchers)
	}

	if cfg.Workers.Copiers < 1 {
		return fmt.Errorf("config 'workers.copiers' must be a positive integer, got %d", cfg.Workers.Copiers)
	}

	if cfg.Queue.DirectoryCapacity < 1 {
		return fmt.Errorf("config 'queue.directoryCapacity' must be a positive integer, got %d", cfg.Queue.DirectoryCapacity)
	}

	if cfg.Queue.ResultCapacity < 1 {
		return fmt.Errorf("config 'queue.resultCapacity' must be a positive integer, got %d", cfg.Queue.ResultCapacity)
	}

	if cfg.Copy.BufferSize < 1 || cfg.Copy.BufferSize > MaxCopyBufferSize {
		return fmt.Errorf("config 'copy.bufferSize' must be between 1 and %d, got %d", MaxCopyBufferSize, cfg.Copy.BufferSize)
	}

	if err := cfg.VerifyLogging(); err != nil {
		return err
	}

	if !slices.Contains(engines, cfg.Manifest.Engine) {
		return fmt.Errorf("config 'manifest.engine' must be one of %q", engines)
	}

	if cfg.Manifest.Engine != "memory" && cfg.Manifest.URI == "" {
		return fmt.Errorf("config 'manifest.uri' is required for the '%s' engine", cfg.Manifest.Engine)
	}

	if cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1 {
		return errors.New("config 'trace.sampleRatio' must be between 0 and 1")
	}

	if cfg.Trace.Enabled && cfg.Trace.OTLP.Endpoint == "" {
		return errors.New("config 'trace.otlp.endpoint' is required when tracing is enabled")
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("config 'metrics.addr' is not a valid address: %w", err)
		}
	}

	if !slices.Contains(outputKinds, cfg.Output) {
		return fmt.Errorf("config 'output' must be one of %q", outputKinds)
	}

	return nil
}

// VerifyLogging checks only the log section, for commands that do not run
// the pipeline.
func (cfg *Config) VerifyLogging() error {
	if !slices.Contains(logFormats, cfg.Log.Format) {
		return fmt.Errorf("config 'log.format' must be one of %q", logFormats)
	}

	if !slices.Contains(logLevels, cfg.Log.Level) {
		return fmt.Errorf("config 'log.level' must be one of %q", logLevels)
	}

	return nil
}

// DefaultConfig is the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Workers: WorkersConfig{
			Searchers: 1,
			Copiers:   1,
		},
		Queue: QueueConfig{
			DirectoryCapacity: DefaultDirectoryQueueCapacity,
			ResultCapacity:    DefaultResultQueueCapacity,
		},
		Copy: CopyConfig{
			BufferSize: DefaultCopyBufferSize,
		},
		Manifest: ManifestConfig{
			Engine:       "memory",
			MaxIdleConns: 10,
			MaxOpenConns: 30,
		},
		Log: LogConfig{
			Format: "auto",
			Level:  "info",
		},
		Trace: TraceConfig{
			Enabled:     false,
			OTLP:        OTLPTraceConfig{Endpoint: "0.0.0.0:4317"},
			SampleRatio: 0.2,
			ServiceName: "disksearcher",
		},
		Metrics: MetricConfig{
			Enabled: false,
			Addr:    "0.0.0.0:2112",
		},
		Output: "text",
	}
}

// MustDefaultConfig returns a default config with the required search fields set.
func MustDefaultConfig(root, destination string) *Config {
	cfg := DefaultConfig()
	cfg.Search.Root = root
	cfg.Search.Destination = destination
	if err := cfg.Verify(); err != nil {
		panic(err)
	}
	return cfg
}
