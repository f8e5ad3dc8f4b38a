package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/clusterfs/fsbench/internal/backend"
	"github.com/clusterfs/fsbench/internal/bench"
)

// Config is the full fsbench configuration, assembled from a config file and
// command-line flags. Sizes are human-readable strings ("500m", "64k") and
// parsed once when building bench.Params.
type Config struct {
	Operation    string        `mapstructure:"operation"`
	BasePath     string        `mapstructure:"base"`
	RunID        string        `mapstructure:"run_id"`
	FileSize     string        `mapstructure:"file_size"`
	BufferSize   string        `mapstructure:"buffer_size"`
	BlockSize    string        `mapstructure:"block_size"`
	Threads      []int         `mapstructure:"threads"`
	Warmup       time.Duration `mapstructure:"warmup"`
	Duration     time.Duration `mapstructure:"duration"`
	Clients      int           `mapstructure:"clients"`
	ReadRandom   bool          `mapstructure:"read_random"`
	ReadSameFile bool          `mapstructure:"read_same_file"`
	Backend      string        `mapstructure:"backend"`
	Timeout      time.Duration `mapstructure:"timeout"`
	StartMs      int64         `mapstructure:"start_ms"`
	Rate         int           `mapstructure:"rate"`
	JSONOutput   bool          `mapstructure:"json_output"`
	MetricsAddr  string        `mapstructure:"metrics_addr"`
	ProfileLog   string        `mapstructure:"profile_log"`
	ConfigFile   string        `mapstructure:"-"`

	HDFS    HDFSConfig    `mapstructure:"hdfs"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type HDFSConfig struct {
	NameNode string `mapstructure:"namenode"`
	User     string `mapstructure:"user"`
}

type GatewayConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type TracingConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Enable      bool    `mapstructure:"enable"`
}

// Enabled reports whether tracing should be initialized.
func (t TracingConfig) Enabled() bool {
	return t.Enable
}

// ValidationError aggregates every configuration issue found.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks everything that can be checked without touching a backend.
func (c Config) Validate() error {
	var issues []string

	if _, err := bench.ParseOperation(c.Operation); err != nil {
		issues = append(issues, err.Error())
	}
	if strings.TrimSpace(c.BasePath) == "" {
		issues = append(issues, "base path is required")
	}
	if _, err := ParseByteSize(c.FileSize); err != nil {
		issues = append(issues, fmt.Sprintf("file-size: %v", err))
	}
	if _, err := ParseByteSize(c.BufferSize); err != nil {
		issues = append(issues, fmt.Sprintf("buffer-size: %v", err))
	}
	if c.BlockSize != "" {
		if _, err := ParseByteSize(c.BlockSize); err != nil {
			issues = append(issues, fmt.Sprintf("block-size: %v", err))
		}
	}
	for _, n := range c.Threads {
		if n < 1 {
			issues = append(issues, "thread counts must be >= 1")
			break
		}
	}
	if c.Clients < 0 {
		issues = append(issues, "clients must be >= 0")
	}
	if c.Warmup < 0 {
		issues = append(issues, "warmup must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}

	switch backend.Kind(c.Backend) {
	case backend.KindHDFS:
		if strings.TrimSpace(c.HDFS.NameNode) == "" {
			issues = append(issues, "hdfs backend requires a namenode address")
		}
	case backend.KindGateway:
		if strings.TrimSpace(c.Gateway.Bucket) == "" {
			issues = append(issues, "gateway backend requires a bucket")
		}
	case backend.KindLocal:
	default:
		issues = append(issues, fmt.Sprintf("unknown backend %q (use hdfs, gateway, or local)", c.Backend))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// BenchParams converts the validated configuration into engine parameters.
func (c Config) BenchParams() (bench.Params, error) {
	op, err := bench.ParseOperation(c.Operation)
	if err != nil {
		return bench.Params{}, err
	}
	fileSize, err := ParseByteSize(c.FileSize)
	if err != nil {
		return bench.Params{}, fmt.Errorf("file-size: %w", err)
	}
	bufferSize, err := ParseByteSize(c.BufferSize)
	if err != nil {
		return bench.Params{}, fmt.Errorf("buffer-size: %w", err)
	}
	blockSize := bufferSize
	if c.BlockSize != "" {
		blockSize, err = ParseByteSize(c.BlockSize)
		if err != nil {
			return bench.Params{}, fmt.Errorf("block-size: %w", err)
		}
	}

	p := bench.Params{
		Operation:     op,
		BasePath:      strings.TrimRight(c.BasePath, "/"),
		RunID:         c.RunID,
		FileSize:      fileSize,
		BufferSize:    bufferSize,
		BlockSize:     blockSize,
		ThreadCounts:  c.Threads,
		Warmup:        c.Warmup,
		Duration:      c.Duration,
		Clients:       c.Clients,
		ReadRandom:    c.ReadRandom,
		ReadSameFile:  c.ReadSameFile,
		TrialTimeout:  c.Timeout,
		RatePerSecond: c.Rate,
	}
	if c.StartMs > 0 {
		p.StartAt = time.UnixMilli(c.StartMs)
	}
	return p, nil
}

// BackendConfig converts the configuration into backend connection settings.
func (c Config) BackendConfig() backend.Config {
	return backend.Config{
		Kind:      backend.Kind(c.Backend),
		NameNode:  c.HDFS.NameNode,
		User:      c.HDFS.User,
		Endpoint:  c.Gateway.Endpoint,
		Region:    c.Gateway.Region,
		Bucket:    c.Gateway.Bucket,
		AccessKey: c.Gateway.AccessKey,
		SecretKey: c.Gateway.SecretKey,
	}
}
