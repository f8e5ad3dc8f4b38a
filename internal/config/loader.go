package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a
// Config. Flag values override file values.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flags := cmd.Flags()
	if helpFlag := flags.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flags.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfg := &Config{
		FileSize:   "128m",
		BufferSize: "64k",
		Threads:    []int{1},
		Clients:    1,
		Warmup:     15 * time.Second,
		Duration:   30 * time.Second,
		Backend:    "local",
		Timeout:    20 * time.Minute,
		ConfigFile: configPath,
		Gateway:    GatewayConfig{Region: "us-east-1"},
	}

	if configPath != "" {
		v := viper.New()
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyFlagOverrides(cfg, flags); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlagOverrides copies every explicitly set flag over the file values.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	override := func(name string, apply func() error) {
		if err != nil || !fs.Changed(name) {
			return
		}
		if e := apply(); e != nil {
			err = fmt.Errorf("%s: %w", name, e)
		}
	}

	override("operation", func() error { v, e := fs.GetString("operation"); cfg.Operation = v; return e })
	override("base", func() error { v, e := fs.GetString("base"); cfg.BasePath = v; return e })
	override("file-size", func() error { v, e := fs.GetString("file-size"); cfg.FileSize = v; return e })
	override("buffer-size", func() error { v, e := fs.GetString("buffer-size"); cfg.BufferSize = v; return e })
	override("block-size", func() error { v, e := fs.GetString("block-size"); cfg.BlockSize = v; return e })
	override("threads", func() error { v, e := fs.GetIntSlice("threads"); cfg.Threads = v; return e })
	override("warmup", func() error { v, e := fs.GetDuration("warmup"); cfg.Warmup = v; return e })
	override("duration", func() error { v, e := fs.GetDuration("duration"); cfg.Duration = v; return e })
	override("read-random", func() error { v, e := fs.GetBool("read-random"); cfg.ReadRandom = v; return e })
	override("read-same-file", func() error { v, e := fs.GetBool("read-same-file"); cfg.ReadSameFile = v; return e })
	override("rate", func() error { v, e := fs.GetInt("rate"); cfg.Rate = v; return e })
	override("backend", func() error { v, e := fs.GetString("backend"); cfg.Backend = v; return e })
	override("clients", func() error { v, e := fs.GetInt("clients"); cfg.Clients = v; return e })
	override("hdfs-namenode", func() error { v, e := fs.GetString("hdfs-namenode"); cfg.HDFS.NameNode = v; return e })
	override("hdfs-user", func() error { v, e := fs.GetString("hdfs-user"); cfg.HDFS.User = v; return e })
	override("gateway-endpoint", func() error { v, e := fs.GetString("gateway-endpoint"); cfg.Gateway.Endpoint = v; return e })
	override("gateway-region", func() error { v, e := fs.GetString("gateway-region"); cfg.Gateway.Region = v; return e })
	override("gateway-bucket", func() error { v, e := fs.GetString("gateway-bucket"); cfg.Gateway.Bucket = v; return e })
	override("timeout", func() error { v, e := fs.GetDuration("timeout"); cfg.Timeout = v; return e })
	override("start-ms", func() error { v, e := fs.GetInt64("start-ms"); cfg.StartMs = v; return e })
	override("run-id", func() error { v, e := fs.GetString("run-id"); cfg.RunID = v; return e })
	override("json-output", func() error { v, e := fs.GetBool("json-output"); cfg.JSONOutput = v; return e })
	override("metrics-addr", func() error { v, e := fs.GetString("metrics-addr"); cfg.MetricsAddr = v; return e })
	override("profile-log", func() error { v, e := fs.GetString("profile-log"); cfg.ProfileLog = v; return e })

	return err
}
