package config

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fsbench",
		Short:         "Client I/O stress benchmark for distributed filesystems",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Workload flags
	flags.String("operation", "", "Operation to benchmark (ReadArray, ReadByteBuffer, ReadFully, PosRead, PosReadFully, Write)")
	flags.String("base", "", "Base path the benchmark files live under")
	flags.String("file-size", "128m", "Target file size per worker (e.g. 500m)")
	flags.String("buffer-size", "64k", "I/O buffer size per worker (e.g. 64k)")
	flags.String("block-size", "", "Block size hint for writes (defaults to buffer size)")
	flags.IntSlice("threads", []int{1}, "Concurrency levels to sweep (repeatable)")
	flags.Duration("warmup", 15*time.Second, "Warmup duration excluded from measurement")
	flags.DurationP("duration", "d", 30*time.Second, "Measurement duration per trial")
	flags.Bool("read-random", false, "Draw offsets uniformly at random instead of sequentially")
	flags.Bool("read-same-file", false, "Point every worker at the same file")
	flags.IntP("rate", "r", 0, "Operations per second cap per trial (0 means unpaced)")

	// Backend flags
	flags.String("backend", "local", "Backend variant: hdfs, gateway, or local")
	flags.Int("clients", 1, "Number of pooled backend connections")
	flags.String("hdfs-namenode", "", "HDFS namenode address (host:port)")
	flags.String("hdfs-user", "", "HDFS user to connect as")
	flags.String("gateway-endpoint", "", "Object gateway endpoint URL")
	flags.String("gateway-region", "us-east-1", "Object gateway region")
	flags.String("gateway-bucket", "", "Object gateway bucket")

	// Run control flags
	flags.Duration("timeout", 20*time.Minute, "Overall per-trial timeout, including the barrier wait")
	flags.Int64("start-ms", 0, "Externally agreed start instant in epoch milliseconds (0 means self-scheduled)")
	flags.String("run-id", "", "Run identifier namespacing this invocation's files (defaults to a fresh ULID)")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	flags.String("profile-log", "", "Path to a profiling agent JSON-lines log to reduce per trial")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}

func displayHelp(cmd *cobra.Command) {
	_ = cmd.Help()
}
