// Package bench is the core client I/O benchmark engine for fsbench.
//
// The engine drives a pluggable storage [Backend] through a configurable
// read/write access pattern and measures throughput over controlled
// warmup/measurement windows, sweeping a list of concurrency levels.
//
// # Structure
//
// A [Driver] runs one trial per concurrency level, in ascending order. Each
// trial spawns exactly N workers that share a run context: the agreed
// start/end instants and a mutex-guarded accumulator their [ThreadResult]s
// merge into. Workers block on the start barrier, then loop issuing the
// configured [Operation] against their backend stream until the end instant
// (reads) or until the target file size is written (writes). Bytes are
// counted only after the warmup boundary.
//
// # Basic usage
//
//	d, err := bench.NewDriver(bench.DriverOptions{
//		Params:   params,
//		Backends: pool.Backends(),
//	})
//	if err != nil {
//		return err
//	}
//	result, err := d.Run(ctx)
//
// # Failure model
//
// Invalid parameter combinations abort before any trial. A worker that
// misses its start barrier or hits an I/O error records the failure in its
// result and stops; siblings keep running, and the trial still returns a
// merged result. There are no retries.
package bench
