// Package metrics collects worker throughput statistics.
//
// Metrics records one entry per finished partition: how many samples it drew,
// how many landed inside the circle and how long it took. From those it
// derives throughput (samples per second) and worker latency percentiles.
//
// # Basic Usage
//
//	m := metrics.New()
//	est := estimator.New(estimator.Config{Workers: 4, Metrics: m})
//	_, _ = est.Estimate(ctx, 1_000_000)
//
//	snap := m.Snapshot()
//	fmt.Printf("samples: %d, throughput: %.0f/s, p99: %v\n",
//	    snap.TotalSamples, snap.SamplesPerSecond, snap.P99WorkerLatency)
//
// Metrics is observational only. The estimator never reads it back, so a
// missing or shared Metrics has no effect on estimates.
//
// # Thread Safety
//
// Counters are atomic and latency samples are guarded by a mutex; all
// operations are safe for concurrent access.
package metrics
