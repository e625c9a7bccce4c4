// Package estimator estimates π by parallel Monte Carlo sampling.
//
// An Estimate call walks a fixed state machine:
//
//	Idle → Partitioning → Dispatched → AllWorkersComplete → Aggregated → Done
//
// and ends in Failed on any error. The sample budget is split with
// partition.Split, every non-empty partition runs on its own goroutine with
// its own sampler, and the partial counts are summed by an
// aggregate.Aggregator once all workers have returned. The result is
// 4 × inside / samples and always lies in [0, 4].
//
// # Basic Usage
//
//	res, err := estimator.Estimate(ctx, 1_000_000, estimator.DefaultWorkers)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("π ≈ %.5f\n", res.Pi)
//
// # Reproducible runs
//
// Each worker gets a sampler from Config.NewSampler. When it is nil,
// Config.Seed feeds PCGFactory, which derives an independent seed per
// partition from one root seed, so a fixed root seed and worker count
// reproduce the same estimate:
//
//	est := estimator.New(estimator.Config{Workers: 8, Seed: 42})
//
// SequenceFactory hands every partition its own contiguous block of a shared
// draw list; fed the same list, Sequential and Estimate return identical
// results for any worker count.
//
// # Errors
//
// Invalid sample or worker counts fail with errs.ErrInvalidInput before
// anything is dispatched. A failing random source fails the whole call with
// errs.ErrSamplingFailure. Nothing is retried and no partial estimate is
// ever returned.
//
// # Resources
//
// Every call owns a fresh worker.Pool that is torn down on every exit path.
// Nothing is retained between calls, so one Estimator may be used
// concurrently.
package estimator
