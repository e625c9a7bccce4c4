// Package worker runs Monte Carlo partitions on a scoped goroutine pool.
//
// Count is the worker execution unit: it invokes a Sampler over one
// partition and accumulates the inside-circle count in a local variable.
// It touches no shared memory, which is what lets partitions run
// concurrently without locks.
//
// Pool is a bounded goroutine pool built on errgroup. A pool lives for
// exactly one estimation call: it is started, fed one job per partition,
// waited on once and then discarded.
//
// # Basic Usage
//
//	pool := worker.NewPool(4)
//	pool.Start(ctx)
//	defer pool.Stop()
//
//	for _, c := range chunks {
//	    pool.SubmitWait(func(ctx context.Context) error {
//	        r, err := worker.Run(ctx, c, samplerFor(c))
//	        ...
//	    })
//	}
//	err := pool.Wait()
//
// # Failure
//
// The first job error cancels the pool context, so jobs that have not
// started yet return without sampling and no further jobs are accepted.
// Wait returns that first error. Sampling errors are never retried.
package worker
