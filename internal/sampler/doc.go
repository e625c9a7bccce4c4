// Package sampler draws points in the square [-1,1]² and tests them against
// the inscribed unit circle.
//
// A Sampler produces one boolean observation per call. Circle, the production
// sampler, pulls two uniform values from its own Source, remaps them linearly
// from [0,1) to [-1,1] and reports whether x² + y² ≤ 1. The boundary counts as
// inside.
//
// # Sources
//
// Every worker owns its own Source; sources are never shared, so sampling
// needs no locking.
//
//	src := sampler.NewPCG(sampler.DeriveSeed(root, workerIndex))
//	s := sampler.NewCircle(src)
//	inside, err := s.Sample()
//
// Available sources:
//   - NewPCG: math/rand/v2 PCG, never fails
//   - NewLCG: 32-bit linear congruential generator, never fails
//   - Sequence: a finite list of draws that fails with ErrExhausted once consumed
//
// Sequence is intended for tests: Slice hands each partition its own
// contiguous block of a shared draw list, which makes a parallel run
// reproducible against a sequential one.
package sampler
