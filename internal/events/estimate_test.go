package events_test

import (
	"context"
	"io"
	"testing"

	"montecarlo-pi/internal/estimator"
	"montecarlo-pi/internal/events"
	"montecarlo-pi/internal/logger"
	"montecarlo-pi/internal/sampler"
)

func TestEstimatePublishesEveryWorker(t *testing.T) {
	bus := events.NewBus()
	workers := bus.Subscribe(events.EventWorkerCompleted)
	done := bus.Subscribe(events.EventEstimateCompleted)

	est := estimator.New(estimator.Config{
		Workers:    3,
		NewSampler: estimator.ConstantFactory(sampler.AlwaysInside),
		Bus:        bus,
		Logger:     logger.New(io.Discard, logger.LevelError),
	})
	res, err := est.Estimate(context.Background(), 40000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[int]int64)
	for range 3 {
		e := <-workers
		if e.RunID != res.RunID {
			t.Errorf("expected run ID %s, got %s", res.RunID, e.RunID)
		}
		seen[e.Data.Partition] = e.Data.Inside
	}
	for i, n := range []int64{13333, 13333, 13334} {
		if seen[i] != n {
			t.Errorf("partition %d: inside %d, want %d", i, seen[i], n)
		}
	}

	final := <-done
	if final.Data.Pi != 4.0 || final.Data.Inside != 40000 {
		t.Errorf("unexpected completion data %+v", final.Data)
	}
	if bus.Dropped() != 0 {
		t.Errorf("expected no dropped events, got %d", bus.Dropped())
	}
}
