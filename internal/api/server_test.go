package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"montecarlo-pi/internal/estimator"
	"montecarlo-pi/internal/events"

	"golang.org/x/net/websocket"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer("")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandleEstimate(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/estimate", EstimateRequest{Samples: 40000, Workers: 3, Seed: 42})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var result estimator.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}

	if result.Samples != 40000 {
		t.Errorf("expected 40000 samples, got %d", result.Samples)
	}
	if result.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", result.Workers)
	}
	want := []int64{13333, 13333, 13334}
	for i, n := range want {
		if result.Partition[i] != n {
			t.Errorf("partition[%d] = %d, want %d", i, result.Partition[i], n)
		}
	}
	if result.Pi < 0 || result.Pi > 4 {
		t.Errorf("estimate %f out of range", result.Pi)
	}
}

func TestHandleEstimateSeededIsReproducible(t *testing.T) {
	_, ts := newTestServer(t)

	estimate := func() float64 {
		resp := postJSON(t, ts.URL+"/api/estimate", EstimateRequest{Samples: 10000, Workers: 4, Seed: 7})
		var result estimator.Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
		return result.Pi
	}

	if a, b := estimate(), estimate(); a != b {
		t.Errorf("expected identical estimates for the same seed, got %f and %f", a, b)
	}
}

func TestHandleEstimateInvalid(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name string
		req  EstimateRequest
	}{
		{"zero samples", EstimateRequest{Samples: 0}},
		{"negative samples", EstimateRequest{Samples: -5}},
		{"negative workers", EstimateRequest{Samples: 100, Workers: -1}},
		{"too many samples", EstimateRequest{Samples: MaxSamples + 1}},
		{"too many workers", EstimateRequest{Samples: 10, Workers: MaxWorkers + 1}},
		{"max int workers", EstimateRequest{Samples: 10, Workers: math.MaxInt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/estimate", tt.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestHandleEstimateBadBody(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/estimate", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/estimate"},
		{http.MethodGet, "/api/sweep/start"},
		{http.MethodGet, "/api/sweep/stop"},
		{http.MethodPost, "/api/status"},
		{http.MethodPost, "/api/presets"},
		{http.MethodPost, "/api/metrics"},
		{http.MethodPost, "/api/sweep/result"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			if err != nil {
				t.Fatalf("failed to build request: %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Errorf("expected status 405, got %d", resp.StatusCode)
			}
		})
	}
}

func TestHandlePresets(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/presets")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var presets []PresetInfo
	if err := json.NewDecoder(resp.Body).Decode(&presets); err != nil {
		t.Fatalf("failed to decode presets: %v", err)
	}

	if len(presets) != 4 {
		t.Fatalf("expected 4 presets, got %d", len(presets))
	}
	for _, p := range presets {
		if p.Name == "" || len(p.SampleSizes) == 0 || p.Workers <= 0 {
			t.Errorf("incomplete preset %+v", p)
		}
	}
}

func TestHandleMetricsCountsEstimates(t *testing.T) {
	_, ts := newTestServer(t)

	postJSON(t, ts.URL+"/api/estimate", EstimateRequest{Samples: 1000, Workers: 4})

	resp, err := http.Get(ts.URL + "/api/metrics")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var metrics MetricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&metrics); err != nil {
		t.Fatalf("failed to decode metrics: %v", err)
	}

	if metrics.Estimates.TotalSamples != 1000 {
		t.Errorf("expected 1000 samples, got %d", metrics.Estimates.TotalSamples)
	}
	if metrics.Estimates.CompletedWorkers != 4 {
		t.Errorf("expected 4 completed workers, got %d", metrics.Estimates.CompletedWorkers)
	}
	if metrics.Sweep != nil {
		t.Error("expected no sweep metrics before a sweep has run")
	}
}

func waitForSweep(t *testing.T, s *Server) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for s.status().Running {
		if time.Now().After(deadline) {
			t.Fatal("sweep did not finish in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSweepStartAndResult(t *testing.T) {
	s, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/sweep/start", SweepRequest{
		Preset:      "quick",
		SampleSizes: []int64{100, 1000},
		Workers:     2,
		Seed:        3,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	waitForSweep(t, s)

	status := s.status()
	if !status.Completed {
		t.Fatalf("expected completed sweep, last error %q", status.LastError)
	}
	if status.SweepName != "quick" {
		t.Errorf("expected sweep name quick, got %s", status.SweepName)
	}

	res, err := http.Get(ts.URL + "/api/sweep/result")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer res.Body.Close()

	var result struct {
		Rows []struct {
			Samples int64   `json:"samples"`
			Pi      float64 `json:"pi"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode sweep result: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if result.Rows[1].Samples != 1000 {
		t.Errorf("expected second row with 1000 samples, got %d", result.Rows[1].Samples)
	}
}

func TestSweepResultNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/sweep/result")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestSweepStartInvalid(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/sweep/start", SweepRequest{SampleSizes: []int64{100, -1}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestSweepStartTooManyWorkers(t *testing.T) {
	s, ts := newTestServer(t)

	for _, workers := range []int{MaxWorkers + 1, math.MaxInt} {
		resp := postJSON(t, ts.URL+"/api/sweep/start", SweepRequest{SampleSizes: []int64{10}, Workers: workers})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("workers=%d: expected status 400, got %d", workers, resp.StatusCode)
		}
	}
	if s.status().Running {
		t.Error("expected no sweep to be started")
	}
}

func TestSweepStopWithoutRun(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/sweep/stop", struct{}{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestSweepStopCancelsRun(t *testing.T) {
	s, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/sweep/start", SweepRequest{
		SampleSizes: []int64{MaxSamples, MaxSamples, MaxSamples},
		Workers:     1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	stop := postJSON(t, ts.URL+"/api/sweep/stop", struct{}{})
	if stop.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", stop.StatusCode)
	}

	waitForSweep(t, s)

	status := s.status()
	if status.Completed {
		t.Error("expected canceled sweep to have no result")
	}
	if !strings.Contains(status.LastError, context.Canceled.Error()) {
		t.Errorf("expected cancellation error, got %q", status.LastError)
	}
}

func TestWebSocketReceivesEstimateEvents(t *testing.T) {
	s, ts := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.broadcastLoop(ctx)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, err := websocket.Dial(wsURL, "", ts.URL)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer ws.Close()

	// 接続登録とバス購読を待つ
	deadline := time.Now().Add(5 * time.Second)
	for s.ClientCount() == 0 || s.bus.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client was not registered")
		}
		time.Sleep(time.Millisecond)
	}

	postJSON(t, ts.URL+"/api/estimate", EstimateRequest{Samples: 1000, Workers: 2})

	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			t.Fatalf("did not receive estimate_completed: %v", err)
		}
		var event events.Event
		if err := json.Unmarshal([]byte(msg), &event); err != nil {
			t.Fatalf("failed to decode event: %v", err)
		}
		if event.Type == events.EventEstimateCompleted {
			if event.Data.Samples != 1000 {
				t.Errorf("expected 1000 samples, got %d", event.Data.Samples)
			}
			return
		}
	}
}
