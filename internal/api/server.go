// Package api serves estimates and sweeps over HTTP and streams estimator
// progress to websocket clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"montecarlo-pi/internal/errs"
	"montecarlo-pi/internal/estimator"
	"montecarlo-pi/internal/events"
	"montecarlo-pi/internal/logger"
	"montecarlo-pi/internal/metrics"
	"montecarlo-pi/internal/sweep"

	"golang.org/x/net/websocket"
)

// MaxSamples は1リクエストあたりのサンプル数上限
const MaxSamples int64 = 100_000_000

// MaxWorkers は1リクエストあたりのワーカー数上限
const MaxWorkers = 1024

// Server はAPIサーバー
type Server struct {
	addr    string
	bus     *events.Bus
	metrics *metrics.Metrics

	mu         sync.RWMutex
	running    bool
	engine     *sweep.Engine
	config     sweep.Config
	lastResult *sweep.Result
	lastError  string
	cancel     context.CancelFunc
	baseCtx    context.Context
	wsClients  map[*websocket.Conn]bool

	server *http.Server
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(addr string) *Server {
	return &Server{
		addr:      addr,
		bus:       events.NewBus(),
		metrics:   metrics.New(),
		baseCtx:   context.Background(),
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// Bus は推定イベントの配信元を返す
func (s *Server) Bus() *events.Bus {
	return s.bus
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/estimate", s.handleEstimate)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/sweep/start", s.handleSweepStart)
	mux.HandleFunc("/api/sweep/stop", s.handleSweepStop)
	mux.HandleFunc("/api/sweep/result", s.handleSweepResult)
	mux.HandleFunc("/api/presets", s.handlePresets)

	// WebSocket
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	return mux
}

// Start はサーバーを開始する
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// バックグラウンドでイベントとステータスを配信
	go s.broadcastLoop(ctx)

	logger.Info("", "API Server starting on http://%s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		s.bus.Close()
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running        bool   `json:"running"`
	SweepName      string `json:"sweep_name,omitempty"`
	Workers        int    `json:"workers,omitempty"`
	CurrentSamples int64  `json:"current_samples,omitempty"`
	Completed      bool   `json:"completed"`
	LastError      string `json:"last_error,omitempty"`
	Clients        int    `json:"clients"`
	DroppedEvents  uint64 `json:"dropped_events"`
}

func (s *Server) status() StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := StatusResponse{
		Running:       s.running,
		SweepName:     s.config.Name,
		Workers:       s.config.Workers,
		Completed:     s.lastResult != nil,
		LastError:     s.lastError,
		Clients:       len(s.wsClients),
		DroppedEvents: s.bus.Dropped(),
	}
	if s.engine != nil {
		resp.CurrentSamples = s.engine.CurrentSamples()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, s.status())
}

// EstimateRequest は推定リクエスト
type EstimateRequest struct {
	Samples int64  `json:"samples"`
	Workers int    `json:"workers,omitempty"`
	Seed    uint64 `json:"seed,omitempty"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Samples > MaxSamples {
		http.Error(w, fmt.Sprintf("samples must not exceed %d", MaxSamples), http.StatusBadRequest)
		return
	}
	if req.Workers > MaxWorkers {
		http.Error(w, fmt.Sprintf("workers must not exceed %d", MaxWorkers), http.StatusBadRequest)
		return
	}
	if req.Workers == 0 {
		req.Workers = estimator.DefaultWorkers
	}

	config := estimator.Config{
		Workers: req.Workers,
		Seed:    req.Seed,
		Bus:     s.bus,
		Metrics: s.metrics,
	}

	result, err := estimator.New(config).Estimate(r.Context(), req.Samples)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errs.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	s.writeJSON(w, result)
}

// MetricsResponse はメトリクスレスポンス
type MetricsResponse struct {
	Estimates metrics.Snapshot  `json:"estimates"`
	Sweep     *metrics.Snapshot `json:"sweep,omitempty"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()

	resp := MetricsResponse{Estimates: s.metrics.Snapshot()}
	if engine != nil {
		snap := engine.Metrics()
		resp.Sweep = &snap
	}

	s.writeJSON(w, resp)
}

// SweepRequest はスイープ開始リクエスト
type SweepRequest struct {
	Preset      string  `json:"preset"`
	SampleSizes []int64 `json:"sample_sizes,omitempty"`
	Workers     int     `json:"workers,omitempty"`
	Seed        uint64  `json:"seed,omitempty"`
}

func (s *Server) handleSweepStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Workers > MaxWorkers {
		http.Error(w, fmt.Sprintf("workers must not exceed %d", MaxWorkers), http.StatusBadRequest)
		return
	}

	// プリセット取得
	config, ok := sweep.GetPreset(req.Preset)
	if !ok {
		config = sweep.QuickSweep()
	}

	// オーバーライド
	if len(req.SampleSizes) > 0 {
		config.SampleSizes = req.SampleSizes
	}
	if req.Workers > 0 {
		config.Workers = req.Workers
	}
	if req.Seed != 0 {
		config.Seed = req.Seed
	}
	if err := config.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, n := range config.SampleSizes {
		if n > MaxSamples {
			http.Error(w, fmt.Sprintf("sample sizes must not exceed %d", MaxSamples), http.StatusBadRequest)
			return
		}
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, "Sweep already running", http.StatusConflict)
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	engine := sweep.New(config)
	engine.SetEventBus(s.bus)

	s.config = config
	s.engine = engine
	s.lastResult = nil
	s.lastError = ""
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	// バックグラウンドで実行
	go s.runSweep(ctx, cancel, engine)

	s.writeJSON(w, map[string]string{"status": "started", "sweep": config.Name})
}

func (s *Server) runSweep(ctx context.Context, cancel context.CancelFunc, engine *sweep.Engine) {
	defer cancel()

	result, err := engine.Run(ctx)

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastResult = result
	}
	s.mu.Unlock()

	if err != nil {
		logger.Error("", "Sweep failed: %v", err)
		s.broadcast(map[string]any{
			"type":  "sweep_failed",
			"error": err.Error(),
		})
		return
	}

	logger.Info("", "Sweep completed: %d sample sizes in %v", len(result.Rows), result.Elapsed)
	s.broadcast(map[string]any{
		"type":   "sweep_complete",
		"result": result,
	})
}

func (s *Server) handleSweepStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	if !s.running || s.cancel == nil {
		s.mu.Unlock()
		http.Error(w, "No sweep running", http.StatusBadRequest)
		return
	}
	s.cancel()
	s.mu.Unlock()

	s.writeJSON(w, map[string]string{"status": "stop requested"})
}

func (s *Server) handleSweepResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	result := s.lastResult
	s.mu.RUnlock()

	if result == nil {
		http.Error(w, "No sweep result", http.StatusNotFound)
		return
	}
	s.writeJSON(w, result)
}

// PresetInfo はプリセット情報
type PresetInfo struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	SampleSizes []int64 `json:"sample_sizes"`
	Workers     int     `json:"workers"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var presets []PresetInfo
	for _, name := range sweep.ListPresets() {
		cfg, _ := sweep.GetPreset(name)
		presets = append(presets, PresetInfo{
			Name:        cfg.Name,
			Description: cfg.Description,
			SampleSizes: cfg.SampleSizes,
			Workers:     cfg.Workers,
		})
	}

	s.writeJSON(w, presets)
}

// WebSocket handling
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// Keep connection alive
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

// ClientCount は接続中の WebSocket クライアント数を返す
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wsClients)
}

func (s *Server) broadcast(data any) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// broadcastLoop はバスのイベントをそのまま転送し、スイープ実行中は
// 1秒ごとにステータスを配信する
func (s *Server) broadcastLoop(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			s.broadcast(event)
		case <-ticker.C:
			status := s.status()
			if !status.Running {
				continue
			}
			s.broadcast(map[string]any{
				"type":   "status",
				"status": status,
			})
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("", "Failed to encode JSON: %v", err)
	}
}
