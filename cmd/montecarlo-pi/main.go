// Package main is the entry point for montecarlo-pi.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"montecarlo-pi/internal/api"
	"montecarlo-pi/internal/config"
	"montecarlo-pi/internal/estimator"
	"montecarlo-pi/internal/events"
	"montecarlo-pi/internal/logger"
	"montecarlo-pi/internal/metrics"
	"montecarlo-pi/internal/sweep"
	"montecarlo-pi/internal/telemetry"
)

var (
	version = "dev"
)

// options はコマンドライン引数
type options struct {
	configFile string
	presetName string
	samples    int64
	workers    int
	seed       uint64
	logLevel   string
	progress   bool
	serverMode bool
	serverAddr string

	// traceOut は stdout エクスポーターの出力先（nil なら標準エラー）
	traceOut io.Writer
}

func main() {
	var opts options

	// フラグ定義
	flag.StringVar(&opts.configFile, "config", "", "設定ファイルパス (YAML/JSON)")
	flag.StringVar(&opts.presetName, "preset", "", "プリセットスイープ名 (sequential, concurrent, quick, stress)")
	flag.Int64Var(&opts.samples, "samples", 0, "単発推定のサンプル数 (指定時はスイープしない)")
	flag.IntVar(&opts.workers, "workers", 0, "ワーカー数")
	flag.Uint64Var(&opts.seed, "seed", 0, "乱数シード (0 なら毎回ランダム)")
	flag.StringVar(&opts.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")
	flag.BoolVar(&opts.progress, "progress", false, "ワーカーごとの進捗を表示")
	flag.BoolVar(&opts.serverMode, "server", false, "HTTP API サーバーモードで起動")
	flag.StringVar(&opts.serverAddr, "addr", ":8080", "サーバーアドレス (例: :8080, 0.0.0.0:3000)")
	listPresets := flag.Bool("list-presets", false, "利用可能なプリセットを表示")
	showVersion := flag.Bool("version", false, "バージョンを表示")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `montecarlo-pi - Parallel Monte Carlo Pi Estimator

Usage:
  montecarlo-pi [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  PI_WORKERS, PI_SEED, PI_LOG_LEVEL, PI_OTEL_ENDPOINT, PI_OTEL_STDOUT

Examples:
  # 1000万サンプルを8ワーカーで推定
  montecarlo-pi --samples 10000000 --workers 8

  # プリセットスイープを実行
  montecarlo-pi --preset concurrent

  # 設定ファイルから実行
  montecarlo-pi --config sweep.yaml

  # プリセット一覧を表示
  montecarlo-pi --list-presets

  # HTTP API サーバーモードで起動
  montecarlo-pi --server --addr :3000
`)
	}

	flag.Parse()

	// バージョン表示
	if *showVersion {
		fmt.Printf("montecarlo-pi version %s\n", version)
		return
	}

	// プリセット一覧表示
	if *listPresets {
		printPresets()
		return
	}

	if err := run(opts); err != nil {
		logger.Error("", "%v", err)
		logger.Default.Sync()
		os.Exit(1)
	}
}

// run は設定を組み立てて選ばれたモードを実行する
// トレースとログのフラッシュは戻る前に必ず行われる
func run(opts options) error {
	env, err := config.ParseEnv()
	if err != nil {
		return fmt.Errorf("環境変数エラー: %w", err)
	}

	var fileConfig *config.FileConfig
	if opts.configFile != "" {
		fileConfig, err = loadConfigFile(opts.configFile)
		if err != nil {
			return fmt.Errorf("設定エラー: %w", err)
		}
	}

	if err := applyLogLevel(opts.logLevel, fileConfig, env); err != nil {
		return fmt.Errorf("設定エラー: %w", err)
	}
	defer logger.Default.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	traceConfig := telemetryConfig(fileConfig, env)
	traceConfig.Writer = opts.traceOut
	shutdown, err := telemetry.Setup(ctx, traceConfig)
	if err != nil {
		return fmt.Errorf("トレース初期化エラー: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("", "トレース終了エラー: %v", err)
		}
	}()

	// HTTP API サーバーモード
	if opts.serverMode {
		if err := runServer(ctx, opts.serverAddr); err != nil {
			return fmt.Errorf("サーバーエラー: %w", err)
		}
		return nil
	}

	// 単発推定
	if opts.samples != 0 {
		w := opts.workers
		if w == 0 {
			w = env.Workers
		}
		if w == 0 {
			w = estimator.DefaultWorkers
		}
		s := opts.seed
		if s == 0 {
			s = env.Seed
		}
		if err := runEstimate(ctx, opts.samples, w, s, opts.progress); err != nil {
			return fmt.Errorf("推定エラー: %w", err)
		}
		return nil
	}

	// スイープ設定の決定
	sweepConfig, err := buildSweepConfig(fileConfig, opts.presetName, opts.workers, opts.seed, env)
	if err != nil {
		return fmt.Errorf("設定エラー: %w", err)
	}

	// スイープ実行
	if err := runSweep(ctx, sweepConfig, opts.progress); err != nil {
		return fmt.Errorf("スイープ実行エラー: %w", err)
	}
	return nil
}

// signalContext は SIGINT/SIGTERM でキャンセルされるコンテキストを返す
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			fmt.Println("\n中断シグナルを受信、終了中...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// loadConfigFile は設定ファイルを読み込んで検証する
func loadConfigFile(path string) (*config.FileConfig, error) {
	fileConfig, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
	}
	if err := fileConfig.Validate(); err != nil {
		return nil, fmt.Errorf("設定検証エラー: %w", err)
	}
	return fileConfig, nil
}

// applyLogLevel はフラグ > 環境変数 > 設定ファイルの順でログレベルを決める
func applyLogLevel(flagLevel string, fileConfig *config.FileConfig, env config.EnvConfig) error {
	level := flagLevel
	if level == "" {
		level = env.LogLevel
	}
	if level == "" && fileConfig != nil {
		level = fileConfig.Log.Level
	}
	parsed, err := logger.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.Default.SetLevel(parsed)
	return nil
}

func telemetryConfig(fileConfig *config.FileConfig, env config.EnvConfig) telemetry.Config {
	cfg := telemetry.Config{
		ServiceName: env.ServiceName,
		Version:     version,
		Endpoint:    env.OTelEndpoint,
		Stdout:      env.OTelStdout,
	}
	if fileConfig != nil {
		if cfg.Endpoint == "" {
			cfg.Endpoint = fileConfig.Telemetry.Endpoint
		}
		cfg.Stdout = cfg.Stdout || fileConfig.Telemetry.Stdout
	}
	return cfg
}

// buildSweepConfig はスイープ設定を構築する
// 設定ファイル > プリセット > デフォルトの順で土台を選び、環境変数、フラグの順に上書きする
func buildSweepConfig(
	fileConfig *config.FileConfig, presetName string,
	workers int, seed uint64, env config.EnvConfig,
) (sweep.Config, error) {
	var cfg sweep.Config
	var err error

	if fileConfig != nil {
		// 1. 設定ファイルから読み込み
		cfg, err = fileConfig.ToSweepConfig()
		if err != nil {
			return cfg, fmt.Errorf("設定変換エラー: %w", err)
		}
	} else if presetName != "" {
		// 2. プリセットから読み込み
		preset, ok := sweep.GetPreset(presetName)
		if !ok {
			return cfg, fmt.Errorf("不明なプリセット: %s (利用可能: %v)", presetName, sweep.ListPresets())
		}
		cfg = preset
	} else {
		// 3. デフォルト（concurrentスイープ）
		cfg = sweep.ConcurrentSweep()
	}

	env.Apply(&cfg)

	// フラグでオーバーライド
	if workers > 0 {
		cfg.Workers = workers
	}
	if seed != 0 {
		cfg.Seed = seed
	}

	return cfg, cfg.Validate()
}

// printProgress はバスのイベントを1行ずつ表示する
func printProgress(bus *events.Bus) (stop func()) {
	sub := bus.Subscribe(events.EventWorkerCompleted, events.EventWorkerFailed)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for event := range sub {
			switch event.Type {
			case events.EventWorkerCompleted:
				fmt.Printf("  worker %d: %d/%d inside (%s)\n",
					event.Data.Partition, event.Data.Inside, event.Data.Samples, event.Data.Elapsed)
			case events.EventWorkerFailed:
				fmt.Printf("  worker %d failed: %s\n", event.Data.Partition, event.Data.Error)
			}
		}
	}()

	return func() {
		bus.Close()
		<-done
	}
}

// runEstimate は単発の推定を実行する
func runEstimate(ctx context.Context, samples int64, workers int, seed uint64, progress bool) error {
	fmt.Println("montecarlo-pi - Parallel Monte Carlo Pi Estimator")
	fmt.Println("==================================================")
	fmt.Printf("Samples: %d, Workers: %d\n", samples, workers)
	fmt.Println("==================================================")

	cfg := estimator.Config{
		Workers: workers,
		Seed:    seed,
		Metrics: metrics.New(),
	}
	if progress {
		cfg.Bus = events.NewBus()
		stop := printProgress(cfg.Bus)
		defer stop()
	}

	result, err := estimator.New(cfg).Estimate(ctx, samples)
	if err != nil {
		return err
	}

	fmt.Printf("Partition: %v\n", result.Partition)
	fmt.Printf("Pi estimate: %.5f (error %.5f)\n", result.Pi, math.Abs(math.Pi-result.Pi))
	fmt.Printf("Inside: %d of %d\n", result.Inside, result.Samples)
	fmt.Printf("Samples/sec: %.0f\n", cfg.Metrics.SamplesPerSecond())
	fmt.Printf("Total Execution Time: %.3f seconds\n", result.Elapsed.Seconds())

	return nil
}

// runSweep はスイープを実行する
func runSweep(ctx context.Context, cfg sweep.Config, progress bool) error {
	fmt.Println("montecarlo-pi - Parallel Monte Carlo Pi Estimator")
	fmt.Println("==================================================")
	fmt.Printf("Sweep: %s\n", cfg.Name)
	fmt.Printf("Sample sizes: %v\n", cfg.SampleSizes)
	fmt.Printf("Workers: %d\n", cfg.Workers)
	fmt.Println("==================================================")
	fmt.Println()

	engine := sweep.New(cfg)
	if progress {
		bus := events.NewBus()
		engine.SetEventBus(bus)
		stop := printProgress(bus)
		defer stop()
	}

	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	// レポート出力
	fmt.Println(result.Report())

	return nil
}

// printPresets は利用可能なプリセットを表示する
func printPresets() {
	fmt.Println("利用可能なプリセットスイープ:")
	fmt.Println()

	for _, name := range sweep.ListPresets() {
		cfg, _ := sweep.GetPreset(name)
		fmt.Printf("  %-12s %s (%d sizes, %d workers)\n",
			name, cfg.Description, len(cfg.SampleSizes), cfg.Workers)
	}

	fmt.Println()
	fmt.Println("使用例: montecarlo-pi --preset quick")
}

// runServer は HTTP API サーバーを起動する
func runServer(ctx context.Context, addr string) error {
	fmt.Println("montecarlo-pi - HTTP API Server")
	fmt.Println("===============================")
	fmt.Printf("Starting server on http://%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	server := api.NewServer(addr)
	return server.Start(ctx)
}
