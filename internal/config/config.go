// Package config loads sweep settings from YAML/JSON files and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"montecarlo-pi/internal/logger"
	"montecarlo-pi/internal/sweep"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileConfig は設定ファイルの構造
type FileConfig struct {
	Sweep     SweepConfig     `yaml:"sweep" json:"sweep"`
	Log       LogConfig       `yaml:"log" json:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// SweepConfig はスイープ設定
type SweepConfig struct {
	Preset      string           `yaml:"preset" json:"preset"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description"`
	SampleSizes []int64          `yaml:"sample_sizes" json:"sample_sizes"`
	Geomspace   *GeomspaceConfig `yaml:"geomspace" json:"geomspace"`
	Workers     int              `yaml:"workers" json:"workers"`
	Seed        uint64           `yaml:"seed" json:"seed"`
}

// GeomspaceConfig は等比数列でサンプル数を指定する
type GeomspaceConfig struct {
	Start int64 `yaml:"start" json:"start"`
	Stop  int64 `yaml:"stop" json:"stop"`
	Num   int   `yaml:"num" json:"num"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// TelemetryConfig はトレース設定
type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Stdout   bool   `yaml:"stdout" json:"stdout"`
}

// EnvConfig は環境変数による設定
type EnvConfig struct {
	Workers      int    `env:"PI_WORKERS"`
	Seed         uint64 `env:"PI_SEED"`
	LogLevel     string `env:"PI_LOG_LEVEL"`
	OTelEndpoint string `env:"PI_OTEL_ENDPOINT"`
	OTelStdout   bool   `env:"PI_OTEL_STDOUT"`
	ServiceName  string `env:"PI_SERVICE_NAME" envDefault:"montecarlo-pi"`
}

// ParseEnv は環境変数から設定を読み込む
func ParseEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	sc := f.Sweep

	if sc.Workers < 0 {
		return fmt.Errorf("sweep.workers must be non-negative")
	}

	for _, n := range sc.SampleSizes {
		if n <= 0 {
			return fmt.Errorf("sweep.sample_sizes must be positive")
		}
	}

	if g := sc.Geomspace; g != nil {
		if len(sc.SampleSizes) > 0 {
			return fmt.Errorf("sweep.sample_sizes and sweep.geomspace are mutually exclusive")
		}
		if g.Start <= 0 || g.Stop <= 0 {
			return fmt.Errorf("sweep.geomspace start and stop must be positive")
		}
		if g.Num <= 0 {
			return fmt.Errorf("sweep.geomspace.num must be positive")
		}
	}

	if sc.Preset != "" {
		if _, ok := sweep.GetPreset(sc.Preset); !ok {
			return fmt.Errorf("unknown preset: %s", sc.Preset)
		}
	}

	if _, err := logger.ParseLevel(f.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// ToSweepConfig は FileConfig を sweep.Config に変換する
// preset を土台に、指定された項目だけを上書きする
func (f *FileConfig) ToSweepConfig() (sweep.Config, error) {
	sc := f.Sweep

	config := sweep.DefaultConfig()
	if sc.Preset != "" {
		preset, ok := sweep.GetPreset(sc.Preset)
		if !ok {
			return config, fmt.Errorf("unknown preset: %s", sc.Preset)
		}
		config = preset
	}

	if sc.Name != "" {
		config.Name = sc.Name
	}
	if sc.Description != "" {
		config.Description = sc.Description
	}
	if len(sc.SampleSizes) > 0 {
		config.SampleSizes = sc.SampleSizes
	}
	if g := sc.Geomspace; g != nil {
		config.SampleSizes = sweep.Geomspace(g.Start, g.Stop, g.Num)
	}
	if sc.Workers > 0 {
		config.Workers = sc.Workers
	}
	if sc.Seed != 0 {
		config.Seed = sc.Seed
	}

	return config, config.Validate()
}

// Apply は環境変数の設定を sweep.Config に上書きする
func (e EnvConfig) Apply(config *sweep.Config) {
	if e.Workers > 0 {
		config.Workers = e.Workers
	}
	if e.Seed != 0 {
		config.Seed = e.Seed
	}
}
