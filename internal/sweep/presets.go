package sweep

import "runtime"

// SequentialSweep は逐次ベースラインのスイープ設定を返す
// 1ワーカーで 10000〜7500000 の15段階
func SequentialSweep() Config {
	return Config{
		Name:        "sequential",
		Description: "Single-worker baseline over 15 sample sizes",
		SampleSizes: Geomspace(10000, 7500000, 15),
		Workers:     1,
	}
}

// ConcurrentSweep は並列版のスイープ設定を返す
// 4ワーカーで 10000〜3000000 の3段階
func ConcurrentSweep() Config {
	return Config{
		Name:        "concurrent",
		Description: "Four workers over 3 sample sizes",
		SampleSizes: Geomspace(10000, 3000000, 3),
		Workers:     4,
	}
}

// QuickSweep はクイックテスト用の設定を返す
func QuickSweep() Config {
	return Config{
		Name:        "quick",
		Description: "Quick test for verification",
		SampleSizes: Geomspace(1000, 100000, 3),
		Workers:     4,
	}
}

// StressSweep は高負荷の設定を返す
// CPU 数のワーカーで最大1億サンプル
func StressSweep() Config {
	return Config{
		Name:        "stress",
		Description: "Large sample sizes across all CPUs",
		SampleSizes: Geomspace(1000000, 100000000, 3),
		Workers:     runtime.NumCPU(),
	}
}

var presets = map[string]func() Config{
	"sequential": SequentialSweep,
	"concurrent": ConcurrentSweep,
	"quick":      QuickSweep,
	"stress":     StressSweep,
}

// GetPreset は名前からプリセットを取得する
func GetPreset(name string) (Config, bool) {
	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"sequential", "concurrent", "quick", "stress"}
}
