// Package sweep は複数のサンプル数に対する推定をまとめて実行する。
//
// Engine は設定されたサンプル数の列を順に estimator で推定し、
// 各推定値・π との誤差・所要時間を集めたレポートを生成する。
// 推定そのものには手を加えず、estimator の外側で計時と表示だけを担う。
//
// # プリセット
//
// - sequential: 10000〜7500000 を15段階、1ワーカー（逐次ベースライン）
// - concurrent: 10000〜3000000 を3段階、4ワーカー
// - quick: 短時間の動作確認（デフォルト）
// - stress: 大きなサンプル数を CPU 数のワーカーで
//
// # 使用例
//
//	config := sweep.ConcurrentSweep()
//	engine := sweep.New(config)
//	result, err := engine.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report())
package sweep
