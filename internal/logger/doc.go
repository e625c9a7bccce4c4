// Package logger provides a simple, thread-safe logging facility backed by zap.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each log entry includes a timestamp, level, optional ID, and message.
// The ID is usually a run ID or a worker label such as "worker-2".
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Estimator started")
//	logger.Info("worker-1", "Partition done")
//	logger.Error("worker-1", "Failed: %v", err)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("worker-1", "Debug message")
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// # Thread Safety
//
// The underlying zap core writes through a locked WriteSyncer and the level
// is an atomic; all operations are safe for concurrent use.
package logger
