package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level はログレベルを表す
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel は文字列からログレベルを返す
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// Logger はスレッドセーフなロガー
type Logger struct {
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

// Default はデフォルトのロガー
var Default = New(os.Stdout, LevelInfo)

// New は新しいロガーを作成する
func New(out io.Writer, minLevel Level) *Logger {
	level := zap.NewAtomicLevelAt(minLevel.zapLevel())
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		ConsoleSeparator: " ",
		EncodeTime:       bracketTime,
		EncodeLevel:      bracketLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
	})
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), level)
	return &Logger{
		level: level,
		sugar: zap.New(core).Sugar(),
	}
}

func bracketTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format("2006-01-02 15:04:05.000") + "]")
}

func bracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// SetLevel はログレベルを設定する
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// Sync はバッファをフラッシュする
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// log は指定されたレベルでログを出力する
func (l *Logger) log(level Level, id string, format string, args ...any) {
	if !l.level.Enabled(level.zapLevel()) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if id != "" {
		msg = "[" + id + "] " + msg
	}

	switch level {
	case LevelDebug:
		l.sugar.Debug(msg)
	case LevelWarn:
		l.sugar.Warn(msg)
	case LevelError:
		l.sugar.Error(msg)
	default:
		l.sugar.Info(msg)
	}
}

// Debug はデバッグログを出力する
func (l *Logger) Debug(id string, format string, args ...any) {
	l.log(LevelDebug, id, format, args...)
}

// Info は情報ログを出力する
func (l *Logger) Info(id string, format string, args ...any) {
	l.log(LevelInfo, id, format, args...)
}

// Warn は警告ログを出力する
func (l *Logger) Warn(id string, format string, args ...any) {
	l.log(LevelWarn, id, format, args...)
}

// Error はエラーログを出力する
func (l *Logger) Error(id string, format string, args ...any) {
	l.log(LevelError, id, format, args...)
}

// グローバル関数（デフォルトロガーを使用）

// Debug はデバッグログを出力する
func Debug(id string, format string, args ...any) {
	Default.Debug(id, format, args...)
}

// Info は情報ログを出力する
func Info(id string, format string, args ...any) {
	Default.Info(id, format, args...)
}

// Warn は警告ログを出力する
func Warn(id string, format string, args ...any) {
	Default.Warn(id, format, args...)
}

// Error はエラーログを出力する
func Error(id string, format string, args ...any) {
	Default.Error(id, format, args...)
}
