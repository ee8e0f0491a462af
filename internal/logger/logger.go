// Package logger はJSON構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// 全レコードにservice属性を付与する。
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(slog.String("service", "storeman"))
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// ログレベルはLOG_LEVEL環境変数（debug/info/warn/error）で制御する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w, LevelFromEnv())
	slog.SetDefault(logger)
	return logger
}

// LevelFromEnv はLOG_LEVEL環境変数からログレベルを解決する。
// 未設定または不明な値の場合はInfoを返す。
func LevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
