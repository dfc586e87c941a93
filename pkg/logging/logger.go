// Package logging 提供基于 zerolog 的全局结构化日志。
//
// 使用：
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Logger().Info().Str("product", name).Msg("recommend")
//	log := logging.With("artifact")
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 日志配置
type Config struct {
	// Level: trace / debug / info / warn / error / disabled，默认 info
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`

	// Format: json / console，默认 json
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Output 默认 os.Stderr
	Output io.Writer `koanf:"-"`
}

var (
	mu     sync.RWMutex
	logger zerolog.Logger
)

func init() {
	Init(Config{})
}

// Init 初始化全局 logger，可以重复调用以重新配置。
func Init(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	l := zerolog.New(output).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()

	mu.Lock()
	logger = l
	mu.Unlock()
}

// ParseLevel 将字符串转换为 zerolog.Level，无法识别时返回 InfoLevel。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger 返回全局 logger 的拷贝。
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With 返回带 component 字段的子 logger。
func With(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}

// Nop 返回丢弃所有输出的 logger（测试用）。
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
