package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config параметры глобального логгера
type Config struct {
	Level   string    // debug, info, warn, error
	Output  io.Writer // по умолчанию os.Stderr
	Service string
	Console bool // человекочитаемый вывод для терминала
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure настраивает глобальный логгер. Повторные вызовы игнорируются.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stderr
		}
		if cfg.Console {
			writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
		}

		service := cfg.Service
		if service == "" {
			service = "taxifiscal"
		}
		base = zerolog.New(writer).With().Timestamp().Str("service", service).Logger()
	})
}

// Base базовый логгер
func Base() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent дочерний логгер с полем component
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
