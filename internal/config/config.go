// Package config загружает настройки из окружения и файла .env
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"taxifiscal/pkg/fiscal"
)

// Config настройки приложения
type Config struct {
	// Enabled разрешает обращения к ККТ. На не-киосках выключено:
	// операции сразу возвращают успех.
	Enabled            bool
	Host               string
	Port               int
	RegistrationNumber string
	Timeout            time.Duration
	Cashier            string
	PaperWidth         int

	ShiftCooldown time.Duration
	ShiftInterval time.Duration

	LogLevel     string
	LogConsole   bool
	MetricsAddr  string
	ProfilesPath string
}

// Load читает .env (если есть) и переменные окружения
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("ошибка чтения %s: %w", f, err)
		}
	}

	cfg := &Config{
		Enabled:            getEnvBool("FISCAL_ENABLED", false),
		Host:               getEnv("FISCAL_HOST", fiscal.DefaultHost),
		RegistrationNumber: getEnv("FISCAL_REGISTRATION_NUMBER", ""),
		Cashier:            getEnv("FISCAL_CASHIER", "Киоск"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogConsole:         getEnvBool("LOG_CONSOLE", false),
		MetricsAddr:        getEnv("METRICS_ADDR", ""),
		ProfilesPath:       getEnv("PROFILES_PATH", "fiscal_nodes.json"),
	}

	var err error
	if cfg.Port, err = getEnvInt("FISCAL_PORT", fiscal.DefaultPort); err != nil {
		return nil, err
	}
	if cfg.PaperWidth, err = getEnvInt("FISCAL_PAPER_WIDTH", fiscal.DefaultPaperWidth); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = getEnvDuration("FISCAL_TIMEOUT", fiscal.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.ShiftCooldown, err = getEnvDuration("FISCAL_SHIFT_COOLDOWN", fiscal.DefaultShiftCooldown); err != nil {
		return nil, err
	}
	if cfg.ShiftInterval, err = getEnvDuration("FISCAL_SHIFT_INTERVAL", fiscal.DefaultShiftInterval); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("FISCAL_PORT вне диапазона: %d", c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("FISCAL_TIMEOUT должен быть положительным")
	}
	if c.PaperWidth < 16 {
		return fmt.Errorf("FISCAL_PAPER_WIDTH слишком мал: %d", c.PaperWidth)
	}
	return nil
}

// FiscalConfig конфигурация клиента фискального сервиса
func (c *Config) FiscalConfig() fiscal.Config {
	return fiscal.Config{
		Host:               c.Host,
		Port:               c.Port,
		RegistrationNumber: c.RegistrationNumber,
		Timeout:            c.Timeout,
		CashierName:        c.Cashier,
		PaperWidth:         c.PaperWidth,
		ShiftCooldown:      c.ShiftCooldown,
		ShiftInterval:      c.ShiftInterval,
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: некорректное число %q: %w", key, v, err)
	}
	return n, nil
}

// getEnvDuration принимает "30s", "20h" или число миллисекунд
func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: некорректная длительность %q: %w", key, v, err)
	}
	return d, nil
}
