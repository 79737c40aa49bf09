package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Run modes of the server process.
const (
	ModeForeground = "foreground"
	ModeBackground = "background"
	ModeFork       = "fork"
)

// Write modes of the document handler.
const (
	// WriteRaw hijacks HTTP/1.x connections and writes rendered bytes as-is.
	WriteRaw = "raw"
	// WriteStructured goes through http.ResponseWriter.
	WriteStructured = "structured"
)

type Config struct {
	Addr      string
	Root      string
	LogLevel  string
	LogFormat string
	RunMode   string
	WriteMode string
	// Serve HTTP/2 over cleartext (h2c) next to HTTP/1.x
	H2C             bool
	CORSAllowOrigin string
	// How long background and fork modes wait for the listener
	ReadyTimeout time.Duration
	// Served request history kept in memory for /_asis/served
	HistorySize int
	HistoryTTL  time.Duration
	// Artificial response delay (ms)
	ResponseDelayMs int
	// Optional range support: if set, each response delay will be random in [min,max]
	ResponseDelayMinMs int
	ResponseDelayMaxMs int
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		Root:            ".",
		LogLevel:        "info",
		LogFormat:       "json",
		RunMode:         ModeForeground,
		WriteMode:       WriteRaw,
		CORSAllowOrigin: "*",
		ReadyTimeout:    5 * time.Second,
		HistorySize:     500,
		HistoryTTL:      2 * time.Hour,
	}
}

func FromEnv() Config {
	cfg := Default()
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.Root = getEnv("ASIS_ROOT", cfg.Root)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.RunMode = getEnv("RUN_MODE", cfg.RunMode)
	cfg.WriteMode = getEnv("WRITE_MODE", cfg.WriteMode)
	cfg.CORSAllowOrigin = getEnv("CORS_ALLOW_ORIGIN", cfg.CORSAllowOrigin)
	if os.Getenv("H2C") == "1" || os.Getenv("H2C") == "true" {
		cfg.H2C = true
	}
	cfg.ReadyTimeout = time.Duration(getEnvInt("READY_TIMEOUT_MS", int(cfg.ReadyTimeout/time.Millisecond))) * time.Millisecond
	cfg.HistorySize = getEnvInt("HISTORY_SIZE", cfg.HistorySize)
	if raw := os.Getenv("RESPONSE_DELAY_MS"); raw != "" {
		if fixed, min, max, err := ParseDelay(raw); err == nil {
			cfg.ResponseDelayMs, cfg.ResponseDelayMinMs, cfg.ResponseDelayMaxMs = fixed, min, max
		}
	}
	return cfg
}

// ParseDelay parses a delay given as milliseconds ("1500") or as a range
// ("1000-3000"). A range yields min and max with fixed = 0.
func ParseDelay(v string) (fixed, min, max int, err error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, 0, 0, nil
	}
	if strings.Contains(v, "-") {
		parts := strings.SplitN(v, "-", 2)
		min, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		max, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil || min < 0 || max < 0 {
			return 0, 0, 0, errors.New("value must be number or range like 1000-3000")
		}
		if max < min {
			min, max = max, min
		}
		return 0, min, max, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, 0, 0, errors.New("value must be non-negative integer or range")
	}
	return n, 0, 0, nil
}

// fileConfig mirrors Config for YAML files. Unset fields keep the value
// they had before the file was applied.
type fileConfig struct {
	Addr            string `yaml:"addr"`
	Root            string `yaml:"root"`
	LogLevel        string `yaml:"logLevel"`
	LogFormat       string `yaml:"logFormat"`
	RunMode         string `yaml:"runMode"`
	WriteMode       string `yaml:"writeMode"`
	H2C             *bool  `yaml:"h2c"`
	CORSAllowOrigin string `yaml:"corsAllowOrigin"`
	ReadyTimeout    string `yaml:"readyTimeout"`
	HistorySize     *int   `yaml:"historySize"`
	HistoryTTL      string `yaml:"historyTTL"`
	ResponseDelay   string `yaml:"responseDelay"`
}

// LoadFile applies the YAML configuration file at path on top of cfg.
func LoadFile(path string, cfg Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	setString(&cfg.Addr, fc.Addr)
	setString(&cfg.Root, fc.Root)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.RunMode, fc.RunMode)
	setString(&cfg.WriteMode, fc.WriteMode)
	setString(&cfg.CORSAllowOrigin, fc.CORSAllowOrigin)
	if fc.H2C != nil {
		cfg.H2C = *fc.H2C
	}
	if fc.HistorySize != nil {
		cfg.HistorySize = *fc.HistorySize
	}
	if fc.ReadyTimeout != "" {
		d, err := time.ParseDuration(fc.ReadyTimeout)
		if err != nil {
			return cfg, fmt.Errorf("%s: readyTimeout: %w", path, err)
		}
		cfg.ReadyTimeout = d
	}
	if fc.HistoryTTL != "" {
		d, err := time.ParseDuration(fc.HistoryTTL)
		if err != nil {
			return cfg, fmt.Errorf("%s: historyTTL: %w", path, err)
		}
		cfg.HistoryTTL = d
	}
	if fc.ResponseDelay != "" {
		fixed, min, max, err := ParseDelay(fc.ResponseDelay)
		if err != nil {
			return cfg, fmt.Errorf("%s: responseDelay: %w", path, err)
		}
		cfg.ResponseDelayMs, cfg.ResponseDelayMinMs, cfg.ResponseDelayMaxMs = fixed, min, max
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch c.RunMode {
	case ModeForeground, ModeBackground, ModeFork:
	default:
		return fmt.Errorf("unknown run mode %q", c.RunMode)
	}
	switch c.WriteMode {
	case WriteRaw, WriteStructured:
	default:
		return fmt.Errorf("unknown write mode %q", c.WriteMode)
	}
	if c.Root == "" {
		return errors.New("document root is not set")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
