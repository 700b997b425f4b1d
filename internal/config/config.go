package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CALCULATOR_"

// Config holds the calculator settings.
type Config struct {
	BaseDir     string
	LogDir      string
	LogFile     string
	HistoryDir  string
	HistoryFile string

	MaxHistorySize int
	AutoSave       bool
	Precision      int32
	MaxInputValue  decimal.Decimal

	LogLevel    string
	PluginDir   string
	MetricsAddr string
	Color       bool
}

// fileConfig mirrors Config for TOML decoding. Pointer fields tell unset
// keys apart from zero values.
type fileConfig struct {
	BaseDir        *string `toml:"base_dir"`
	LogDir         *string `toml:"log_dir"`
	LogFile        *string `toml:"log_file"`
	HistoryDir     *string `toml:"history_dir"`
	HistoryFile    *string `toml:"history_file"`
	MaxHistorySize *int    `toml:"max_history_size"`
	AutoSave       *bool   `toml:"auto_save"`
	Precision      *int32  `toml:"precision"`
	MaxInputValue  *string `toml:"max_input_value"`
	LogLevel       *string `toml:"log_level"`
	PluginDir      *string `toml:"plugin_dir"`
	MetricsAddr    *string `toml:"metrics_addr"`
	Color          *bool   `toml:"color"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		BaseDir:        ".",
		LogDir:         "logs",
		LogFile:        "calculator.log",
		HistoryDir:     "history",
		HistoryFile:    "calculator_history.csv",
		MaxHistorySize: 1000,
		AutoSave:       true,
		Precision:      10,
		MaxInputValue:  decimal.New(1, 999),
		LogLevel:       "info",
		Color:          true,
	}
}

// Load builds the configuration from defaults, the optional TOML file at
// path, and CALCULATOR_* environment variables, in increasing precedence.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&c.BaseDir, fc.BaseDir)
	setString(&c.LogDir, fc.LogDir)
	setString(&c.LogFile, fc.LogFile)
	setString(&c.HistoryDir, fc.HistoryDir)
	setString(&c.HistoryFile, fc.HistoryFile)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.PluginDir, fc.PluginDir)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	if fc.MaxHistorySize != nil {
		c.MaxHistorySize = *fc.MaxHistorySize
	}
	if fc.AutoSave != nil {
		c.AutoSave = *fc.AutoSave
	}
	if fc.Precision != nil {
		c.Precision = *fc.Precision
	}
	if fc.Color != nil {
		c.Color = *fc.Color
	}
	if fc.MaxInputValue != nil {
		d, err := decimal.NewFromString(*fc.MaxInputValue)
		if err != nil {
			return fmt.Errorf("config file %s: max_input_value: %w", path, err)
		}
		c.MaxInputValue = d
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BASE_DIR":     &c.BaseDir,
		"LOG_DIR":      &c.LogDir,
		"LOG_FILE":     &c.LogFile,
		"HISTORY_DIR":  &c.HistoryDir,
		"HISTORY_FILE": &c.HistoryFile,
		"LOG_LEVEL":    &c.LogLevel,
		"PLUGIN_DIR":   &c.PluginDir,
		"METRICS_ADDR": &c.MetricsAddr,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(EnvPrefix + "MAX_HISTORY_SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return envError("MAX_HISTORY_SIZE", v, err)
		}
		c.MaxHistorySize = n
	}
	if v, ok := lookup(EnvPrefix + "PRECISION"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return envError("PRECISION", v, err)
		}
		c.Precision = int32(n)
	}
	if v, ok := lookup(EnvPrefix + "MAX_INPUT_VALUE"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return envError("MAX_INPUT_VALUE", v, err)
		}
		c.MaxInputValue = d
	}
	for key, dst := range map[string]*bool{"AUTO_SAVE": &c.AutoSave, "COLOR": &c.Color} {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return envError(key, v, err)
			}
			*dst = b
		}
	}
	return nil
}

func envError(key, value string, err error) error {
	return fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, value, err)
}

// Validate rejects settings the calculator cannot run with.
func (c Config) Validate() error {
	if c.MaxHistorySize <= 0 {
		return fmt.Errorf("max history size must be positive, got %d", c.MaxHistorySize)
	}
	if c.Precision < 0 {
		return fmt.Errorf("precision must not be negative, got %d", c.Precision)
	}
	if !c.MaxInputValue.IsPositive() {
		return fmt.Errorf("max input value must be positive, got %s", c.MaxInputValue)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", c.LogLevel)
	}
	if c.HistoryFile == "" {
		return errors.New("history file must be set")
	}
	return nil
}

// LogPath is the log file location, resolved under LogDir and BaseDir.
func (c Config) LogPath() string {
	return c.resolve(c.LogDir, c.LogFile)
}

// HistoryPath is the history file location, resolved under HistoryDir and BaseDir.
func (c Config) HistoryPath() string {
	return c.resolve(c.HistoryDir, c.HistoryFile)
}

func (c Config) resolve(dir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.BaseDir, dir)
	}
	return filepath.Join(dir, file)
}
