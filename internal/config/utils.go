package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Load reads the optional YAML file at path over the defaults, applies
// environment overrides and validates the result.
func Load(path string, logger logrus.FieldLogger) (*Config, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.BotToken = getEnv(logger, "TOKEN", cfg.BotToken, parseString)
	cfg.TempDir = getEnv(logger, "TEMP_DIR", cfg.TempDir, parseString)
	cfg.Workers = getEnv(logger, "WORKERS", cfg.Workers, strconv.Atoi)
	cfg.LogLevel = getEnv(logger, "LOG_LEVEL", cfg.LogLevel, parseString)
	cfg.MaxFileSize = getEnv(logger, "MAX_FILE_SIZE", cfg.MaxFileSize, parseInt)
	cfg.AssetsDir = getEnv(logger, "ASSETS_DIR", cfg.AssetsDir, parseString)
	cfg.Preview.FontFile = getEnv(logger, "FONT_FILE", cfg.Preview.FontFile, parseString)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("max_file_size must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Preview.TileSize <= 0 || c.Preview.Columns <= 0 || c.Preview.MaxTiles <= 0 {
		return errors.New("preview tile_size, columns and max_tiles must be positive")
	}
	return nil
}

func getEnv[T any](logger logrus.FieldLogger, key string, defaultValue T, parser func(string) (T, error)) T {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	parsed, err := parser(val)
	if err != nil {
		logger.Warnf("invalid value for %s (%s). Using default: %v", key, val, defaultValue)
		return defaultValue
	}

	return parsed
}

func parseString(val string) (string, error) {
	return val, nil
}

func parseInt(val string) (int64, error) {
	return strconv.ParseInt(val, 10, 64)
}
