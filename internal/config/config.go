package config

import "time"

type Config struct {
	TempDir     string        `yaml:"temp_dir"`
	Workers     int           `yaml:"workers"`
	LogLevel    string        `yaml:"log_level"`
	BotToken    string        `yaml:"bot_token"`
	MaxFileSize int64         `yaml:"max_file_size"`
	AssetsDir   string        `yaml:"assets_dir"`
	Preview     PreviewConfig `yaml:"preview"`
	Watch       WatchConfig   `yaml:"watch"`
}

type PreviewConfig struct {
	FontFile       string `yaml:"font_file"`
	BackgroundFile string `yaml:"background_file"`
	TileSize       int    `yaml:"tile_size"`
	Columns        int    `yaml:"columns"`
	MaxTiles       int    `yaml:"max_tiles"`
}

type WatchConfig struct {
	Dir    string        `yaml:"dir"`
	OutDir string        `yaml:"out_dir"`
	Mode   string        `yaml:"mode"`
	Factor int           `yaml:"factor"`
	Settle time.Duration `yaml:"settle"`
}

func Default() *Config {
	return &Config{
		TempDir:     "",
		Workers:     0,
		LogLevel:    "info",
		MaxFileSize: 20 * 1024 * 1024,
		AssetsDir:   "./assets",
		Preview: PreviewConfig{
			TileSize: 96,
			Columns:  4,
			MaxTiles: 12,
		},
		Watch: WatchConfig{
			Mode:   "upscale",
			Factor: 2,
			Settle: 2 * time.Second,
		},
	}
}
