package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"packscaler/internal/config"
	"packscaler/internal/files"
	"packscaler/internal/image"
	"packscaler/internal/services"
)

// NewScaleService wires the processor, worker pool and preview sheet from cfg.
func NewScaleService(cfg *config.Config, logger logrus.FieldLogger) (*services.ScaleService, error) {
	assetLoader := files.NewAssetLoader(
		cfg.AssetsDir,
		cfg.Preview.BackgroundFile,
		cfg.Preview.FontFile,
	)
	assets, err := assetLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("asset load error: %w", err)
	}

	processor := &image.Processor{}
	dispatcher := services.NewDispatcher(processor, cfg.Workers, logger)
	logger.Debugf("using %d workers", dispatcher.Workers())

	sheet := image.NewContactSheet(
		&image.TextRenderer{FontPath: assets.FontPath, Points: 14},
		assets.Background,
		cfg.Preview.TileSize,
		cfg.Preview.Columns,
		cfg.Preview.MaxTiles,
	)

	return services.NewScaleService(dispatcher, sheet, cfg.TempDir, logger)
}

// parseTaskFlags validates the mode and factor given on the command line.
func parseTaskFlags(mode string, factor int) (image.Mode, error) {
	m, err := image.ParseMode(mode)
	if err != nil {
		return "", err
	}
	if !image.ValidFactor(factor) {
		return "", fmt.Errorf("factor %d out of range [%d,%d]", factor, image.MinFactor, image.MaxFactor)
	}
	return m, nil
}
