package files

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
)

type AssetLoader struct {
	bgPath   string
	fontPath string
}

func NewAssetLoader(assetsDir, bgFile, fontFile string) *AssetLoader {
	return &AssetLoader{
		bgPath:   joinAsset(assetsDir, bgFile),
		fontPath: joinAsset(assetsDir, fontFile),
	}
}

func joinAsset(dir, name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func openImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Load resolves the configured font and background. A configured font
// that does not exist is an error; an unreadable background is ignored.
func (l *AssetLoader) Load() (*Assets, error) {
	assets := &Assets{}

	if l.fontPath != "" {
		if _, err := os.Stat(l.fontPath); err != nil {
			return nil, fmt.Errorf("font %s: %w", l.fontPath, err)
		}
		assets.FontPath = l.fontPath
	}

	if l.bgPath != "" {
		assets.Background, _ = openImage(l.bgPath)
	}

	return assets, nil
}
