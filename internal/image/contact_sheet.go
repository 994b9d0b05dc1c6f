package image

import (
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
)

const (
	sheetPadding = 8
	labelHeight  = 18
	headerHeight = 32
)

// ContactSheet renders a preview grid of rewritten images.
type ContactSheet struct {
	Text       *TextRenderer
	Background image.Image

	TileSize int
	Columns  int
	MaxTiles int
}

func NewContactSheet(text *TextRenderer, background image.Image, tileSize, columns, maxTiles int) *ContactSheet {
	if text == nil {
		text = &TextRenderer{}
	}
	return &ContactSheet{
		Text:       text,
		Background: background,
		TileSize:   max(tileSize, 16),
		Columns:    max(columns, 1),
		MaxTiles:   max(maxTiles, 1),
	}
}

// Render draws up to MaxTiles of results under caption and saves a PNG at dest.
func (cs *ContactSheet) Render(results []Result, caption, dest string) error {
	tiles := make([]tile, 0, min(len(results), cs.MaxTiles))
	for _, r := range results {
		if len(tiles) == cs.MaxTiles {
			break
		}
		img, err := openImage(r.Path)
		if err != nil {
			continue
		}
		tiles = append(tiles, tile{img: cs.fit(img), result: r})
	}
	if len(tiles) == 0 {
		return errors.New("no images to preview")
	}

	cols := min(cs.Columns, len(tiles))
	rows := (len(tiles) + cols - 1) / cols
	cell := cs.TileSize + sheetPadding
	width := cols*cell + sheetPadding
	height := headerHeight + rows*(cell+labelHeight) + sheetPadding

	dc := gg.NewContext(width, height)
	dc.SetRGB(0.13, 0.14, 0.2)
	dc.Clear()
	cs.drawBackground(dc)

	if err := cs.Text.LoadFace(dc, 0); err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	cs.Text.DrawCentered(dc, caption, float64(width)/2, headerHeight/2)

	for i, t := range tiles {
		col, row := i%cols, i/cols
		x := sheetPadding + col*cell
		y := headerHeight + row*(cell+labelHeight)

		dc.DrawImageAnchored(t.img, x+cs.TileSize/2, y+cs.TileSize/2, 0.5, 0.5)

		label := fmt.Sprintf("%dx%d", t.result.After.X, t.result.After.Y)
		cs.Text.DrawCentered(dc, label, float64(x+cs.TileSize/2), float64(y+cs.TileSize+labelHeight/2))
	}

	if err := dc.SavePNG(dest); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(dest), err)
	}
	return nil
}

type tile struct {
	img    image.Image
	result Result
}

// fit scales img to the largest size that fits a tile, keeping hard pixel edges.
func (cs *ContactSheet) fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Empty() {
		return img
	}
	scale := math.Min(float64(cs.TileSize)/float64(b.Dx()), float64(cs.TileSize)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	return resize.Resize(uint(w), uint(h), img, resize.NearestNeighbor)
}

func (cs *ContactSheet) drawBackground(dc *gg.Context) {
	if cs.Background == nil {
		return
	}
	b := cs.Background.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	for y := 0; y < dc.Height(); y += b.Dy() {
		for x := 0; x < dc.Width(); x += b.Dx() {
			dc.DrawImage(cs.Background, x, y)
		}
	}
}
