package image

import "github.com/fogleman/gg"

const defaultPoints = 14

// TextRenderer draws labels onto a gg context. An empty FontPath keeps
// gg's built-in bitmap face.
type TextRenderer struct {
	FontPath string
	Points   float64
}

func (tr *TextRenderer) LoadFace(dc *gg.Context, points float64) error {
	if tr.FontPath == "" {
		return nil
	}
	if points <= 0 {
		points = tr.Points
	}
	if points <= 0 {
		points = defaultPoints
	}
	return dc.LoadFontFace(tr.FontPath, points)
}

func (tr *TextRenderer) DrawCentered(dc *gg.Context, text string, x, y float64) {
	dc.SetRGB(0.9, 0.9, 0.92)
	dc.DrawStringAnchored(text, x, y, 0.5, 0.5)
}
