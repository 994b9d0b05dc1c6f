package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// JPEGQuality matches the default quality most image tools write with.
const JPEGQuality = 75

var encoders = map[string]func(*bytes.Buffer, image.Image) error{
	".png": func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	},
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
}

func encodeJPEG(buf *bytes.Buffer, img image.Image) error {
	return jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality})
}

// IsSupported reports whether path carries an extension the processor can rewrite.
func IsSupported(path string) bool {
	_, ok := encoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Result describes one rewritten image.
type Result struct {
	Path   string
	Before image.Point
	After  image.Point
}

type Processor struct{}

// Transform rescales the image at path in place and forces full opacity.
// On failure the returned error is an *ImageError.
func (p *Processor) Transform(path string, factor int, mode Mode) (Result, error) {
	res := Result{Path: path}

	encode, ok := encoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return res, &ImageError{Path: path, Err: fmt.Errorf("unsupported extension %q", filepath.Ext(path))}
	}

	src, err := openImage(path)
	if err != nil {
		return res, &ImageError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	res.Before = src.Bounds().Size()

	scaled, err := p.Scale(src, factor, mode)
	if err != nil {
		return res, &ImageError{Path: path, Err: err}
	}
	res.After = scaled.Bounds().Size()

	var buf bytes.Buffer
	if err := encode(&buf, scaled); err != nil {
		return res, &ImageError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return res, &ImageError{Path: path, Err: fmt.Errorf("write: %w", err)}
	}

	return res, nil
}

// Scale resamples img by factor and returns an opaque NRGBA copy.
func (p *Processor) Scale(img image.Image, factor int, mode Mode) (*image.NRGBA, error) {
	if !ValidFactor(factor) {
		return nil, fmt.Errorf("factor %d out of range [%d,%d]", factor, MinFactor, MaxFactor)
	}

	src := p.ToNRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	var scaled image.Image
	switch mode {
	case ModeUpscale:
		scaled = resize.Resize(uint(w*factor), uint(h*factor), src, resize.NearestNeighbor)
	case ModeDownscale:
		scaled = resize.Resize(uint(max(1, w/factor)), uint(max(1, h/factor)), src, resize.Lanczos3)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	out := p.ToNRGBA(scaled)
	if out == src {
		// resize returns its input untouched when the size does not change
		out = cloneNRGBA(src)
	}
	p.FlattenAlpha(out)
	return out, nil
}

// ToNRGBA returns img as a zero-origin non-premultiplied RGBA image.
// An image already in that form is returned as is.
func (p *Processor) ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// FlattenAlpha raises every alpha value below 255 to 255, leaving colour untouched.
func (p *Processor) FlattenAlpha(img *image.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			row[x*4+3] = 0xff
		}
	}
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
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
