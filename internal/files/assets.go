package files

import "image"

// Assets are the optional inputs of the preview sheet.
type Assets struct {
	Background image.Image
	FontPath   string
}
