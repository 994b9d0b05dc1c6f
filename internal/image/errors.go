package image

import "fmt"

// ImageError reports a decode, resize or encode failure for a single file.
type ImageError struct {
	Path string
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s: %v", e.Path, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}
