package image

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeUpscale   Mode = "upscale"
	ModeDownscale Mode = "downscale"
)

const (
	MinFactor = 1
	MaxFactor = 4
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeUpscale:
		return ModeUpscale, nil
	case ModeDownscale:
		return ModeDownscale, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeUpscale, ModeDownscale)
}

func (m Mode) Valid() bool {
	return m == ModeUpscale || m == ModeDownscale
}

// Past returns the past-tense label used in output names, e.g. "upscaled".
func (m Mode) Past() string {
	return string(m) + "d"
}

func ValidFactor(factor int) bool {
	return factor >= MinFactor && factor <= MaxFactor
}
