package files

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const archiveExt = ".zip"

// OutputPath derives the result archive path from the input: only the
// final ".zip" (any case) is replaced by "_<factor>x_<mode>d.zip".
func OutputPath(input string, factor int, modePast string) string {
	dir, base := filepath.Split(input)
	if strings.EqualFold(filepath.Ext(base), archiveExt) {
		base = base[:len(base)-len(archiveExt)]
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%dx_%s%s", base, factor, modePast, archiveExt))
}

var outputName = regexp.MustCompile(`(?i)_[1-4]x_(upscaled|downscaled)\.zip$`)

// IsOutput reports whether path looks like an archive this tool produced.
func IsOutput(path string) bool {
	return outputName.MatchString(filepath.Base(path))
}

// IsArchive reports whether path has a ".zip" extension, ignoring case.
func IsArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), archiveExt)
}
