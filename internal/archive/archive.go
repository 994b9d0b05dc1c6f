package archive

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/mholt/archiver/v3"
	"github.com/sirupsen/logrus"
)

const (
	OpExtract = "extract"
	OpPack    = "pack"
)

// Archiver is the subset of archiver.Zip used to read and write packs.
type Archiver interface {
	String() string
	Create(io.Writer) error
	Write(archiver.File) error
	Close() error
	Walk(string, archiver.WalkFunc) error
}

// NewArchiver returns a zip archiver configured for texture packs.
func NewArchiver() Archiver {
	z := archiver.NewZip()
	z.ContinueOnError = false
	return z
}

// Extract unpacks the zip at src into dest, keeping the entry paths.
func Extract(src, dest string, logger logrus.FieldLogger) error {
	return ExtractWith(NewArchiver(), src, dest, logger)
}

// ExtractWith writes every entry of src below dest. Entries whose names
// leave dest are skipped. Symlink entries are written as regular files
// holding the link target, so nothing is ever created outside dest.
func ExtractWith(a Archiver, src, dest string, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	info, err := os.Stat(src)
	if err != nil {
		return &ArchiveError{Op: OpExtract, Path: src, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &ArchiveError{Op: OpExtract, Path: src, Err: fmt.Errorf("not a regular file")}
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return &ArchiveError{Op: OpExtract, Path: src, Err: err}
	}

	err = a.Walk(src, func(f archiver.File) error {
		hdr, ok := f.Header.(zip.FileHeader)
		if !ok {
			return fmt.Errorf("unexpected %s header %T", a, f.Header)
		}

		target, ok := entryTarget(dest, hdr.Name)
		if !ok {
			logger.WithField("entry", hdr.Name).Warn("skipping entry outside the archive root")
			return nil
		}

		if f.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if f.Mode()&os.ModeSymlink != 0 {
			logger.WithField("entry", hdr.Name).Debug("storing symlink entry as a regular file")
		}
		return writeEntry(target, f, f.Mode().Perm()|0600)
	})
	if err != nil {
		return &ArchiveError{Op: OpExtract, Path: src, Err: err}
	}
	return nil
}

// entryTarget maps an entry name to a path below dest. It reports false
// for names that are empty, absolute or climb out of dest.
func entryTarget(dest, name string) (string, bool) {
	rel := filepath.FromSlash(path.Clean(name))
	if rel == "." || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.Join(dest, rel), true
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%s: writing: %w", target, err)
	}
	return out.Close()
}

// Pack writes every directory and file under srcDir into a new zip at dest.
// The archive is built next to dest and renamed over it when complete.
func Pack(srcDir, dest string) error {
	return PackWith(NewArchiver(), srcDir, dest)
}

func PackWith(a Archiver, srcDir, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return &ArchiveError{Op: OpPack, Path: dest, Err: err}
	}
	tmpPath := tmp.Name()

	if err := writeTree(a, tmp, srcDir); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &ArchiveError{Op: OpPack, Path: dest, Err: err}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &ArchiveError{Op: OpPack, Path: dest, Err: err}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return &ArchiveError{Op: OpPack, Path: dest, Err: err}
	}
	return nil
}

func writeTree(a Archiver, out io.Writer, srcDir string) error {
	if err := a.Create(out); err != nil {
		return fmt.Errorf("creating %s archive: %w", a, err)
	}

	walkErr := filepath.Walk(srcDir, func(fpath string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("traversing %s: %w", fpath, err)
		}
		if fpath == srcDir {
			return nil
		}

		nameInArchive, err := EntryName(srcDir, fpath)
		if err != nil {
			return err
		}

		f := archiver.File{
			FileInfo: archiver.FileInfo{
				FileInfo:   info,
				CustomName: nameInArchive,
				SourcePath: fpath,
			},
		}

		if info.Mode().IsRegular() {
			file, err := os.Open(fpath)
			if err != nil {
				return fmt.Errorf("%s: opening: %w", fpath, err)
			}
			defer file.Close()
			f.ReadCloser = file
		} else if !info.IsDir() {
			return nil
		}

		if err := a.Write(f); err != nil {
			return fmt.Errorf("%s: writing: %w", fpath, err)
		}
		return nil
	})

	closeErr := a.Close()
	if walkErr != nil {
		return walkErr
	}
	return closeErr
}

// EntryName returns the slash-separated name of fpath relative to root.
func EntryName(root, fpath string) (string, error) {
	rel, err := filepath.Rel(root, fpath)
	if err != nil {
		return "", fmt.Errorf("relative name for %s: %w", fpath, err)
	}
	return filepath.ToSlash(rel), nil
}
