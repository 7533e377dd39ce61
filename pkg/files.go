package pkg

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
)

// EnsureDir creates dir (and its parents if parents is set). An existing directory is not an error.
func EnsureDir(dir string, parents bool) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return eris.Errorf("%s exists but is not a directory", dir)
		}
		return nil
	}

	if !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "Failed to check %s", dir)
	}

	if parents {
		err = os.MkdirAll(dir, 0770)
	} else {
		err = os.Mkdir(dir, 0770)
	}

	if err != nil {
		return eris.Wrapf(err, "Failed to create %s", dir)
	}

	return nil
}

// GetProgressBar returns a byte progress bar which stays invisible on CI or when quiet is set
func GetProgressBar(length int64, desc string, quiet bool) *progressbar.ProgressBar {
	if quiet || os.Getenv("CI") == "true" {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	return progressbar.DefaultBytes(length, desc)
}

// CopyFile copies src to dest, overwriting dest if it exists. If dest is a directory, the file is
// placed inside it. The written path and number of bytes are returned.
func CopyFile(src, dest string, quiet bool) (string, int64, error) {
	info, err := os.Stat(dest)
	if err == nil && info.IsDir() {
		dest = filepath.Join(dest, filepath.Base(src))
	} else if err != nil && !eris.Is(err, os.ErrNotExist) {
		return "", 0, eris.Wrapf(err, "Failed to retrieve info about destination %s", dest)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", 0, eris.Wrapf(err, "Failed to open %s", src)
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return "", 0, eris.Wrapf(err, "Failed to stat %s", src)
	}

	if srcInfo.IsDir() {
		return "", 0, eris.Errorf("%s is a directory", src)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0660)
	if err != nil {
		return "", 0, eris.Wrapf(err, "Failed to open %s for writing", dest)
	}

	bar := GetProgressBar(srcInfo.Size(), filepath.Base(src), quiet)
	written, err := io.Copy(io.MultiWriter(out, bar), in)
	if err != nil {
		out.Close()
		return "", written, eris.Wrapf(err, "Failed to copy %s to %s", src, dest)
	}

	err = out.Close()
	if err != nil {
		return "", written, eris.Wrapf(err, "Failed to write %s", dest)
	}

	bar.Finish()
	return dest, written, nil
}
