package pdfclean

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place, so path is either untouched or complete.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return wrapError(KindOutput, errors.Wrap(err, "failed to create temporary output file"))
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return wrapError(KindOutput, errors.Wrap(err, "failed to write output"))
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		cleanup()
		return wrapError(KindOutput, errors.Wrap(err, "failed to set output permissions"))
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return wrapError(KindOutput, errors.Wrap(err, "failed to close output"))
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return wrapError(KindOutput, errors.Wrapf(err, "failed to move output to %s", path))
	}

	return nil
}

// WriteOutput writes data to path without ever leaving a partial file.
func WriteOutput(path string, data []byte) error {
	return writeFileAtomic(path, data, 0o644)
}
