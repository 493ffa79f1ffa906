package packagekit

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

func isRegularFile(f string) (os.FileInfo, error) {
	fStat, err := os.Stat(f)

	if os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "missing source file %s", f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", f)
	}

	if fStat.IsDir() {
		return nil, errors.Errorf("source (%s) is a directory", f)
	}

	return fStat, nil
}

// destPath returns the slash separated install path of b, relative to
// the install root.
func destPath(b Binary) (string, error) {
	dest := b.Dest
	if dest == "" {
		dest = filepath.Base(b.Source)
	}
	dest = path.Clean(filepath.ToSlash(dest))
	dest = strings.TrimPrefix(dest, "/")

	if dest == "." || dest == "" {
		return "", errors.Errorf("binary %s has no destination name", b.Source)
	}
	if dest == ".." || strings.HasPrefix(dest, "../") {
		return "", errors.Errorf("destination %s escapes the install root", b.Dest)
	}
	return dest, nil
}
