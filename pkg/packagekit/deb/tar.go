package deb

import (
	"archive/tar"
	"bytes"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// TarBuilder writes a gzipped tar. Parent directories of every file are
// added once, before the file, so the archive extracts on its own.
type TarBuilder struct {
	buf     bytes.Buffer
	gz      *gzip.Writer
	tw      *tar.Writer
	modTime time.Time
	dirs    map[string]struct{}
	size    int64
}

func NewTarBuilder(modTime time.Time) *TarBuilder {
	b := &TarBuilder{
		modTime: modTime,
		dirs:    make(map[string]struct{}),
	}
	b.gz = gzip.NewWriter(&b.buf)
	b.tw = tar.NewWriter(b.gz)
	return b
}

// cleanName strips leading slashes and dots so entries are relative.
func cleanName(name string) (string, error) {
	name = path.Clean("/" + name)
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", errors.New("tar entry name is blank")
	}
	return name, nil
}

func (b *TarBuilder) addParents(name string) error {
	dir := path.Dir(name)
	if dir == "." {
		return nil
	}

	var current string
	for _, part := range strings.Split(dir, "/") {
		current = path.Join(current, part)
		if _, ok := b.dirs[current]; ok {
			continue
		}
		b.dirs[current] = struct{}{}

		hdr := &tar.Header{
			Typeflag: tar.TypeDir,
			Name:     current + "/",
			Mode:     0755,
			ModTime:  b.modTime,
			Format:   tar.FormatGNU,
		}
		if err := b.tw.WriteHeader(hdr); err != nil {
			return errors.Wrapf(err, "writing directory %s", current)
		}
	}
	return nil
}

// AddFile adds data as name with the given permission bits.
func (b *TarBuilder) AddFile(name string, mode int64, data []byte) error {
	return b.AddReader(name, mode, int64(len(data)), bytes.NewReader(data))
}

// AddReader copies size bytes from r into the entry name.
func (b *TarBuilder) AddReader(name string, mode int64, size int64, r io.Reader) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := b.addParents(name); err != nil {
		return err
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     mode,
		Size:     size,
		ModTime:  b.modTime,
		Format:   tar.FormatGNU,
	}
	if err := b.tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, "writing header for %s", name)
	}
	if _, err := io.CopyN(b.tw, r, size); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}

	b.size += size
	return nil
}

// Size is the total of the file sizes added so far.
func (b *TarBuilder) Size() int64 {
	return b.size
}

// Bytes closes the archive and returns the compressed contents.
func (b *TarBuilder) Bytes() ([]byte, error) {
	if err := b.tw.Close(); err != nil {
		return nil, errors.Wrap(err, "closing tar")
	}
	if err := b.gz.Close(); err != nil {
		return nil, errors.Wrap(err, "closing gzip")
	}
	return b.buf.Bytes(), nil
}
