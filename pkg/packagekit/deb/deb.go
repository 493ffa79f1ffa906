package deb

import (
	"archive/tar"
	"bytes"
	"io"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const (
	debianBinary  = "debian-binary"
	controlMember = "control.tar.gz"
	dataMember    = "data.tar.gz"

	formatVersion = "2.0\n"
	memberMode    = 0100644
)

// WriteArchive writes the ar container of a binary package. Member
// order is fixed, dpkg rejects anything else.
func WriteArchive(w io.Writer, modTime time.Time, control, data []byte) error {
	aw := ar.NewWriter(w)
	if err := aw.WriteGlobalHeader(); err != nil {
		return errors.Wrap(err, "writing ar header")
	}

	members := []struct {
		name string
		body []byte
	}{
		{name: debianBinary, body: []byte(formatVersion)},
		{name: controlMember, body: control},
		{name: dataMember, body: data},
	}

	for _, m := range members {
		hdr := &ar.Header{
			Name:    m.name,
			ModTime: modTime,
			Uid:     0,
			Gid:     0,
			Mode:    memberMode,
			Size:    int64(len(m.body)),
		}
		if err := aw.WriteHeader(hdr); err != nil {
			return errors.Wrapf(err, "writing ar header for %s", m.name)
		}
		if _, err := aw.Write(m.body); err != nil {
			return errors.Wrapf(err, "writing ar member %s", m.name)
		}
	}

	return nil
}

// Archive is a binary package read back into memory.
type Archive struct {
	FormatVersion string
	Control       map[string][]byte // control.tar.gz entries by name
	Data          map[string][]byte // data.tar.gz regular files by name
	Dirs          []string          // data.tar.gz directories, in archive order
}

// Read parses a binary package produced by WriteArchive.
func Read(r io.Reader) (*Archive, error) {
	archive := &Archive{
		Control: make(map[string][]byte),
		Data:    make(map[string][]byte),
	}

	rd := ar.NewReader(r)
	for {
		hdr, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading ar header")
		}

		body, err := io.ReadAll(rd)
		if err != nil {
			return nil, errors.Wrapf(err, "reading ar member %s", hdr.Name)
		}

		switch hdr.Name {
		case debianBinary:
			archive.FormatVersion = string(body)
		case controlMember:
			if _, err := readTarGz(body, archive.Control); err != nil {
				return nil, errors.Wrap(err, controlMember)
			}
		case dataMember:
			dirs, err := readTarGz(body, archive.Data)
			if err != nil {
				return nil, errors.Wrap(err, dataMember)
			}
			archive.Dirs = dirs
		default:
			return nil, errors.Errorf("unexpected ar member %s", hdr.Name)
		}
	}

	if archive.FormatVersion != formatVersion {
		return nil, errors.Errorf("unsupported format version %q", archive.FormatVersion)
	}
	return archive, nil
}

func readTarGz(body []byte, files map[string][]byte) ([]string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "opening gzip")
	}
	defer gz.Close()

	var dirs []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return dirs, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading tar header")
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			dirs = append(dirs, hdr.Name)
		case tar.TypeReg:
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s", hdr.Name)
			}
			files[hdr.Name] = data
		}
	}
}
