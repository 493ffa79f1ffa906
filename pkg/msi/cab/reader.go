package cab

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

// File describes one file inside a cabinet.
type File struct {
	Name    string
	Size    uint32
	Folder  int
	Offset  uint32
	ModTime time.Time
}

type folder struct {
	dataOffset  uint32
	blocks      uint16
	compression CompressionType
}

// Cabinet is a parsed cabinet. Folder contents are decompressed on
// first use and kept.
type Cabinet struct {
	r       io.ReaderAt
	folders []folder
	files   []File
	cache   map[int][]byte
}

// Open parses the header, folder and file tables of a cabinet. Data
// blocks are not read until a file is opened.
func Open(r io.ReaderAt, size int64) (*Cabinet, error) {
	le := binary.LittleEndian

	hdr := make([]byte, headerSize)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		return nil, errors.Wrap(err, "reading cabinet header")
	}
	if !bytes.Equal(hdr[0:4], signature[:]) {
		return nil, errors.New("not a cabinet file")
	}
	if cb := int64(le.Uint32(hdr[8:12])); cb > size {
		return nil, errors.Errorf("cabinet claims %d bytes, only %d available", cb, size)
	}
	if flags := le.Uint16(hdr[30:32]); flags != 0 {
		return nil, errors.Errorf("unsupported cabinet flags 0x%x", flags)
	}

	coffFiles := int64(le.Uint32(hdr[16:20]))
	nFolders := int(le.Uint16(hdr[26:28]))
	nFiles := int(le.Uint16(hdr[28:30]))

	c := &Cabinet{r: r, cache: make(map[int][]byte)}

	rec := make([]byte, folderSize)
	for i := 0; i < nFolders; i++ {
		if _, err := r.ReadAt(rec, int64(headerSize+i*folderSize)); err != nil {
			return nil, errors.Wrapf(err, "reading folder %d", i)
		}
		c.folders = append(c.folders, folder{
			dataOffset:  le.Uint32(rec[0:4]),
			blocks:      le.Uint16(rec[4:6]),
			compression: CompressionType(le.Uint16(rec[6:8]) & 0x000f),
		})
	}

	sr := io.NewSectionReader(r, coffFiles, size-coffFiles)
	frec := make([]byte, fileHeaderSize)
	for i := 0; i < nFiles; i++ {
		if _, err := io.ReadFull(sr, frec); err != nil {
			return nil, errors.Wrapf(err, "reading file entry %d", i)
		}
		name, err := readCString(sr)
		if err != nil {
			return nil, errors.Wrapf(err, "reading name of file %d", i)
		}

		f := File{
			Name:    name,
			Size:    le.Uint32(frec[0:4]),
			Offset:  le.Uint32(frec[4:8]),
			Folder:  int(le.Uint16(frec[8:10])),
			ModTime: fromDosDateTime(le.Uint16(frec[10:12]), le.Uint16(frec[12:14])),
		}
		if f.Folder >= len(c.folders) {
			return nil, errors.Errorf("file %s references folder %d of %d", name, f.Folder, len(c.folders))
		}
		c.files = append(c.files, f)
	}

	return c, nil
}

func readCString(r io.Reader) (string, error) {
	var name []byte
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(name), nil
		}
		name = append(name, b[0])
		if len(name) > 256 {
			return "", errors.New("file name too long")
		}
	}
}

func fromDosDateTime(date, clock uint16) time.Time {
	return time.Date(
		int(date>>9)+1980, time.Month(date>>5&0xf), int(date&0x1f),
		int(clock>>11), int(clock>>5&0x3f), int(clock&0x1f)*2, 0, time.UTC,
	)
}

func (c *Cabinet) Files() []File {
	return append([]File(nil), c.files...)
}

func (c *Cabinet) FolderCount() int {
	return len(c.folders)
}

func (c *Cabinet) FolderCompression(i int) CompressionType {
	return c.folders[i].compression
}

func (c *Cabinet) folderData(i int) ([]byte, error) {
	if data, ok := c.cache[i]; ok {
		return data, nil
	}

	le := binary.LittleEndian
	f := c.folders[i]
	offset := int64(f.dataOffset)

	var out bytes.Buffer
	var dict []byte
	hdr := make([]byte, dataHeaderSize)
	for b := 0; b < int(f.blocks); b++ {
		if _, err := c.r.ReadAt(hdr, offset); err != nil {
			return nil, errors.Wrapf(err, "reading block %d of folder %d", b, i)
		}
		cbData := int(le.Uint16(hdr[4:6]))
		cbUncomp := int(le.Uint16(hdr[6:8]))
		offset += dataHeaderSize

		data := make([]byte, cbData)
		if _, err := c.r.ReadAt(data, offset); err != nil {
			return nil, errors.Wrapf(err, "reading block %d of folder %d", b, i)
		}
		offset += int64(cbData)

		switch f.compression {
		case CompressionNone:
			out.Write(data)
		case CompressionMSZIP:
			if len(data) < 2 || data[0] != 'C' || data[1] != 'K' {
				return nil, errors.Errorf("block %d of folder %d lacks the MSZIP signature", b, i)
			}
			fr := flate.NewReaderDict(bytes.NewReader(data[2:]), dict)
			block, err := io.ReadAll(fr)
			fr.Close()
			if err != nil {
				return nil, errors.Wrapf(err, "inflating block %d of folder %d", b, i)
			}
			if len(block) != cbUncomp {
				return nil, errors.Errorf("block %d of folder %d inflated to %d bytes, expected %d", b, i, len(block), cbUncomp)
			}
			out.Write(block)
			dict = block
		default:
			return nil, errors.Errorf("unsupported compression %d", f.compression)
		}
	}

	c.cache[i] = out.Bytes()
	return c.cache[i], nil
}

// ReadFile returns the contents of the named file.
func (c *Cabinet) ReadFile(name string) ([]byte, error) {
	for _, f := range c.files {
		if f.Name != name {
			continue
		}
		data, err := c.folderData(f.Folder)
		if err != nil {
			return nil, err
		}
		end := uint64(f.Offset) + uint64(f.Size)
		if end > uint64(len(data)) {
			return nil, errors.Errorf("%s extends past the end of folder %d", name, f.Folder)
		}
		return data[f.Offset:end], nil
	}
	return nil, errors.Errorf("%s is not in the cabinet", name)
}
