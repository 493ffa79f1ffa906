// Package cab reads and writes Microsoft cabinet files, the archive
// format installer payload is shipped in.
package cab

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

type CompressionType uint16

const (
	CompressionNone  CompressionType = 0
	CompressionMSZIP CompressionType = 1
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionMSZIP:
		return "mszip"
	}
	return "unknown"
}

const (
	// maxBlockSize is the uncompressed size of a data block, and the
	// MSZIP history window.
	maxBlockSize = 0x8000

	headerSize     = 36
	folderSize     = 8
	fileHeaderSize = 16
	dataHeaderSize = 8

	attrArchive   = 0x20
	attrNameIsUTF = 0x80
)

var signature = [4]byte{'M', 'S', 'C', 'F'}

// Builder collects the layout of a cabinet: its folders and, for each
// folder, the names of the files in the order they will be written.
type Builder struct {
	ModTime time.Time
	SetID   uint16

	folders []*FolderBuilder
}

type FolderBuilder struct {
	compression CompressionType
	files       []string
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddFolder starts a new compression folder.
func (b *Builder) AddFolder(compression CompressionType) *FolderBuilder {
	f := &FolderBuilder{compression: compression}
	b.folders = append(b.folders, f)
	return f
}

func (f *FolderBuilder) AddFile(name string) {
	f.files = append(f.files, name)
}

func (f *FolderBuilder) Files() []string {
	return append([]string(nil), f.files...)
}

// Build validates the layout and returns a Writer that is fed file
// contents in layout order. Nothing is written to w until Finish.
func (b *Builder) Build(w io.Writer) (*Writer, error) {
	if len(b.folders) > 0xffff {
		return nil, errors.Errorf("too many folders: %d", len(b.folders))
	}

	total := 0
	seen := make(map[string]struct{})
	for _, f := range b.folders {
		if f.compression != CompressionNone && f.compression != CompressionMSZIP {
			return nil, errors.Errorf("unsupported compression %d", f.compression)
		}
		for _, name := range f.files {
			if name == "" {
				return nil, errors.New("file name is blank")
			}
			if _, dup := seen[name]; dup {
				return nil, errors.Errorf("duplicate file name %s", name)
			}
			seen[name] = struct{}{}
			total++
		}
	}
	if total > 0xffff {
		return nil, errors.Errorf("too many files: %d", total)
	}

	modTime := b.ModTime
	if modTime.IsZero() {
		modTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	cw := &Writer{
		w:       w,
		modTime: modTime,
		setID:   b.SetID,
	}
	for _, f := range b.folders {
		cw.folders = append(cw.folders, &folderState{
			compression: f.compression,
			files:       append([]string(nil), f.files...),
		})
	}
	return cw, nil
}

type dataBlock struct {
	data         []byte
	uncompressed int
}

type fileEntry struct {
	name   string
	size   uint32
	offset uint32
}

type folderState struct {
	compression CompressionType
	files       []string

	entries []fileEntry
	offset  uint32 // uncompressed bytes written to the folder so far
	pending []byte
	dict    []byte
	blocks  []dataBlock
}

func (f *folderState) write(p []byte) error {
	for len(p) > 0 {
		n := maxBlockSize - len(f.pending)
		if n > len(p) {
			n = len(p)
		}
		f.pending = append(f.pending, p[:n]...)
		p = p[n:]
		if len(f.pending) == maxBlockSize {
			if err := f.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *folderState) flush() error {
	if len(f.pending) == 0 {
		return nil
	}

	block := dataBlock{uncompressed: len(f.pending)}
	switch f.compression {
	case CompressionNone:
		block.data = append([]byte(nil), f.pending...)
	case CompressionMSZIP:
		var buf bytes.Buffer
		buf.WriteString("CK")
		fw, err := flate.NewWriterDict(&buf, flate.DefaultCompression, f.dict)
		if err != nil {
			return errors.Wrap(err, "creating deflate writer")
		}
		if _, err := fw.Write(f.pending); err != nil {
			return errors.Wrap(err, "deflating block")
		}
		if err := fw.Close(); err != nil {
			return errors.Wrap(err, "closing deflate block")
		}
		block.data = buf.Bytes()
		f.dict = append(f.dict[:0], f.pending...)
	}

	f.blocks = append(f.blocks, block)
	f.pending = f.pending[:0]
	return nil
}

// Writer receives file contents for a built layout.
type Writer struct {
	w       io.Writer
	modTime time.Time
	setID   uint16

	folders  []*folderState
	folder   int
	file     int
	current  *FileWriter
	finished bool
}

// FileWriter is the sink for one file of the cabinet.
type FileWriter struct {
	name   string
	folder *folderState
	size   uint64
}

func (fw *FileWriter) Name() string { return fw.name }

func (fw *FileWriter) Write(p []byte) (int, error) {
	if fw.size+uint64(len(p)) > 0xffffffff {
		return 0, errors.Errorf("%s is too large for a cabinet", fw.name)
	}
	if err := fw.folder.write(p); err != nil {
		return 0, err
	}
	fw.size += uint64(len(p))
	return len(p), nil
}

func (w *Writer) closeCurrent() {
	if w.current == nil {
		return
	}
	f := w.current.folder
	f.entries = append(f.entries, fileEntry{
		name:   w.current.name,
		size:   uint32(w.current.size),
		offset: f.offset,
	})
	f.offset += uint32(w.current.size)
	w.current = nil
}

// NextFile closes the previous file and returns the sink for the next
// one in layout order. It returns nil once every file has been handed
// out.
func (w *Writer) NextFile() (*FileWriter, error) {
	if w.finished {
		return nil, errors.New("cabinet already finished")
	}
	w.closeCurrent()

	for w.folder < len(w.folders) {
		f := w.folders[w.folder]
		if w.file < len(f.files) {
			w.current = &FileWriter{name: f.files[w.file], folder: f}
			w.file++
			return w.current, nil
		}
		w.folder++
		w.file = 0
	}

	return nil, nil
}

// Finish writes the cabinet. Every file of the layout must have been
// handed out by NextFile.
func (w *Writer) Finish() error {
	if w.finished {
		return errors.New("cabinet already finished")
	}
	w.closeCurrent()

	for _, f := range w.folders {
		if len(f.entries) != len(f.files) {
			return errors.Errorf("cabinet finished with %d of %d files written", len(f.entries), len(f.files))
		}
		if err := f.flush(); err != nil {
			return err
		}
	}
	w.finished = true

	return w.writeTo()
}

func (w *Writer) writeTo() error {
	dosDate, dosTime := dosDateTime(w.modTime)

	nFiles := 0
	filesSize := 0
	for _, f := range w.folders {
		for _, e := range f.entries {
			nFiles++
			filesSize += fileHeaderSize + len(e.name) + 1
		}
	}

	coffFiles := headerSize + folderSize*len(w.folders)
	dataStart := coffFiles + filesSize

	folderOffsets := make([]int, len(w.folders))
	cursor := dataStart
	for i, f := range w.folders {
		folderOffsets[i] = cursor
		for _, b := range f.blocks {
			cursor += dataHeaderSize + len(b.data)
		}
	}
	if cursor > 0x7fffffff {
		return errors.Errorf("cabinet too large: %d bytes", cursor)
	}

	var buf bytes.Buffer
	le := binary.LittleEndian

	hdr := make([]byte, headerSize)
	copy(hdr[0:4], signature[:])
	le.PutUint32(hdr[8:12], uint32(cursor))
	le.PutUint32(hdr[16:20], uint32(coffFiles))
	hdr[24] = 3 // version minor
	hdr[25] = 1 // version major
	le.PutUint16(hdr[26:28], uint16(len(w.folders)))
	le.PutUint16(hdr[28:30], uint16(nFiles))
	le.PutUint16(hdr[32:34], w.setID)
	buf.Write(hdr)

	for i, f := range w.folders {
		if len(f.blocks) > 0xffff {
			return errors.Errorf("folder %d has too many data blocks", i)
		}
		rec := make([]byte, folderSize)
		le.PutUint32(rec[0:4], uint32(folderOffsets[i]))
		le.PutUint16(rec[4:6], uint16(len(f.blocks)))
		le.PutUint16(rec[6:8], uint16(f.compression))
		buf.Write(rec)
	}

	for i, f := range w.folders {
		for _, e := range f.entries {
			attrs := uint16(attrArchive)
			if !isASCII(e.name) && utf8.ValidString(e.name) {
				attrs |= attrNameIsUTF
			}
			rec := make([]byte, fileHeaderSize)
			le.PutUint32(rec[0:4], e.size)
			le.PutUint32(rec[4:8], e.offset)
			le.PutUint16(rec[8:10], uint16(i))
			le.PutUint16(rec[10:12], dosDate)
			le.PutUint16(rec[12:14], dosTime)
			le.PutUint16(rec[14:16], attrs)
			buf.Write(rec)
			buf.WriteString(e.name)
			buf.WriteByte(0)
		}
	}

	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing cabinet header")
	}

	for _, f := range w.folders {
		for _, b := range f.blocks {
			rec := make([]byte, dataHeaderSize)
			// a zero checksum means "not computed"
			le.PutUint16(rec[4:6], uint16(len(b.data)))
			le.PutUint16(rec[6:8], uint16(b.uncompressed))
			if _, err := w.w.Write(rec); err != nil {
				return errors.Wrap(err, "writing data block header")
			}
			if _, err := w.w.Write(b.data); err != nil {
				return errors.Wrap(err, "writing data block")
			}
		}
	}

	return nil
}

func dosDateTime(t time.Time) (uint16, uint16) {
	if t.Year() < 1980 {
		t = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	date := uint16((t.Year()-1980)<<9 | int(t.Month())<<5 | t.Day())
	clock := uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)
	return date, clock
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
