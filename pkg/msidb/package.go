package msidb

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Select names the rows to read. Only whole-table reads are supported.
type Select struct {
	Table string
}

// StreamAborter is implemented by stream writers that can drop what was
// written instead of storing it on Close.
type StreamAborter interface {
	Abort()
}

// AbortStream discards a stream that failed half way. Writers that
// cannot abort are closed, storing what they hold.
func AbortStream(w io.WriteCloser) error {
	if a, ok := w.(StreamAborter); ok {
		a.Abort()
		return nil
	}
	return w.Close()
}

// Package is a container of named tables and streams plus the summary
// information stream.
type Package interface {
	CreateTable(name string, columns []Column) error
	HasTable(name string) bool
	Tables() ([]string, error)
	Columns(table string) ([]Column, error)
	InsertRows(table string, rows []Row) error
	SelectRows(query Select) ([]Row, error)

	WriteStream(name string) (io.WriteCloser, error)
	ReadStream(name string) (io.ReadCloser, error)
	Streams() ([]string, error)

	SummaryInfo() (SummaryInfo, error)
	SetSummaryInfo(SummaryInfo) error

	Close() error
}

// Codepage is the code page strings in the package are stored in.
type Codepage int

const (
	CodepageWindows1252 Codepage = 1252
	CodepageISO88591    Codepage = 28591
	CodepageUTF8        Codepage = 65001
)

func (c Codepage) Encoding() (encoding.Encoding, error) {
	switch c {
	case CodepageWindows1252:
		return charmap.Windows1252, nil
	case CodepageISO88591:
		return charmap.ISO8859_1, nil
	case CodepageUTF8, 0:
		return unicode.UTF8, nil
	}
	return nil, errors.Errorf("unsupported codepage %d", int(c))
}

// Check returns an error when s cannot be represented in the code page.
func (c Codepage) Check(s string) error {
	enc, err := c.Encoding()
	if err != nil {
		return err
	}
	if _, err := enc.NewEncoder().String(s); err != nil {
		return errors.Wrapf(err, "%q is not representable in codepage %d", s, int(c))
	}
	return nil
}

// SummaryInfo is the package level metadata.
type SummaryInfo struct {
	Title               string    `msgpack:"title"`
	Subject             string    `msgpack:"subject"`
	Author              string    `msgpack:"author"`
	Comments            string    `msgpack:"comments"`
	CreatingApplication string    `msgpack:"creating_application"`
	CreationTime        time.Time `msgpack:"creation_time"`
	UUID                uuid.UUID `msgpack:"uuid"`
	Codepage            Codepage  `msgpack:"codepage"`
	Arch                string    `msgpack:"arch"`
	Languages           []uint16  `msgpack:"languages"`
	WordCount           int32     `msgpack:"word_count"`
}

// Template renders the "Template" summary property, "<arch>;<lang>,...".
func (s SummaryInfo) Template() string {
	langs := make([]string, len(s.Languages))
	for i, l := range s.Languages {
		langs[i] = strconv.Itoa(int(l))
	}
	return s.Arch + ";" + strings.Join(langs, ",")
}
