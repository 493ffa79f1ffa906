package inmemory

import (
	"bytes"
	"io"
	"sync"

	"github.com/kolide/livraison/pkg/msidb"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type table struct {
	columns []msidb.Column
	rows    []msidb.Row
	keys    map[string]struct{}
}

// Package is a msidb.Package held entirely in memory. It is used for
// dry runs and tests, and for linting a package before it is written.
type Package struct {
	mu       sync.RWMutex
	codepage msidb.Codepage
	tables   map[string]*table
	streams  map[string][]byte
	summary  msidb.SummaryInfo
	closed   bool
}

func NewPackage(codepage msidb.Codepage) *Package {
	return &Package{
		codepage: codepage,
		tables:   make(map[string]*table),
		streams:  make(map[string][]byte),
		summary:  msidb.SummaryInfo{Codepage: codepage},
	}
}

func (p *Package) CreateTable(name string, columns []msidb.Column) error {
	if err := msidb.ValidateSchema(name, columns); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("package is closed")
	}
	if _, ok := p.tables[name]; ok {
		return msidb.TableExistsError{Table: name}
	}

	p.tables[name] = &table{
		columns: append([]msidb.Column(nil), columns...),
		keys:    make(map[string]struct{}),
	}
	return nil
}

func (p *Package) HasTable(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.tables[name]
	return ok
}

func (p *Package) Tables() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := maps.Keys(p.tables)
	slices.Sort(names)
	return names, nil
}

func (p *Package) Columns(name string) ([]msidb.Column, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.tables[name]
	if !ok {
		return nil, msidb.TableNotFoundError{Table: name}
	}
	return append([]msidb.Column(nil), t.columns...), nil
}

// InsertRows is all or nothing: if any row is rejected, none are added.
func (p *Package) InsertRows(name string, rows []msidb.Row) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tables[name]
	if !ok {
		return msidb.TableNotFoundError{Table: name}
	}

	pending := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		if err := msidb.CheckRow(name, t.columns, len(t.rows)+i, row, p.codepage); err != nil {
			return err
		}
		key := msidb.PrimaryKey(t.columns, row)
		if key == "" {
			continue
		}
		_, existing := t.keys[key]
		_, batch := pending[key]
		if existing || batch {
			return msidb.DuplicateKeyError{Table: name, Key: key}
		}
		pending[key] = struct{}{}
	}

	for _, row := range rows {
		t.rows = append(t.rows, append(msidb.Row(nil), row...))
	}
	for k := range pending {
		t.keys[k] = struct{}{}
	}

	return nil
}

func (p *Package) SelectRows(query msidb.Select) ([]msidb.Row, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.tables[query.Table]
	if !ok {
		return nil, msidb.TableNotFoundError{Table: query.Table}
	}

	rows := make([]msidb.Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append(msidb.Row(nil), r...)
	}
	return rows, nil
}

type streamWriter struct {
	bytes.Buffer
	name   string
	p      *Package
	closed bool
}

func (w *streamWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	w.p.streams[w.name] = append([]byte(nil), w.Bytes()...)
	return nil
}

// Abort drops the buffered stream; a later Close stores nothing.
func (w *streamWriter) Abort() {
	w.closed = true
	w.Reset()
}

// WriteStream buffers the stream, it becomes visible on Close.
func (p *Package) WriteStream(name string) (io.WriteCloser, error) {
	if name == "" {
		return nil, errors.New("stream name is blank")
	}
	return &streamWriter{name: name, p: p}, nil
}

func (p *Package) ReadStream(name string) (io.ReadCloser, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, ok := p.streams[name]
	if !ok {
		return nil, msidb.StreamNotFoundError{Stream: name}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (p *Package) Streams() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := maps.Keys(p.streams)
	slices.Sort(names)
	return names, nil
}

func (p *Package) SummaryInfo() (msidb.SummaryInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary, nil
}

func (p *Package) SetSummaryInfo(info msidb.SummaryInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if info.Codepage == 0 {
		info.Codepage = p.codepage
	}
	p.summary = info
	return nil
}

func (p *Package) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
