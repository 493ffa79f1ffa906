package msibbolt

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"time"

	"github.com/kolide/livraison/pkg/msidb"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// File layout:
//
//	meta/summary            msgpack SummaryInfo
//	meta/codepage           big endian uint32
//	tables/<name>/schema    msgpack []msidb.Column
//	tables/<name>/rows/<n>  msgpack msidb.Row, n is a big endian sequence
//	tables/<name>/keys/<k>  primary key index, value is the row sequence
//	streams/<name>          raw stream bytes
var (
	metaBucket    = []byte("meta")
	tablesBucket  = []byte("tables")
	streamsBucket = []byte("streams")

	rowsBucket = []byte("rows")
	keysBucket = []byte("keys")

	summaryKey  = []byte("summary")
	codepageKey = []byte("codepage")
	schemaKey   = []byte("schema")
)

// NoDbError is returned when a method is called on a closed package.
type NoDbError struct{}

func (e NoDbError) Error() string {
	return "bbolt db is nil"
}

// Package is a msidb.Package persisted in a single bbolt file.
type Package struct {
	db       *bbolt.DB
	codepage msidb.Codepage
}

// Create makes a new, empty package at path, replacing whatever was
// there.
func Create(path string, codepage msidb.Codepage) (*Package, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "removing existing %s", path)
	}

	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "creating package %s", path)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{metaBucket, tablesBucket, streamsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "creating bucket %s", name)
			}
		}

		cp := make([]byte, 4)
		binary.BigEndian.PutUint32(cp, uint32(codepage))
		if err := tx.Bucket(metaBucket).Put(codepageKey, cp); err != nil {
			return err
		}

		summary, err := msgpack.Marshal(msidb.SummaryInfo{Codepage: codepage})
		if err != nil {
			return errors.Wrap(err, "encoding summary info")
		}
		return tx.Bucket(metaBucket).Put(summaryKey, summary)
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Package{db: db, codepage: codepage}, nil
}

// Open opens an existing package. The file is opened read only unless
// writable is set.
func Open(path string, writable bool) (*Package, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "opening package %s", path)
	}

	opts := &bbolt.Options{Timeout: time.Second, ReadOnly: !writable}
	db, err := bbolt.Open(path, 0644, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening package %s", path)
	}

	p := &Package{db: db}
	if err := db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil || tx.Bucket(tablesBucket) == nil || tx.Bucket(streamsBucket) == nil {
			return errors.Errorf("%s is not a package file", path)
		}
		if cp := meta.Get(codepageKey); len(cp) == 4 {
			p.codepage = msidb.Codepage(binary.BigEndian.Uint32(cp))
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return p, nil
}

func (p *Package) Path() string {
	if p == nil || p.db == nil {
		return ""
	}
	return p.db.Path()
}

func (p *Package) CreateTable(name string, columns []msidb.Column) error {
	if p == nil || p.db == nil {
		return NoDbError{}
	}
	if err := msidb.ValidateSchema(name, columns); err != nil {
		return err
	}

	schema, err := msgpack.Marshal(columns)
	if err != nil {
		return errors.Wrapf(err, "encoding schema of %s", name)
	}

	return p.db.Update(func(tx *bbolt.Tx) error {
		tables := tx.Bucket(tablesBucket)
		if tables.Bucket([]byte(name)) != nil {
			return msidb.TableExistsError{Table: name}
		}

		tb, err := tables.CreateBucket([]byte(name))
		if err != nil {
			return errors.Wrapf(err, "creating table %s", name)
		}
		if _, err := tb.CreateBucket(rowsBucket); err != nil {
			return err
		}
		if _, err := tb.CreateBucket(keysBucket); err != nil {
			return err
		}
		return tb.Put(schemaKey, schema)
	})
}

func (p *Package) HasTable(name string) bool {
	if p == nil || p.db == nil {
		return false
	}

	found := false
	_ = p.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(tablesBucket).Bucket([]byte(name)) != nil
		return nil
	})
	return found
}

// Tables lists table names in key order, which bbolt keeps sorted.
func (p *Package) Tables() ([]string, error) {
	if p == nil || p.db == nil {
		return nil, NoDbError{}
	}

	var names []string
	err := p.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(tablesBucket).ForEach(func(k, v []byte) error {
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	return names, err
}

func tableSchema(tb *bbolt.Bucket, name string) ([]msidb.Column, error) {
	var columns []msidb.Column
	if err := msgpack.Unmarshal(tb.Get(schemaKey), &columns); err != nil {
		return nil, errors.Wrapf(err, "decoding schema of %s", name)
	}
	return columns, nil
}

func (p *Package) Columns(name string) ([]msidb.Column, error) {
	if p == nil || p.db == nil {
		return nil, NoDbError{}
	}

	var columns []msidb.Column
	err := p.db.View(func(tx *bbolt.Tx) error {
		tb := tx.Bucket(tablesBucket).Bucket([]byte(name))
		if tb == nil {
			return msidb.TableNotFoundError{Table: name}
		}
		var err error
		columns, err = tableSchema(tb, name)
		return err
	})
	return columns, err
}

// InsertRows runs in one transaction, a rejected row rolls back the
// whole batch.
func (p *Package) InsertRows(name string, rows []msidb.Row) error {
	if p == nil || p.db == nil {
		return NoDbError{}
	}

	return p.db.Update(func(tx *bbolt.Tx) error {
		tb := tx.Bucket(tablesBucket).Bucket([]byte(name))
		if tb == nil {
			return msidb.TableNotFoundError{Table: name}
		}
		columns, err := tableSchema(tb, name)
		if err != nil {
			return err
		}

		rb := tb.Bucket(rowsBucket)
		kb := tb.Bucket(keysBucket)
		existing := int(rb.Sequence())

		for i, row := range rows {
			if err := msidb.CheckRow(name, columns, existing+i, row, p.codepage); err != nil {
				return err
			}

			seq, err := rb.NextSequence()
			if err != nil {
				return errors.Wrapf(err, "next sequence for %s", name)
			}
			id := make([]byte, 8)
			binary.BigEndian.PutUint64(id, seq)

			if key := msidb.PrimaryKey(columns, row); key != "" {
				if kb.Get([]byte(key)) != nil {
					return msidb.DuplicateKeyError{Table: name, Key: key}
				}
				if err := kb.Put([]byte(key), id); err != nil {
					return err
				}
			}

			data, err := msgpack.Marshal(row)
			if err != nil {
				return errors.Wrapf(err, "encoding row %d of %s", existing+i, name)
			}
			if err := rb.Put(id, data); err != nil {
				return errors.Wrapf(err, "storing row %d of %s", existing+i, name)
			}
		}
		return nil
	})
}

func (p *Package) SelectRows(query msidb.Select) ([]msidb.Row, error) {
	if p == nil || p.db == nil {
		return nil, NoDbError{}
	}

	var rows []msidb.Row
	err := p.db.View(func(tx *bbolt.Tx) error {
		tb := tx.Bucket(tablesBucket).Bucket([]byte(query.Table))
		if tb == nil {
			return msidb.TableNotFoundError{Table: query.Table}
		}

		return tb.Bucket(rowsBucket).ForEach(func(k, v []byte) error {
			var row msidb.Row
			if err := msgpack.Unmarshal(v, &row); err != nil {
				return errors.Wrapf(err, "decoding row %d of %s", binary.BigEndian.Uint64(k), query.Table)
			}
			rows = append(rows, row)
			return nil
		})
	})
	return rows, err
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

	return w.p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(streamsBucket).Put([]byte(w.name), w.Bytes())
	})
}

// Abort drops the buffered stream; a later Close stores nothing.
func (w *streamWriter) Abort() {
	w.closed = true
	w.Reset()
}

// WriteStream returns a writer that stores the stream when closed.
func (p *Package) WriteStream(name string) (io.WriteCloser, error) {
	if p == nil || p.db == nil {
		return nil, NoDbError{}
	}
	if name == "" {
		return nil, errors.New("stream name is blank")
	}
	return &streamWriter{name: name, p: p}, nil
}

func (p *Package) ReadStream(name string) (io.ReadCloser, error) {
	if p == nil || p.db == nil {
		return nil, NoDbError{}
	}

	var data []byte
	err := p.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(streamsBucket).Get([]byte(name))
		if v == nil {
			return msidb.StreamNotFoundError{Stream: name}
		}
		// bbolt memory is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (p *Package) Streams() ([]string, error) {
	if p == nil || p.db == nil {
		return nil, NoDbError{}
	}

	var names []string
	err := p.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(streamsBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

func (p *Package) SummaryInfo() (msidb.SummaryInfo, error) {
	var info msidb.SummaryInfo
	if p == nil || p.db == nil {
		return info, NoDbError{}
	}

	err := p.db.View(func(tx *bbolt.Tx) error {
		return msgpack.Unmarshal(tx.Bucket(metaBucket).Get(summaryKey), &info)
	})
	return info, errors.Wrap(err, "decoding summary info")
}

func (p *Package) SetSummaryInfo(info msidb.SummaryInfo) error {
	if p == nil || p.db == nil {
		return NoDbError{}
	}
	if info.Codepage == 0 {
		info.Codepage = p.codepage
	}

	data, err := msgpack.Marshal(info)
	if err != nil {
		return errors.Wrap(err, "encoding summary info")
	}
	return p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).Put(summaryKey, data)
	})
}

func (p *Package) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
