// Package tables maps installer records to and from the rows of a
// msidb.Package. It guarantees row level structure only; references
// between rows and tables are checked by the lint package.
package tables

import (
	"github.com/kolide/livraison/pkg/msidb"
	"github.com/pkg/errors"
)

// Entity is a record of one installer table.
type Entity interface {
	TableName() string
	Definition() []msidb.Column
	ToRow() msidb.Row
}

// Decoder builds a record from one row.
type Decoder[T Entity] func(RowView) (T, error)

// CreateTable creates the table backing T.
func CreateTable[T Entity](pkg msidb.Package) error {
	var zero T
	if err := pkg.CreateTable(zero.TableName(), zero.Definition()); err != nil {
		return errors.Wrapf(err, "creating table %s", zero.TableName())
	}
	return nil
}

// Insert writes records in declaration column order.
func Insert[T Entity](pkg msidb.Package, records []T) error {
	if len(records) == 0 {
		return nil
	}

	var zero T
	rows := make([]msidb.Row, len(records))
	for i, r := range records {
		rows[i] = r.ToRow()
	}

	if err := pkg.InsertRows(zero.TableName(), rows); err != nil {
		return errors.Wrapf(err, "inserting into %s", zero.TableName())
	}
	return nil
}

// CreateAndInsert creates the table for T and fills it.
func CreateAndInsert[T Entity](pkg msidb.Package, records []T) error {
	if err := CreateTable[T](pkg); err != nil {
		return err
	}
	return Insert(pkg, records)
}

// List reads every row of the table backing T. A missing table is a
// MissingTableError, a malformed cell stops the read with a
// CellInvalidTypeError.
func List[T Entity](pkg msidb.Package, decode Decoder[T]) ([]T, error) {
	var zero T
	name := zero.TableName()
	columns := zero.Definition()

	rows, err := pkg.SelectRows(msidb.Select{Table: name})
	if err != nil {
		if msidb.IsTableNotFound(err) {
			return nil, MissingTableError{Table: name}
		}
		return nil, errors.Wrapf(err, "selecting rows of %s", name)
	}

	records := make([]T, 0, len(rows))
	for i, row := range rows {
		view, err := NewRowView(name, i, columns, row)
		if err != nil {
			return nil, err
		}
		rec, err := decode(view)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}
