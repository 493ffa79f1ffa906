package msidb

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// TableNotFoundError is returned when a table is read or written that
// was never created.
type TableNotFoundError struct {
	Table string
}

func (e TableNotFoundError) Error() string {
	return fmt.Sprintf("table %s does not exist", e.Table)
}

type TableExistsError struct {
	Table string
}

func (e TableExistsError) Error() string {
	return fmt.Sprintf("table %s already exists", e.Table)
}

type StreamNotFoundError struct {
	Stream string
}

func (e StreamNotFoundError) Error() string {
	return fmt.Sprintf("stream %s does not exist", e.Stream)
}

// SchemaMismatchError is returned when a row does not fit the table
// schema it is inserted into.
type SchemaMismatchError struct {
	Table  string
	Row    int
	Column int
	Reason string
}

func (e SchemaMismatchError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("table %s row %d: %s", e.Table, e.Row, e.Reason)
	}
	return fmt.Sprintf("table %s row %d column %d: %s", e.Table, e.Row, e.Column, e.Reason)
}

// DuplicateKeyError is returned when a row repeats the primary key of
// a row already in the table.
type DuplicateKeyError struct {
	Table string
	Key   string
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("table %s already has a row with key %s", e.Table, e.Key)
}

// IsTableNotFound unwraps err looking for a TableNotFoundError.
func IsTableNotFound(err error) bool {
	var tnf TableNotFoundError
	return errors.As(err, &tnf)
}

// ValidateSchema checks that a table definition is usable by a
// container. It deliberately does not check key ordering; that is a
// lint concern and malformed packages must remain representable.
func ValidateSchema(table string, columns []Column) error {
	if table == "" {
		return errors.New("table name is blank")
	}
	if len(columns) == 0 {
		return errors.Errorf("table %s has no columns", table)
	}

	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return errors.Errorf("table %s column %d has no name", table, i+1)
		}
		if _, ok := seen[c.Name]; ok {
			return errors.Errorf("table %s has duplicate column %s", table, c.Name)
		}
		seen[c.Name] = struct{}{}

		if c.ForeignKey != nil && c.ForeignKey.Column < 1 {
			return errors.Errorf("table %s column %s references column %d of %s", table, c.Name, c.ForeignKey.Column, c.ForeignKey.Table)
		}
	}

	return nil
}

// CheckRow validates one row against its table schema and code page.
func CheckRow(table string, columns []Column, index int, row Row, cp Codepage) error {
	if len(row) != len(columns) {
		return SchemaMismatchError{
			Table:  table,
			Row:    index,
			Column: -1,
			Reason: fmt.Sprintf("expected %d cells, got %d", len(columns), len(row)),
		}
	}

	for i, c := range columns {
		v := row[i]
		if !c.Accepts(v) {
			return SchemaMismatchError{
				Table:  table,
				Row:    index,
				Column: i,
				Reason: fmt.Sprintf("%s does not fit column %s", v, c.Describe()),
			}
		}
		if v.Kind == KindString {
			if err := cp.Check(v.Str); err != nil {
				return SchemaMismatchError{Table: table, Row: index, Column: i, Reason: err.Error()}
			}
		}
	}

	return nil
}

// PrimaryKey joins the primary key cells of row. It returns "" for
// tables without any primary key column.
func PrimaryKey(columns []Column, row Row) string {
	var parts []string
	for i, c := range columns {
		if c.IsPrimaryKey && i < len(row) {
			parts = append(parts, row[i].Key())
		}
	}
	return strings.Join(parts, "\t")
}
