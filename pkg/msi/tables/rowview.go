package tables

import (
	"strings"

	"github.com/google/uuid"
	"github.com/kolide/livraison/pkg/msidb"
)

// RowView gives typed access to the cells of one row.
type RowView struct {
	table   string
	row     int
	columns []msidb.Column
	values  msidb.Row
}

func NewRowView(table string, row int, columns []msidb.Column, values msidb.Row) (RowView, error) {
	if len(values) != len(columns) {
		return RowView{}, RowLengthError{Table: table, Row: row, Expected: len(columns), Actual: len(values)}
	}
	return RowView{table: table, row: row, columns: columns, values: values}, nil
}

func (r RowView) invalid(i int, expected string) error {
	return CellInvalidTypeError{
		Table:        r.table,
		Row:          r.row,
		Column:       i,
		ExpectedType: expected,
		Value:        r.values[i].String(),
	}
}

func (r RowView) String(i int) (string, error) {
	v := r.values[i]
	if v.Kind != msidb.KindString {
		return "", r.invalid(i, "string")
	}
	return v.Str, nil
}

// OptString returns "" for a null cell.
func (r RowView) OptString(i int) (string, error) {
	v := r.values[i]
	switch v.Kind {
	case msidb.KindNull:
		return "", nil
	case msidb.KindString:
		return v.Str, nil
	}
	return "", r.invalid(i, "nullable string")
}

func (r RowView) Int32(i int) (int32, error) {
	v := r.values[i]
	if v.Kind != msidb.KindInt {
		return 0, r.invalid(i, "int32")
	}
	return v.Int, nil
}

func (r RowView) Int16(i int) (int16, error) {
	v := r.values[i]
	if v.Kind != msidb.KindInt || v.Int < -32768 || v.Int > 32767 {
		return 0, r.invalid(i, "int16")
	}
	return int16(v.Int), nil
}

func (r RowView) OptInt32(i int) (*int32, error) {
	v := r.values[i]
	switch v.Kind {
	case msidb.KindNull:
		return nil, nil
	case msidb.KindInt:
		n := v.Int
		return &n, nil
	}
	return nil, r.invalid(i, "nullable int32")
}

func (r RowView) OptInt16(i int) (*int16, error) {
	v := r.values[i]
	switch v.Kind {
	case msidb.KindNull:
		return nil, nil
	case msidb.KindInt:
		if v.Int < -32768 || v.Int > 32767 {
			break
		}
		n := int16(v.Int)
		return &n, nil
	}
	return nil, r.invalid(i, "nullable int16")
}

// Stream returns the stream name held by a binary cell.
func (r RowView) Stream(i int) (string, error) {
	v := r.values[i]
	if v.Kind != msidb.KindStream {
		return "", r.invalid(i, "binary")
	}
	return v.Str, nil
}

// OptUUID reads a brace wrapped GUID such as
// {3941A426-8F68-469A-A7C5-99944D6067D8}.
func (r RowView) OptUUID(i int) (*uuid.UUID, error) {
	s, err := r.OptString(i)
	if err != nil {
		return nil, r.invalid(i, "nullable guid")
	}
	if s == "" {
		return nil, nil
	}

	id, err := ParseGUID(s)
	if err != nil {
		return nil, InvalidGUIDError{Table: r.table, Row: r.row, Column: i, Value: s}
	}
	return &id, nil
}

// FormatGUID renders id the way Windows Installer stores GUIDs.
func FormatGUID(id uuid.UUID) string {
	return "{" + strings.ToUpper(id.String()) + "}"
}

// ParseGUID is the inverse of FormatGUID. Braces are required.
func ParseGUID(s string) (uuid.UUID, error) {
	if len(s) != 38 || s[0] != '{' || s[37] != '}' {
		return uuid.Nil, InvalidGUIDError{Value: s}
	}
	return uuid.Parse(s[1:37])
}
