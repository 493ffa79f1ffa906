package tables

import "fmt"

type MissingTableError struct {
	Table string
}

func (e MissingTableError) Error() string {
	return fmt.Sprintf("Table '%s' is missing in package", e.Table)
}

// CellInvalidTypeError locates a cell whose content does not match the
// column it was read from.
type CellInvalidTypeError struct {
	Table        string
	Row          int
	Column       int
	ExpectedType string
	Value        string
}

func (e CellInvalidTypeError) Error() string {
	return fmt.Sprintf("Table '%s' cell %d:%d is not of the expected type: %s, value: %s",
		e.Table, e.Row, e.Column, e.ExpectedType, e.Value)
}

type RowLengthError struct {
	Table    string
	Row      int
	Expected int
	Actual   int
}

func (e RowLengthError) Error() string {
	return fmt.Sprintf("Table '%s' row %d has %d cells, expected %d", e.Table, e.Row, e.Actual, e.Expected)
}

type InvalidGUIDError struct {
	Table  string
	Row    int
	Column int
	Value  string
}

func (e InvalidGUIDError) Error() string {
	return fmt.Sprintf("Table '%s' cell %d:%d is not a valid GUID: %s", e.Table, e.Row, e.Column, e.Value)
}

type InvalidRegistryRootError struct {
	Root int16
}

func (e InvalidRegistryRootError) Error() string {
	return fmt.Sprintf("invalid registry root %d", e.Root)
}
