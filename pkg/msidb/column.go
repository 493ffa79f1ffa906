// Package msidb describes the package container that holds installer
// tables and streams. The container is an interface so that the table
// codec and the linter never depend on how rows are physically stored.
package msidb

import "fmt"

// ColumnType is the primitive storage type of a column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt16
	TypeInt32
	TypeBinary
)

func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeBinary:
		return "binary"
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// Category is the Windows Installer column data category. It narrows
// what a string or integer column may contain.
type Category string

const (
	CategoryNone       Category = ""
	CategoryText       Category = "Text"
	CategoryIdentifier Category = "Identifier"
	CategoryFilename   Category = "Filename"
	CategoryGuid       Category = "Guid"
	CategoryCondition  Category = "Condition"
	CategoryFormatted  Category = "Formatted"
	CategoryVersion    Category = "Version"
	CategoryLanguage   Category = "Language"
	CategoryRegPath    Category = "RegPath"
	CategoryDefaultDir Category = "DefaultDir"
	CategoryCabinet    Category = "Cabinet"
	CategoryBinary     Category = "Binary"
)

// ForeignKey points at a column of another table. Column is 1-based,
// the way the _Validation table numbers them.
type ForeignKey struct {
	Table  string
	Column int
}

// Column is one entry of a table schema.
type Column struct {
	Name         string
	Type         ColumnType
	Size         int // maximum string length, 0 for unbounded
	IsNullable   bool
	IsPrimaryKey bool
	Category     Category
	ForeignKey   *ForeignKey
}

// Col starts a column definition. Without further qualification the
// column is an unbounded, non-null string.
func Col(name string) Column {
	return Column{Name: name, Type: TypeString}
}

// ID makes the column an identifier string of at most size characters.
func (c Column) ID(size int) Column {
	c.Type = TypeString
	c.Size = size
	c.Category = CategoryIdentifier
	return c
}

// Str makes the column a string of at most size characters.
func (c Column) Str(size int) Column {
	c.Type = TypeString
	c.Size = size
	return c
}

// Text makes the column an unbounded text string.
func (c Column) Text() Column {
	c.Type = TypeString
	c.Size = 0
	c.Category = CategoryText
	return c
}

func (c Column) Int16() Column {
	c.Type = TypeInt16
	c.Size = 2
	return c
}

func (c Column) Int32() Column {
	c.Type = TypeInt32
	c.Size = 4
	return c
}

func (c Column) Binary() Column {
	c.Type = TypeBinary
	c.Size = 0
	c.Category = CategoryBinary
	return c
}

func (c Column) Nullable() Column {
	c.IsNullable = true
	return c
}

func (c Column) PrimaryKey() Column {
	c.IsPrimaryKey = true
	return c
}

func (c Column) WithCategory(cat Category) Column {
	c.Category = cat
	return c
}

// References declares a foreign key into table at the 1-based column.
func (c Column) References(table string, column int) Column {
	c.ForeignKey = &ForeignKey{Table: table, Column: column}
	return c
}

// Accepts reports whether v may be stored in this column.
func (c Column) Accepts(v Value) bool {
	switch v.Kind {
	case KindNull:
		return c.IsNullable
	case KindInt:
		switch c.Type {
		case TypeInt16:
			return v.Int >= -32768 && v.Int <= 32767
		case TypeInt32:
			return true
		}
		return false
	case KindString:
		if c.Type != TypeString {
			return false
		}
		if c.Size > 0 && len([]rune(v.Str)) > c.Size {
			return false
		}
		return true
	case KindStream:
		return c.Type == TypeBinary
	}
	return false
}

// Describe renders the column the way the describe command prints it,
// for example "Directory_ id72 -> Directory.1".
func (c Column) Describe() string {
	s := c.Name
	if c.IsPrimaryKey {
		s += "*"
	}
	if c.IsNullable {
		s += "?"
	}

	switch c.Type {
	case TypeString:
		if c.Category == CategoryIdentifier {
			s += fmt.Sprintf(" id%d", c.Size)
		} else if c.Size > 0 {
			s += fmt.Sprintf(" str%d", c.Size)
		} else {
			s += " text"
		}
	default:
		s += " " + c.Type.String()
	}

	if c.Category != CategoryNone && c.Category != CategoryIdentifier {
		s += " (" + string(c.Category) + ")"
	}

	if c.ForeignKey != nil {
		s += fmt.Sprintf(" -> %s.%d", c.ForeignKey.Table, c.ForeignKey.Column)
	}

	return s
}
