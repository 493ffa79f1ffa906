package msidb

import (
	"fmt"
	"strconv"
)

// Kind tags the content of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindString
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindStream:
		return "stream"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a single untyped cell. Binary cells hold the name of the
// stream carrying the data, not the data itself.
type Value struct {
	Kind Kind   `msgpack:"k"`
	Int  int32  `msgpack:"i,omitempty"`
	Str  string `msgpack:"s,omitempty"`
}

// Row is an ordered list of cells, in schema column order.
type Row []Value

func Null() Value { return Value{Kind: KindNull} }

func Int(i int32) Value { return Value{Kind: KindInt, Int: i} }

func Str(s string) Value { return Value{Kind: KindString, Str: s} }

func StreamRef(name string) Value { return Value{Kind: KindStream, Str: name} }

// OptStr maps the empty string to null. Windows Installer does not
// distinguish the two.
func OptStr(s string) Value {
	if s == "" {
		return Null()
	}
	return Str(s)
}

func OptInt16(i *int16) Value {
	if i == nil {
		return Null()
	}
	return Int(int32(*i))
}

func OptInt32(i *int32) Value {
	if i == nil {
		return Null()
	}
	return Int(*i)
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Key renders the value for use in a composite lookup key. Unlike
// String it never quotes.
func (v Value) Key() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(int(v.Int))
	case KindString, KindStream:
		return v.Str
	}
	return ""
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.Itoa(int(v.Int))
	case KindString:
		return strconv.Quote(v.Str)
	case KindStream:
		return "[stream " + v.Str + "]"
	}
	return "?"
}
