package tables

import "github.com/google/uuid"

// cells wraps a RowView and keeps the first error, so decoders can
// read every column and check once at the end.
type cells struct {
	view RowView
	err  error
}

func (c *cells) str(i int) string {
	if c.err != nil {
		return ""
	}
	s, err := c.view.String(i)
	c.err = err
	return s
}

func (c *cells) optStr(i int) string {
	if c.err != nil {
		return ""
	}
	s, err := c.view.OptString(i)
	c.err = err
	return s
}

func (c *cells) i16(i int) int16 {
	if c.err != nil {
		return 0
	}
	n, err := c.view.Int16(i)
	c.err = err
	return n
}

func (c *cells) i32(i int) int32 {
	if c.err != nil {
		return 0
	}
	n, err := c.view.Int32(i)
	c.err = err
	return n
}

func (c *cells) optI16(i int) *int16 {
	if c.err != nil {
		return nil
	}
	n, err := c.view.OptInt16(i)
	c.err = err
	return n
}

func (c *cells) optI32(i int) *int32 {
	if c.err != nil {
		return nil
	}
	n, err := c.view.OptInt32(i)
	c.err = err
	return n
}

func (c *cells) stream(i int) string {
	if c.err != nil {
		return ""
	}
	s, err := c.view.Stream(i)
	c.err = err
	return s
}

func (c *cells) optUUID(i int) *uuid.UUID {
	if c.err != nil {
		return nil
	}
	id, err := c.view.OptUUID(i)
	c.err = err
	return id
}

// Int16Ptr and Int32Ptr help fill nullable integer columns.
func Int16Ptr(n int16) *int16 { return &n }

func Int32Ptr(n int32) *int32 { return &n }
