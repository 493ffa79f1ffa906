package tables

import "github.com/kolide/livraison/pkg/msidb"

type DialogStyle int32

const (
	DialogVisible          DialogStyle = 1
	DialogModal            DialogStyle = 2
	DialogMinimize         DialogStyle = 4
	DialogSysModal         DialogStyle = 8
	DialogKeepModeless     DialogStyle = 16
	DialogTrackDiskSpace   DialogStyle = 32
	DialogUseCustomPalette DialogStyle = 64
	DialogRTLRO            DialogStyle = 128
	DialogRightAligned     DialogStyle = 256
	DialogLeftScroll       DialogStyle = 512
	DialogError            DialogStyle = 65536
)

// Dialog is a wizard screen. ControlFirst, ControlDefault and
// ControlCancel name controls of the same dialog.
type Dialog struct {
	Dialog         string
	HCentering     int16
	VCentering     int16
	Width          int16
	Height         int16
	Attributes     *DialogStyle
	Title          string
	ControlFirst   string
	ControlDefault string
	ControlCancel  string
}

func (Dialog) TableName() string { return "Dialog" }

func (Dialog) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Dialog").ID(72).PrimaryKey(),
		msidb.Col("HCentering").Int16(),
		msidb.Col("VCentering").Int16(),
		msidb.Col("Width").Int16(),
		msidb.Col("Height").Int16(),
		msidb.Col("Attributes").Int32().Nullable(),
		msidb.Col("Title").Str(128).Nullable().WithCategory(msidb.CategoryFormatted),
		msidb.Col("Control_First").ID(50),
		msidb.Col("Control_Default").ID(50).Nullable(),
		msidb.Col("Control_Cancel").ID(50).Nullable(),
	}
}

func (d Dialog) ToRow() msidb.Row {
	attrs := msidb.Null()
	if d.Attributes != nil {
		attrs = msidb.Int(int32(*d.Attributes))
	}
	return msidb.Row{
		msidb.Str(d.Dialog),
		msidb.Int(int32(d.HCentering)),
		msidb.Int(int32(d.VCentering)),
		msidb.Int(int32(d.Width)),
		msidb.Int(int32(d.Height)),
		attrs,
		msidb.OptStr(d.Title),
		msidb.Str(d.ControlFirst),
		msidb.OptStr(d.ControlDefault),
		msidb.OptStr(d.ControlCancel),
	}
}

func DialogFromRow(r RowView) (Dialog, error) {
	c := cells{view: r}
	rec := Dialog{
		Dialog:         c.str(0),
		HCentering:     c.i16(1),
		VCentering:     c.i16(2),
		Width:          c.i16(3),
		Height:         c.i16(4),
		Title:          c.optStr(6),
		ControlFirst:   c.str(7),
		ControlDefault: c.optStr(8),
		ControlCancel:  c.optStr(9),
	}
	if a := c.optI32(5); a != nil {
		style := DialogStyle(*a)
		rec.Attributes = &style
	}
	return rec, c.err
}

type ControlAttributes int32

const (
	ControlVisible       ControlAttributes = 1
	ControlEnabled       ControlAttributes = 2
	ControlSunken        ControlAttributes = 4
	ControlIndirect      ControlAttributes = 8
	ControlInteger       ControlAttributes = 16
	ControlRTLRO         ControlAttributes = 32
	ControlRightAligned  ControlAttributes = 64
	ControlLeftScroll    ControlAttributes = 128
	ControlTransparent   ControlAttributes = 0x10000
	ControlNoPrefix      ControlAttributes = 0x20000
	ControlNoWrap        ControlAttributes = 0x40000
	ControlFormatSize    ControlAttributes = 0x80000
	ControlUsersLanguage ControlAttributes = 0x100000
	// shares its bit with Transparent, it only applies to progress bars
	ControlProgress95 ControlAttributes = 0x10000
)

// Control is one widget placed on a dialog.
type Control struct {
	Dialog      string
	Control     string
	Type        string
	X           int16
	Y           int16
	Width       int16
	Height      int16
	Attributes  *ControlAttributes
	Property    string
	Text        string
	ControlNext string
	Help        string
}

func (Control) TableName() string { return "Control" }

func (Control) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Dialog_").ID(72).PrimaryKey().References("Dialog", 1),
		msidb.Col("Control").ID(50).PrimaryKey(),
		msidb.Col("Type").ID(20),
		msidb.Col("X").Int16(),
		msidb.Col("Y").Int16(),
		msidb.Col("Width").Int16(),
		msidb.Col("Height").Int16(),
		msidb.Col("Attributes").Int32().Nullable(),
		msidb.Col("Property").ID(50).Nullable(),
		msidb.Col("Text").Text().Nullable().WithCategory(msidb.CategoryFormatted),
		msidb.Col("Control_Next").ID(50).Nullable(),
		msidb.Col("Help").Str(50).Nullable().WithCategory(msidb.CategoryText),
	}
}

func (c Control) ToRow() msidb.Row {
	attrs := msidb.Null()
	if c.Attributes != nil {
		attrs = msidb.Int(int32(*c.Attributes))
	}
	return msidb.Row{
		msidb.Str(c.Dialog),
		msidb.Str(c.Control),
		msidb.Str(c.Type),
		msidb.Int(int32(c.X)),
		msidb.Int(int32(c.Y)),
		msidb.Int(int32(c.Width)),
		msidb.Int(int32(c.Height)),
		attrs,
		msidb.OptStr(c.Property),
		msidb.OptStr(c.Text),
		msidb.OptStr(c.ControlNext),
		msidb.OptStr(c.Help),
	}
}

func ControlFromRow(r RowView) (Control, error) {
	c := cells{view: r}
	rec := Control{
		Dialog:      c.str(0),
		Control:     c.str(1),
		Type:        c.str(2),
		X:           c.i16(3),
		Y:           c.i16(4),
		Width:       c.i16(5),
		Height:      c.i16(6),
		Property:    c.optStr(8),
		Text:        c.optStr(9),
		ControlNext: c.optStr(10),
		Help:        c.optStr(11),
	}
	if a := c.optI32(7); a != nil {
		attrs := ControlAttributes(*a)
		rec.Attributes = &attrs
	}
	return rec, c.err
}

// ControlEvent is an event published when a control is activated.
type ControlEvent struct {
	Dialog    string
	Control   string
	Event     string
	Argument  string
	Condition string
	Ordering  *int16
}

func (ControlEvent) TableName() string { return "ControlEvent" }

func (ControlEvent) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Dialog_").ID(72).PrimaryKey().References("Dialog", 1),
		msidb.Col("Control_").ID(50).PrimaryKey().References("Control", 2),
		msidb.Col("Event").Str(50).PrimaryKey().WithCategory(msidb.CategoryFormatted),
		msidb.Col("Argument").Str(255).PrimaryKey().WithCategory(msidb.CategoryFormatted),
		msidb.Col("Condition").Str(255).PrimaryKey().Nullable().WithCategory(msidb.CategoryCondition),
		msidb.Col("Ordering").Int16().Nullable(),
	}
}

func (e ControlEvent) ToRow() msidb.Row {
	return msidb.Row{
		msidb.Str(e.Dialog),
		msidb.Str(e.Control),
		msidb.Str(e.Event),
		msidb.Str(e.Argument),
		msidb.OptStr(e.Condition),
		msidb.OptInt16(e.Ordering),
	}
}

func ControlEventFromRow(r RowView) (ControlEvent, error) {
	c := cells{view: r}
	rec := ControlEvent{
		Dialog:    c.str(0),
		Control:   c.str(1),
		Event:     c.str(2),
		Argument:  c.str(3),
		Condition: c.optStr(4),
		Ordering:  c.optI16(5),
	}
	return rec, c.err
}

// EventMapping subscribes a control attribute to a dialog event.
type EventMapping struct {
	Dialog    string
	Control   string
	Event     string
	Attribute string
}

func (EventMapping) TableName() string { return "EventMapping" }

func (EventMapping) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Dialog_").ID(72).PrimaryKey().References("Dialog", 1),
		msidb.Col("Control_").ID(50).PrimaryKey().References("Control", 2),
		msidb.Col("Event").ID(50).PrimaryKey(),
		msidb.Col("Attribute").ID(50),
	}
}

func (e EventMapping) ToRow() msidb.Row {
	return msidb.Row{msidb.Str(e.Dialog), msidb.Str(e.Control), msidb.Str(e.Event), msidb.Str(e.Attribute)}
}

func EventMappingFromRow(r RowView) (EventMapping, error) {
	c := cells{view: r}
	rec := EventMapping{Dialog: c.str(0), Control: c.str(1), Event: c.str(2), Attribute: c.str(3)}
	return rec, c.err
}

type TextStyleBits int16

const (
	TextStyleBold      TextStyleBits = 1
	TextStyleItalic    TextStyleBits = 2
	TextStyleUnderline TextStyleBits = 4
	TextStyleStrike    TextStyleBits = 8
)

// TextStyle is a named font referenced from control text as {\Name}.
type TextStyle struct {
	TextStyle string
	FaceName  string
	Size      int16
	Color     *int32
	StyleBits *TextStyleBits
}

func (TextStyle) TableName() string { return "TextStyle" }

func (TextStyle) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("TextStyle").ID(72).PrimaryKey(),
		msidb.Col("FaceName").Str(32).WithCategory(msidb.CategoryText),
		msidb.Col("Size").Int16(),
		msidb.Col("Color").Int32().Nullable(),
		msidb.Col("StyleBits").Int16().Nullable(),
	}
}

func (t TextStyle) ToRow() msidb.Row {
	bits := msidb.Null()
	if t.StyleBits != nil {
		bits = msidb.Int(int32(*t.StyleBits))
	}
	return msidb.Row{
		msidb.Str(t.TextStyle),
		msidb.Str(t.FaceName),
		msidb.Int(int32(t.Size)),
		msidb.OptInt32(t.Color),
		bits,
	}
}

func TextStyleFromRow(r RowView) (TextStyle, error) {
	c := cells{view: r}
	rec := TextStyle{
		TextStyle: c.str(0),
		FaceName:  c.str(1),
		Size:      c.i16(2),
		Color:     c.optI32(3),
	}
	if b := c.optI16(4); b != nil {
		bits := TextStyleBits(*b)
		rec.StyleBits = &bits
	}
	return rec, c.err
}
