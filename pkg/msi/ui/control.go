package ui

import (
	"fmt"

	"github.com/kolide/livraison/pkg/msi/tables"
)

// Kind is the closed set of control variants the builder knows.
type Kind int

const (
	KindButton Kind = iota
	KindText
	KindLine
	KindBitmap
	KindProgressBar
)

// TypeName is the control type stored in the Control table.
func (k Kind) TypeName() string {
	switch k {
	case KindButton:
		return "PushButton"
	case KindText:
		return "Text"
	case KindLine:
		return "Line"
	case KindBitmap:
		return "Bitmap"
	case KindProgressBar:
		return "ProgressBar"
	}
	panic(fmt.Sprintf("unknown control kind %d", int(k)))
}

func (k Kind) String() string { return k.TypeName() }

// Event is published when a control is activated.
type Event struct {
	Name     string
	Argument string
}

func NewDialogEvent(dialog string) Event {
	return Event{Name: "NewDialog", Argument: dialog}
}

func SpawnDialogEvent(dialog string) Event {
	return Event{Name: "SpawnDialog", Argument: dialog}
}

type EndDialogAction string

const (
	Exit   EndDialogAction = "Exit"
	Retry  EndDialogAction = "Retry"
	Ignore EndDialogAction = "Ignore"
	Return EndDialogAction = "Return"
)

func EndDialogEvent(action EndDialogAction) Event {
	return Event{Name: "EndDialog", Argument: string(action)}
}

// SetPropertyEvent sets an installer property, "[NAME]" is how the
// ControlEvent table spells a property assignment.
func SetPropertyEvent(property, value string) Event {
	return Event{Name: "[" + property + "]", Argument: value}
}

// Control is one widget. Build a Control with the constructors below
// and refine it with the chainable modifiers; each modifier returns a
// copy.
type Control struct {
	Kind       Kind
	ID         string
	X, Y       int16
	Width      int16
	Height     int16
	Attributes tables.ControlAttributes
	Text       string
	Property   string
	Help       string

	events []Event
	listen string
}

const (
	buttonWidth  = 56
	buttonHeight = 17
)

func Button(id, text string) Control {
	return Control{
		Kind:       KindButton,
		ID:         id,
		Width:      buttonWidth,
		Height:     buttonHeight,
		Attributes: tables.ControlVisible | tables.ControlEnabled,
		Text:       text,
	}
}

func Text(id, text string) Control {
	return Control{
		Kind:       KindText,
		ID:         id,
		Attributes: tables.ControlVisible,
		Text:       text,
	}
}

// DynText is a text control whose content follows event.
func DynText(id, event string) Control {
	return Control{
		Kind:       KindText,
		ID:         id,
		Attributes: tables.ControlVisible | tables.ControlEnabled,
		listen:     event,
	}
}

func Line(id string) Control {
	return Control{
		Kind:       KindLine,
		ID:         id,
		Attributes: tables.ControlVisible,
	}
}

// Bitmap shows the image stored in the Binary table under name.
func Bitmap(id, name string) Control {
	return Control{
		Kind:       KindBitmap,
		ID:         id,
		Attributes: tables.ControlVisible,
		Text:       name,
	}
}

func ProgressBar(id string) Control {
	return Control{
		Kind:       KindProgressBar,
		ID:         id,
		Height:     10,
		Attributes: tables.ControlVisible | tables.ControlProgress95,
		listen:     "SetProgress",
	}
}

func (c Control) At(x, y int16) Control {
	c.X, c.Y = x, y
	return c
}

func (c Control) Size(width, height int16) Control {
	c.Width, c.Height = width, height
	return c
}

func (c Control) Disable() Control {
	c.Attributes &^= tables.ControlEnabled
	return c
}

func (c Control) WithText(text string) Control {
	c.Text = text
	return c
}

func (c Control) WithProperty(property string) Control {
	c.Property = property
	return c
}

// Trigger appends an event. Events fire in the order they were added.
func (c Control) Trigger(e Event) Control {
	c.events = append(append([]Event(nil), c.events...), e)
	return c
}

func (c Control) Events() []Event {
	return append([]Event(nil), c.events...)
}

// Interactive reports whether the control takes focus and therefore
// takes part in the tab order.
func (c Control) Interactive() bool {
	switch c.Kind {
	case KindButton:
		return true
	case KindText, KindLine, KindBitmap, KindProgressBar:
		return false
	}
	panic(fmt.Sprintf("unknown control kind %d", int(c.Kind)))
}

// mappedAttribute is the control attribute updated by the event the
// control listens to.
func (c Control) mappedAttribute() string {
	if c.listen == "" {
		return ""
	}
	switch c.Kind {
	case KindProgressBar:
		return "Progress"
	case KindText:
		return "Text"
	case KindButton, KindLine, KindBitmap:
		return ""
	}
	return ""
}

func (c Control) row(dialog string) tables.Control {
	attrs := c.Attributes
	return tables.Control{
		Dialog:     dialog,
		Control:    c.ID,
		Type:       c.Kind.TypeName(),
		X:          c.X,
		Y:          c.Y,
		Width:      c.Width,
		Height:     c.Height,
		Attributes: &attrs,
		Property:   c.Property,
		Text:       c.Text,
		Help:       c.Help,
	}
}
