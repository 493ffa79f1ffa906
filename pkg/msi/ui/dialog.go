package ui

import (
	"github.com/kolide/livraison/pkg/msi/tables"
	"github.com/pkg/errors"
)

var ErrNoInteractiveControl = errors.New("dialog has no interactive control")

const (
	ClassicWidth  = 370
	ClassicHeight = 270

	MinimalWidth  = 260
	MinimalHeight = 100

	cancelControl = "Cancel"
)

// Dialog accumulates controls in declaration order. Tab order and the
// first, default and cancel controls are only computed by Build.
type Dialog struct {
	ID         string
	Title      string
	Width      int16
	Height     int16
	HCentering int16
	VCentering int16
	Style      tables.DialogStyle

	controls []Control
}

func NewDialog(id string) *Dialog {
	return &Dialog{
		ID:         id,
		Title:      "[ProductName] Setup",
		Width:      ClassicWidth,
		Height:     ClassicHeight,
		HCentering: 50,
		VCentering: 50,
		Style:      tables.DialogVisible | tables.DialogModal | tables.DialogMinimize,
	}
}

func (d *Dialog) WithTitle(title string) *Dialog {
	d.Title = title
	return d
}

func (d *Dialog) Size(width, height int16) *Dialog {
	d.Width, d.Height = width, height
	return d
}

// Modeless lets the installer keep running while the dialog is shown.
func (d *Dialog) Modeless() *Dialog {
	d.Style &^= tables.DialogModal
	return d
}

func (d *Dialog) Add(controls ...Control) *Dialog {
	d.controls = append(d.controls, controls...)
	return d
}

func (d *Dialog) Controls() []Control {
	return append([]Control(nil), d.controls...)
}

// Built is a dialog lowered into table rows.
type Built struct {
	Dialog   tables.Dialog
	Controls []tables.Control
	Events   []tables.ControlEvent
	Mappings []tables.EventMapping
}

// Build lowers the dialog. Interactive controls are linked into a
// single Control_Next cycle in declaration order; other controls are
// left out of the cycle.
func (d *Dialog) Build() (Built, error) {
	first := -1
	seen := make(map[string]struct{}, len(d.controls))
	for i, c := range d.controls {
		if _, dup := seen[c.ID]; dup {
			return Built{}, errors.Errorf("dialog %s declares control %s twice", d.ID, c.ID)
		}
		seen[c.ID] = struct{}{}

		if first < 0 && c.Interactive() {
			first = i
		}
	}
	if first < 0 {
		return Built{}, errors.Wrapf(ErrNoInteractiveControl, "dialog %s", d.ID)
	}

	rows := make([]tables.Control, len(d.controls))
	for i, c := range d.controls {
		rows[i] = c.row(d.ID)
	}

	next := d.controls[first].ID
	for i := len(rows) - 1; i >= 0; i-- {
		if !d.controls[i].Interactive() {
			continue
		}
		rows[i].ControlNext = next
		next = rows[i].Control
	}

	style := d.Style
	built := Built{
		Dialog: tables.Dialog{
			Dialog:         d.ID,
			HCentering:     d.HCentering,
			VCentering:     d.VCentering,
			Width:          d.Width,
			Height:         d.Height,
			Attributes:     &style,
			Title:          d.Title,
			ControlFirst:   d.controls[first].ID,
			ControlDefault: d.controls[first].ID,
		},
		Controls: rows,
	}
	if _, ok := seen[cancelControl]; ok {
		built.Dialog.ControlCancel = cancelControl
	}

	for _, c := range d.controls {
		for j, e := range c.events {
			built.Events = append(built.Events, tables.ControlEvent{
				Dialog:    d.ID,
				Control:   c.ID,
				Event:     e.Name,
				Argument:  e.Argument,
				Condition: "1",
				Ordering:  tables.Int16Ptr(int16(j + 1)),
			})
		}
		if attr := c.mappedAttribute(); attr != "" {
			built.Mappings = append(built.Mappings, tables.EventMapping{
				Dialog:    d.ID,
				Control:   c.ID,
				Event:     c.listen,
				Attribute: attr,
			})
		}
	}

	return built, nil
}

// MustBuild is Build for dialogs whose shape is fixed at compile time.
func (d *Dialog) MustBuild() Built {
	b, err := d.Build()
	if err != nil {
		panic(err)
	}
	return b
}
