package lint

import (
	"context"
	"strings"

	"github.com/kolide/livraison/pkg/msi/properties"
	"github.com/kolide/livraison/pkg/msi/tables"
)

// PropertyRule checks the properties every installer must define.
type PropertyRule struct{}

func (PropertyRule) Code() string { return "invalid-property" }

func (PropertyRule) Run(_ context.Context, data *Data) ([]Diagnostic, error) {
	values := make(map[string]string, len(data.Properties))
	for _, p := range data.Properties {
		values[p.Property] = p.Value
	}

	var found []Diagnostic
	for _, name := range properties.Required {
		if _, ok := values[name]; !ok {
			found = append(found, errorf("%s property is missing", name))
		}
	}

	if code, ok := values[properties.ProductCode]; ok {
		if _, err := tables.ParseGUID(code); err != nil {
			found = append(found, errorf("ProductCode %s property must be a uuid surrounded by braces {}", code))
		}
	}
	return found, nil
}

// DialogRule checks that the install UI sequence, dialogs and controls
// reference each other consistently and that the tab order of every
// dialog forms closed cycles.
type DialogRule struct{}

func (DialogRule) Code() string { return "invalid-dialog" }

func (DialogRule) Run(_ context.Context, data *Data) ([]Diagnostic, error) {
	var found []Diagnostic

	for _, entry := range data.UISequence {
		if !data.hasDialogOrAction(entry.Action) {
			found = append(found, missingDialog(entry.Action, entry.TableName()))
		}
	}

	for _, dlg := range data.Dialogs {
		dc, _ := data.dialog(dlg.Dialog)
		if !dc.hasControl(dlg.ControlFirst) {
			found = append(found, missingControl(dlg.Dialog, dlg.ControlFirst, "control_first of dialog "+dlg.Dialog))
		}
		if dlg.ControlDefault != "" && !dc.hasControl(dlg.ControlDefault) {
			found = append(found, missingControl(dlg.Dialog, dlg.ControlDefault, "control_default of dialog "+dlg.Dialog))
		}
		if dlg.ControlCancel != "" && !dc.hasControl(dlg.ControlCancel) {
			found = append(found, missingControl(dlg.Dialog, dlg.ControlCancel, "control_cancel of dialog "+dlg.Dialog))
		}
	}

	for _, c := range data.Controls {
		dc, ok := data.dialog(c.Dialog)
		if !ok {
			found = append(found, missingDialog(c.Dialog, c.TableName()))
			continue
		}
		if c.ControlNext != "" && !dc.hasControl(c.ControlNext) {
			found = append(found, missingControl(c.Dialog, c.ControlNext, "next_control of "+c.Control))
		}
	}

	for _, dlg := range data.Dialogs {
		dc, _ := data.dialog(dlg.Dialog)
		found = append(found, checkTabOrder(dc)...)
	}

	return found, nil
}

// checkTabOrder follows Control_Next from every control that has one.
// A chain reaching a control without a next control is open; a control
// that several controls name as their next breaks the single cycle.
func checkTabOrder(dc *dialogControls) []Diagnostic {
	g := NewGraph()
	for _, c := range dc.controls {
		g.AddNode(c.Control)
		if c.ControlNext != "" {
			g.AddEdge(c.Control, c.ControlNext)
		}
	}

	var found []Diagnostic
	visited := make(map[string]struct{})
	for _, c := range dc.controls {
		if c.ControlNext == "" {
			continue
		}
		if dead, ok := g.DeadEnd(c.Control, visited); ok {
			found = append(found, errorf("Controls on dialog %s do not form a valid cycle, control %s is missing a next control", dc.dialog.Dialog, dead))
		}
	}

	preds := g.Predecessors()
	for _, n := range g.Targets() {
		if from := preds[n]; len(from) > 1 {
			found = append(found, errorf("Control %s on %s is referenced as the next control by multiple controls %s.", n, dc.dialog.Dialog, strings.Join(from, ", ")))
		}
	}
	return found
}

func missingDialog(dialog, reference string) Diagnostic {
	return errorf("Dialog %s referenced in %s is missing", dialog, reference)
}

func missingControl(dialog, control, reference string) Diagnostic {
	return errorf("Control %s in %s referenced by %s is missing", control, dialog, reference)
}

// ControlEventRefRule checks that every ControlEvent row names an
// existing control of an existing dialog.
type ControlEventRefRule struct{}

func (ControlEventRefRule) Code() string { return "invalid-control-event-ref" }

func (ControlEventRefRule) Run(_ context.Context, data *Data) ([]Diagnostic, error) {
	var found []Diagnostic
	for _, e := range data.ControlEvents {
		dc, ok := data.dialog(e.Dialog)
		if !ok {
			found = append(found, errorf("ControlEvent table is referencing a missing dialog: %s", e.Dialog))
			continue
		}
		if !dc.hasControl(e.Control) {
			found = append(found, errorf("ControlEvent table is referencing a missing control: %s on dialog: %s", e.Control, e.Dialog))
		}
	}
	return found, nil
}
