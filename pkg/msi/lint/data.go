package lint

import (
	"context"

	"github.com/kolide/livraison/pkg/msi/tables"
	"github.com/kolide/livraison/pkg/msidb"
)

// Data is the package content shared by every rule. Tables that could
// not be read are left empty.
type Data struct {
	Package       msidb.Package
	Dialogs       []tables.Dialog
	Controls      []tables.Control
	ControlEvents []tables.ControlEvent
	UISequence    []tables.InstallUISequence
	Properties    []tables.Property

	dialogs map[string]*dialogControls
}

type dialogControls struct {
	dialog   tables.Dialog
	controls []tables.Control
	byID     map[string]tables.Control
}

func (d *dialogControls) hasControl(id string) bool {
	_, ok := d.byID[id]
	return ok
}

// Load reads the UI and property tables of pkg. Read failures are
// returned as table-read diagnostics.
func Load(_ context.Context, pkg msidb.Package) (*Data, []Diagnostic) {
	var diagnostics []Diagnostic
	data := &Data{Package: pkg}

	data.Dialogs = safeList(&diagnostics, pkg, tables.DialogFromRow)
	data.Controls = safeList(&diagnostics, pkg, tables.ControlFromRow)
	data.ControlEvents = safeList(&diagnostics, pkg, tables.ControlEventFromRow)
	data.UISequence = safeList(&diagnostics, pkg, tables.InstallUISequenceFromRow)
	data.Properties = safeList(&diagnostics, pkg, tables.PropertyFromRow)

	data.index()
	return data, diagnostics
}

func safeList[T tables.Entity](diagnostics *[]Diagnostic, pkg msidb.Package, decode tables.Decoder[T]) []T {
	records, err := tables.List(pkg, decode)
	if err != nil {
		*diagnostics = append(*diagnostics, Diagnostic{Code: CodeTableRead, Message: err.Error()})
		return nil
	}
	return records
}

func (d *Data) index() {
	d.dialogs = make(map[string]*dialogControls, len(d.Dialogs))
	for _, dlg := range d.Dialogs {
		d.dialogs[dlg.Dialog] = &dialogControls{dialog: dlg, byID: make(map[string]tables.Control)}
	}
	for _, c := range d.Controls {
		dc, ok := d.dialogs[c.Dialog]
		if !ok {
			continue
		}
		dc.controls = append(dc.controls, c)
		dc.byID[c.Control] = c
	}
}

func (d *Data) dialog(id string) (*dialogControls, bool) {
	dc, ok := d.dialogs[id]
	return dc, ok
}

// hasDialogOrAction reports whether a sequence entry resolves.
func (d *Data) hasDialogOrAction(name string) bool {
	if _, ok := d.dialogs[name]; ok {
		return true
	}
	return tables.IsStandardAction(name)
}
