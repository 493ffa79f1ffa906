// Package ui assembles the installer wizard: dialogs, their controls,
// the events controls publish, and the install UI sequence that shows
// them.
package ui

import (
	"context"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/livraison/pkg/contexts/ctxlog"
	"github.com/kolide/livraison/pkg/msi/tables"
	"github.com/kolide/livraison/pkg/msidb"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const (
	WelcomeDialog    = "WelcomeDlg"
	RemoveDialog     = "RemoveDlg"
	ProgressDialog   = "ProgressDlg"
	ExitDialog       = "ExitDlg"
	UserExitDialog   = "UserExitDlg"
	FatalErrorDialog = "FatalErrorDlg"
)

// UI is a complete wizard.
type UI struct {
	Dialogs    []*Dialog
	TextStyles []tables.TextStyle
}

func (u UI) dialog(id string) *Dialog {
	for _, d := range u.Dialogs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

type sequenceSlot struct {
	action    string
	condition string
	sequence  int16
	dialog    bool
}

// uiSkeleton is the fixed install UI sequence. Dialog slots are only
// emitted when the wizard has that dialog.
var uiSkeleton = []sequenceSlot{
	{action: FatalErrorDialog, sequence: -3, dialog: true},
	{action: UserExitDialog, sequence: -2, dialog: true},
	{action: ExitDialog, sequence: -1, dialog: true},
	{action: "CostInitialize", sequence: 800},
	{action: "FileCost", sequence: 900},
	{action: "CostFinalize", sequence: 1000},
	{action: WelcomeDialog, condition: "NOT Installed", sequence: 1230, dialog: true},
	{action: RemoveDialog, condition: "Installed", sequence: 1240, dialog: true},
	{action: ProgressDialog, sequence: 1280, dialog: true},
	{action: "ExecuteAction", sequence: 1300},
}

func (u UI) Sequence() []tables.InstallUISequence {
	var seq []tables.InstallUISequence
	for _, slot := range uiSkeleton {
		if slot.dialog && u.dialog(slot.action) == nil {
			continue
		}
		seq = append(seq, tables.InstallUISequence{
			SequenceEntry: tables.SeqIf(slot.action, slot.condition, slot.sequence),
		})
	}
	return seq
}

// Write builds every dialog and fills the UI tables of pkg.
func (u UI) Write(ctx context.Context, pkg msidb.Package) error {
	ctx, span := trace.StartSpan(ctx, "ui.Write")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	var (
		dialogs  []tables.Dialog
		controls []tables.Control
		events   []tables.ControlEvent
		mappings []tables.EventMapping
	)
	for _, d := range u.Dialogs {
		built, err := d.Build()
		if err != nil {
			return err
		}
		dialogs = append(dialogs, built.Dialog)
		controls = append(controls, built.Controls...)
		events = append(events, built.Events...)
		mappings = append(mappings, built.Mappings...)

		level.Debug(logger).Log(
			"msg", "built dialog",
			"dialog", d.ID,
			"controls", len(built.Controls),
			"events", len(built.Events),
		)
	}

	if err := tables.CreateAndInsert(pkg, dialogs); err != nil {
		return err
	}
	if err := tables.CreateAndInsert(pkg, controls); err != nil {
		return err
	}
	if err := tables.CreateAndInsert(pkg, events); err != nil {
		return err
	}
	if err := tables.CreateAndInsert(pkg, mappings); err != nil {
		return err
	}
	if err := tables.CreateAndInsert(pkg, u.TextStyles); err != nil {
		return err
	}
	if err := tables.CreateAndInsert(pkg, u.Sequence()); err != nil {
		return errors.Wrap(err, "writing install ui sequence")
	}

	return nil
}

func DefaultTextStyles() []tables.TextStyle {
	bold := tables.TextStyleBold
	return []tables.TextStyle{
		{TextStyle: "DefaultFont", FaceName: "Segoe UI", Size: 8},
		{TextStyle: "BoldFont", FaceName: "Segoe UI", Size: 12, StyleBits: &bold},
		{TextStyle: "TitleFont", FaceName: "Segoe UI", Size: 9, StyleBits: &bold},
	}
}
