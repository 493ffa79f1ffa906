package ui

import (
	"context"
	"testing"

	"github.com/kolide/livraison/pkg/msi/tables"
	"github.com/kolide/livraison/pkg/msidb"
	"github.com/kolide/livraison/pkg/msidb/inmemory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func controlByID(t *testing.T, built Built, id string) tables.Control {
	for _, c := range built.Controls {
		if c.Control == id {
			return c
		}
	}
	t.Fatalf("control %s not built", id)
	return tables.Control{}
}

func TestTabOrderSkipsPassiveControls(t *testing.T) {
	t.Parallel()

	built, err := NewDialog("D").Add(
		Button("A", "a"),
		Text("C", "c"),
		Button("B", "b"),
	).Build()
	require.NoError(t, err)

	require.Equal(t, "A", built.Dialog.ControlFirst)
	require.Equal(t, "A", built.Dialog.ControlDefault)
	require.Equal(t, "B", controlByID(t, built, "A").ControlNext)
	require.Equal(t, "A", controlByID(t, built, "B").ControlNext)
	require.Empty(t, controlByID(t, built, "C").ControlNext)
}

func TestTabOrderSingleControl(t *testing.T) {
	t.Parallel()

	built, err := NewDialog("D").Add(Text("T", "t"), Button("Only", "ok")).Build()
	require.NoError(t, err)
	require.Equal(t, "Only", built.Dialog.ControlFirst)
	require.Equal(t, "Only", controlByID(t, built, "Only").ControlNext)
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	_, err := NewDialog("Empty").Add(Text("T", "t"), Line("L")).Build()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoInteractiveControl))

	_, err = NewDialog("Dup").Add(Button("A", "a"), Button("A", "b")).Build()
	require.Error(t, err)
}

func TestCancelControl(t *testing.T) {
	t.Parallel()

	built := NewDialog("D").Add(Button("Next", "n"), Button("Cancel", "c")).MustBuild()
	require.Equal(t, "Cancel", built.Dialog.ControlCancel)

	built = NewDialog("D").Add(Button("Next", "n")).MustBuild()
	require.Empty(t, built.Dialog.ControlCancel)
}

func TestEventsAndMappings(t *testing.T) {
	t.Parallel()

	built := NewDialog("D").Add(
		Button("Go", "go").
			Trigger(SetPropertyEvent("REMOVE", "ALL")).
			Trigger(EndDialogEvent(Return)),
		DynText("Status", "ActionText"),
		ProgressBar("Bar"),
	).MustBuild()

	require.Len(t, built.Events, 2)
	require.Equal(t, "[REMOVE]", built.Events[0].Event)
	require.Equal(t, "ALL", built.Events[0].Argument)
	require.Equal(t, int16(1), *built.Events[0].Ordering)
	require.Equal(t, "EndDialog", built.Events[1].Event)
	require.Equal(t, "Return", built.Events[1].Argument)
	require.Equal(t, int16(2), *built.Events[1].Ordering)

	require.Equal(t, []tables.EventMapping{
		{Dialog: "D", Control: "Status", Event: "ActionText", Attribute: "Text"},
		{Dialog: "D", Control: "Bar", Event: "SetProgress", Attribute: "Progress"},
	}, built.Mappings)
}

func TestModifiersCopy(t *testing.T) {
	t.Parallel()

	base := Button("B", "b").Trigger(EndDialogEvent(Exit))
	one := base.Trigger(NewDialogEvent("X"))
	two := base.Trigger(SpawnDialogEvent("Y"))

	require.Len(t, base.Events(), 1)
	require.Equal(t, "NewDialog", one.Events()[1].Name)
	require.Equal(t, "SpawnDialog", two.Events()[1].Name)

	disabled := base.Disable()
	require.Equal(t, tables.ControlVisible, disabled.Attributes)
	require.Equal(t, tables.ControlVisible|tables.ControlEnabled, base.Attributes)
}

func TestMinimalSequence(t *testing.T) {
	t.Parallel()

	seq := Minimal().Sequence()
	got := make(map[string]int16, len(seq))
	for _, s := range seq {
		got[s.Action] = *s.Sequence
	}

	require.Equal(t, int16(-3), got[FatalErrorDialog])
	require.Equal(t, int16(-1), got[ExitDialog])
	require.Equal(t, int16(1230), got[WelcomeDialog])
	require.Equal(t, int16(1300), got["ExecuteAction"])
	_, hasUserExit := got[UserExitDialog]
	require.False(t, hasUserExit)
}

func TestMinimalWrite(t *testing.T) {
	t.Parallel()

	pkg := inmemory.NewPackage(msidb.CodepageISO88591)
	require.NoError(t, Minimal().Write(context.TODO(), pkg))

	dialogs, err := tables.List(pkg, tables.DialogFromRow)
	require.NoError(t, err)
	require.Len(t, dialogs, 5)

	controls, err := tables.List(pkg, tables.ControlFromRow)
	require.NoError(t, err)
	for _, c := range controls {
		if c.Type == "PushButton" {
			require.NotEmpty(t, c.ControlNext, "%s.%s", c.Dialog, c.Control)
		}
	}

	styles, err := tables.List(pkg, tables.TextStyleFromRow)
	require.NoError(t, err)
	require.Len(t, styles, 3)

	seq, err := tables.List(pkg, tables.InstallUISequenceFromRow)
	require.NoError(t, err)
	require.Len(t, seq, 9)
}
