package tables

import "github.com/kolide/livraison/pkg/msidb"

type Property struct {
	Property string
	Value    string
}

func (Property) TableName() string { return "Property" }

func (Property) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Property").ID(72).PrimaryKey(),
		msidb.Col("Value").Text(),
	}
}

func (p Property) ToRow() msidb.Row {
	return msidb.Row{msidb.Str(p.Property), msidb.Str(p.Value)}
}

func PropertyFromRow(r RowView) (Property, error) {
	c := cells{view: r}
	rec := Property{Property: c.str(0), Value: c.str(1)}
	return rec, c.err
}

// SequenceEntry is one action of a sequence table. Negative sequence
// numbers are reserved for the exit dialogs.
type SequenceEntry struct {
	Action    string
	Condition string
	Sequence  *int16
}

func sequenceDefinition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Action").ID(72).PrimaryKey(),
		msidb.Col("Condition").Str(255).Nullable().WithCategory(msidb.CategoryCondition),
		msidb.Col("Sequence").Int16().Nullable(),
	}
}

func (s SequenceEntry) row() msidb.Row {
	return msidb.Row{msidb.Str(s.Action), msidb.OptStr(s.Condition), msidb.OptInt16(s.Sequence)}
}

func sequenceFromRow(r RowView) (SequenceEntry, error) {
	c := cells{view: r}
	rec := SequenceEntry{Action: c.str(0), Condition: c.optStr(1), Sequence: c.optI16(2)}
	return rec, c.err
}

func Seq(action string, sequence int16) SequenceEntry {
	return SequenceEntry{Action: action, Sequence: &sequence}
}

func SeqIf(action, condition string, sequence int16) SequenceEntry {
	return SequenceEntry{Action: action, Condition: condition, Sequence: &sequence}
}

type InstallUISequence struct{ SequenceEntry }

func (InstallUISequence) TableName() string { return "InstallUISequence" }
func (InstallUISequence) Definition() []msidb.Column { return sequenceDefinition() }
func (s InstallUISequence) ToRow() msidb.Row { return s.row() }

func InstallUISequenceFromRow(r RowView) (InstallUISequence, error) {
	e, err := sequenceFromRow(r)
	return InstallUISequence{e}, err
}

type InstallExecuteSequence struct{ SequenceEntry }

func (InstallExecuteSequence) TableName() string { return "InstallExecuteSequence" }
func (InstallExecuteSequence) Definition() []msidb.Column { return sequenceDefinition() }
func (s InstallExecuteSequence) ToRow() msidb.Row { return s.row() }

func InstallExecuteSequenceFromRow(r RowView) (InstallExecuteSequence, error) {
	e, err := sequenceFromRow(r)
	return InstallExecuteSequence{e}, err
}
