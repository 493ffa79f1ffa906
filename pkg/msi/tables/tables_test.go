package tables

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kolide/livraison/pkg/msidb"
	"github.com/kolide/livraison/pkg/msidb/inmemory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestListMissingTable(t *testing.T) {
	t.Parallel()

	pkg := inmemory.NewPackage(msidb.CodepageUTF8)

	_, err := List(pkg, ComponentFromRow)
	require.Error(t, err)

	var missing MissingTableError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "Component", missing.Table)
	require.Equal(t, "Table 'Component' is missing in package", err.Error())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	pkg := inmemory.NewPackage(msidb.CodepageUTF8)

	id := uuid.MustParse("3941a426-8f68-469a-a7c5-99944d6067d8")
	components := []Component{
		{Component: "INSTALLDIR", ComponentID: &id, Directory: "INSTALLDIR", Attributes: Component64Bit, KeyPath: "tool.exe"},
		{Component: "env_path", Directory: "INSTALLDIR"},
	}
	require.NoError(t, CreateAndInsert(pkg, components))

	got, err := List(pkg, ComponentFromRow)
	require.NoError(t, err)
	require.Equal(t, components, got)

	vital := FileVital
	files := []File{{File: "tool.exe", Component: "INSTALLDIR", FileName: "tool.exe", FileSize: 42, Attributes: &vital, Sequence: 1}}
	require.NoError(t, CreateAndInsert(pkg, files))

	gotFiles, err := List(pkg, FileFromRow)
	require.NoError(t, err)
	require.Equal(t, files, gotFiles)

	style := DialogVisible | DialogModal
	dialogs := []Dialog{{Dialog: "WelcomeDlg", HCentering: 50, VCentering: 50, Width: 260, Height: 100, Attributes: &style, ControlFirst: "Next", ControlDefault: "Next", ControlCancel: "Cancel"}}
	require.NoError(t, CreateAndInsert(pkg, dialogs))

	gotDialogs, err := List(pkg, DialogFromRow)
	require.NoError(t, err)
	require.Equal(t, dialogs, gotDialogs)

	seq := []InstallExecuteSequence{{Seq("CostInitialize", 800)}, {SeqIf("AllocateRegistrySpace", "NOT Installed", 1550)}}
	require.NoError(t, CreateAndInsert(pkg, seq))

	gotSeq, err := List(pkg, InstallExecuteSequenceFromRow)
	require.NoError(t, err)
	require.Equal(t, seq, gotSeq)
}

func TestCellInvalidType(t *testing.T) {
	t.Parallel()

	pkg := inmemory.NewPackage(msidb.CodepageUTF8)

	// Same shape as Property, but with an integer value column, so the
	// container accepts a row the Property decoder must refuse.
	require.NoError(t, pkg.CreateTable("Property", []msidb.Column{
		msidb.Col("Property").ID(72).PrimaryKey(),
		msidb.Col("Value").Int32(),
	}))
	require.NoError(t, pkg.InsertRows("Property", []msidb.Row{
		{msidb.Str("ProductName"), msidb.Int(7)},
	}))

	_, err := List(pkg, PropertyFromRow)
	require.Error(t, err)

	var cellErr CellInvalidTypeError
	require.True(t, errors.As(err, &cellErr))
	require.Equal(t, CellInvalidTypeError{Table: "Property", Row: 0, Column: 1, ExpectedType: "string", Value: "7"}, cellErr)
	require.Equal(t, "Table 'Property' cell 0:1 is not of the expected type: string, value: 7", err.Error())
}

func TestRowLength(t *testing.T) {
	t.Parallel()

	_, err := NewRowView("Property", 3, Property{}.Definition(), msidb.Row{msidb.Str("a")})
	require.Error(t, err)

	var lengthErr RowLengthError
	require.True(t, errors.As(err, &lengthErr))
	require.Equal(t, 3, lengthErr.Row)
}

func TestInvalidGUID(t *testing.T) {
	t.Parallel()

	view, err := NewRowView("Component", 0, Component{}.Definition(), msidb.Row{
		msidb.Str("c"), msidb.Str("{not-a-guid-at-all-but-38-chars-long!}"), msidb.Str("INSTALLDIR"), msidb.Int(0), msidb.Null(), msidb.Null(),
	})
	require.NoError(t, err)

	_, err = ComponentFromRow(view)
	var guidErr InvalidGUIDError
	require.True(t, errors.As(err, &guidErr))
	require.Equal(t, 1, guidErr.Column)
}

func TestGUIDFormat(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("3941a426-8f68-469a-a7c5-99944d6067d8")
	s := FormatGUID(id)
	require.Equal(t, "{3941A426-8F68-469A-A7C5-99944D6067D8}", s)

	parsed, err := ParseGUID(s)
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = ParseGUID("3941a426-8f68-469a-a7c5-99944d6067d8")
	require.Error(t, err)
}

func TestRegistryRoot(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		code    int16
		wantErr bool
	}{
		{code: -1},
		{code: 0},
		{code: 2},
		{code: 3},
		{code: 4, wantErr: true},
		{code: -2, wantErr: true},
	}

	for _, tt := range tests {
		_, err := ParseRegistryRoot(tt.code)
		if tt.wantErr {
			var rootErr InvalidRegistryRootError
			require.True(t, errors.As(err, &rootErr))
			require.Equal(t, tt.code, rootErr.Root)
		} else {
			require.NoError(t, err)
		}
	}
}

func TestStandardActions(t *testing.T) {
	t.Parallel()

	require.True(t, IsStandardAction("CostInitialize"))
	require.True(t, IsStandardAction("ExecuteAction"))
	require.False(t, IsStandardAction("WelcomeDlg"))
}

func TestBinaryStreams(t *testing.T) {
	t.Parallel()

	row := Icon{Name: "tool.ico"}.ToRow()
	require.Equal(t, msidb.StreamRef("Icon.tool.ico"), row[1])

	view, err := NewRowView("Icon", 0, Icon{}.Definition(), row)
	require.NoError(t, err)
	icon, err := IconFromRow(view)
	require.NoError(t, err)
	require.Equal(t, "tool.ico", icon.Name)
}
