package msibbolt

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kolide/livraison/pkg/msidb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tool.msi")

	pkg, err := Create(path, msidb.CodepageWindows1252)
	require.NoError(t, err)
	require.Equal(t, path, pkg.Path())

	columns := []msidb.Column{msidb.Col("Name").ID(72).PrimaryKey(), msidb.Col("Data").Binary()}
	require.NoError(t, pkg.CreateTable("Binary", columns))
	require.NoError(t, pkg.InsertRows("Binary", []msidb.Row{{msidb.Str("logo"), msidb.StreamRef("Binary.logo")}}))

	w, err := pkg.WriteStream("Binary.logo")
	require.NoError(t, err)
	_, err = w.Write([]byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "closing twice is harmless")

	require.NoError(t, pkg.Close())
	require.NoError(t, pkg.Close())
	require.Equal(t, "", pkg.Path())

	reopened, err := Open(path, true)
	require.NoError(t, err)
	defer reopened.Close()

	info, err := reopened.SummaryInfo()
	require.NoError(t, err)
	require.Equal(t, msidb.CodepageWindows1252, info.Codepage)

	rows, err := reopened.SelectRows(msidb.Select{Table: "Binary"})
	require.NoError(t, err)
	require.Equal(t, []msidb.Row{{msidb.Str("logo"), msidb.StreamRef("Binary.logo")}}, rows)

	r, err := reopened.ReadStream("Binary.logo")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	// keys survive a reopen
	err = reopened.InsertRows("Binary", []msidb.Row{{msidb.Str("logo"), msidb.StreamRef("Binary.logo")}})
	var dup msidb.DuplicateKeyError
	require.True(t, errors.As(err, &dup))

	// the reopened package still checks strings against its codepage
	err = reopened.InsertRows("Binary", []msidb.Row{{msidb.Str("日本"), msidb.StreamRef("Binary.x")}})
	var mismatch msidb.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
}

func TestCreateReplaces(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tool.msi")

	pkg, err := Create(path, msidb.CodepageISO88591)
	require.NoError(t, err)
	require.NoError(t, pkg.CreateTable("Property", []msidb.Column{msidb.Col("Property").PrimaryKey()}))
	require.NoError(t, pkg.Close())

	pkg, err = Create(path, msidb.CodepageISO88591)
	require.NoError(t, err)
	defer pkg.Close()

	tables, err := pkg.Tables()
	require.NoError(t, err)
	require.Empty(t, tables)
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.msi"), false)
	require.Error(t, err)

	garbage := filepath.Join(dir, "garbage.msi")
	require.NoError(t, os.WriteFile(garbage, []byte("not a bolt file"), 0644))
	_, err = Open(garbage, false)
	require.Error(t, err)
}

func TestReadOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tool.msi")
	pkg, err := Create(path, msidb.CodepageISO88591)
	require.NoError(t, err)
	require.NoError(t, pkg.Close())

	ro, err := Open(path, false)
	require.NoError(t, err)
	defer ro.Close()

	require.Error(t, ro.CreateTable("Property", []msidb.Column{msidb.Col("Property").PrimaryKey()}))
}

func TestClosedPackage(t *testing.T) {
	t.Parallel()

	var pkg *Package
	_, err := pkg.Tables()
	require.ErrorIs(t, err, NoDbError{})
	require.False(t, pkg.HasTable("File"))
	require.NoError(t, pkg.Close())

	pkg = &Package{}
	_, err = pkg.SummaryInfo()
	require.Error(t, err)
	_, err = pkg.WriteStream("x")
	require.Error(t, err)
}
