package msidb_test

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kolide/livraison/pkg/msidb"
	msibbolt "github.com/kolide/livraison/pkg/msidb/bbolt"
	"github.com/kolide/livraison/pkg/msidb/inmemory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var testColumns = []msidb.Column{
	msidb.Col("Property").ID(72).PrimaryKey(),
	msidb.Col("Value").Text(),
	msidb.Col("Order").Int16().Nullable(),
}

// Every container implementation has to pass the same behavior tests.
func packageImplementations(t *testing.T) map[string]msidb.Package {
	bboltPkg, err := msibbolt.Create(filepath.Join(t.TempDir(), "test.msi"), msidb.CodepageISO88591)
	require.NoError(t, err)
	t.Cleanup(func() { bboltPkg.Close() })

	return map[string]msidb.Package{
		"inmemory": inmemory.NewPackage(msidb.CodepageISO88591),
		"bbolt":    bboltPkg,
	}
}

func TestPackageTables(t *testing.T) {
	t.Parallel()

	for name, pkg := range packageImplementations(t) {
		require.NoError(t, pkg.CreateTable("Property", testColumns), name)
		require.NoError(t, pkg.CreateTable("Empty", []msidb.Column{msidb.Col("A").PrimaryKey()}), name)

		err := pkg.CreateTable("Property", testColumns)
		var exists msidb.TableExistsError
		require.True(t, errors.As(err, &exists), name)

		require.Error(t, pkg.CreateTable("Bad", nil), name)

		tables, err := pkg.Tables()
		require.NoError(t, err, name)
		require.Equal(t, []string{"Empty", "Property"}, tables, name)

		require.True(t, pkg.HasTable("Property"), name)
		require.False(t, pkg.HasTable("Missing"), name)

		columns, err := pkg.Columns("Property")
		require.NoError(t, err, name)
		require.Equal(t, testColumns, columns, name)

		_, err = pkg.Columns("Missing")
		require.True(t, msidb.IsTableNotFound(err), name)
	}
}

func TestPackageRows(t *testing.T) {
	t.Parallel()

	for name, pkg := range packageImplementations(t) {
		require.NoError(t, pkg.CreateTable("Property", testColumns), name)

		rows := []msidb.Row{
			{msidb.Str("ProductName"), msidb.Str("Tool"), msidb.Null()},
			{msidb.Str("Manufacturer"), msidb.Str("ACME"), msidb.Int(2)},
		}
		require.NoError(t, pkg.InsertRows("Property", rows), name)

		selected, err := pkg.SelectRows(msidb.Select{Table: "Property"})
		require.NoError(t, err, name)
		require.Equal(t, rows, selected, name)

		// a bad row rejects the whole batch
		err = pkg.InsertRows("Property", []msidb.Row{
			{msidb.Str("ARPCOMMENTS"), msidb.Str("ok"), msidb.Null()},
			{msidb.Str("ProductName"), msidb.Str("again"), msidb.Null()},
		})
		var dup msidb.DuplicateKeyError
		require.True(t, errors.As(err, &dup), name)
		require.Equal(t, "ProductName", dup.Key, name)

		err = pkg.InsertRows("Property", []msidb.Row{{msidb.Str("Short")}})
		var mismatch msidb.SchemaMismatchError
		require.True(t, errors.As(err, &mismatch), name)

		err = pkg.InsertRows("Property", []msidb.Row{
			{msidb.Str("Twice"), msidb.Str("a"), msidb.Null()},
			{msidb.Str("Twice"), msidb.Str("b"), msidb.Null()},
		})
		require.True(t, errors.As(err, &dup), name)

		selected, err = pkg.SelectRows(msidb.Select{Table: "Property"})
		require.NoError(t, err, name)
		require.Len(t, selected, 2, name)

		err = pkg.InsertRows("Missing", rows)
		require.True(t, msidb.IsTableNotFound(err), name)

		_, err = pkg.SelectRows(msidb.Select{Table: "Missing"})
		require.True(t, msidb.IsTableNotFound(err), name)
	}
}

func TestPackageStreams(t *testing.T) {
	t.Parallel()

	for name, pkg := range packageImplementations(t) {
		for _, stream := range []string{"rsrc0001.cab", "rsrc0000.cab"} {
			w, err := pkg.WriteStream(stream)
			require.NoError(t, err, name)
			_, err = io.WriteString(w, "MSCF "+stream)
			require.NoError(t, err, name)
			require.NoError(t, w.Close(), name)
		}

		names, err := pkg.Streams()
		require.NoError(t, err, name)
		require.Equal(t, []string{"rsrc0000.cab", "rsrc0001.cab"}, names, name)

		r, err := pkg.ReadStream("rsrc0001.cab")
		require.NoError(t, err, name)
		data, err := io.ReadAll(r)
		require.NoError(t, err, name)
		require.NoError(t, r.Close(), name)
		require.Equal(t, "MSCF rsrc0001.cab", string(data), name)

		_, err = pkg.ReadStream("missing")
		var notFound msidb.StreamNotFoundError
		require.True(t, errors.As(err, &notFound), name)

		_, err = pkg.WriteStream("")
		require.Error(t, err, name)
	}
}

func TestPackageAbortStream(t *testing.T) {
	t.Parallel()

	for name, pkg := range packageImplementations(t) {
		w, err := pkg.WriteStream("rsrc0000.cab")
		require.NoError(t, err, name)
		_, err = io.WriteString(w, "MSCF partial")
		require.NoError(t, err, name)

		require.NoError(t, msidb.AbortStream(w), name)
		require.NoError(t, w.Close(), "closing after abort stores nothing")

		names, err := pkg.Streams()
		require.NoError(t, err, name)
		require.Empty(t, names, name)

		_, err = pkg.ReadStream("rsrc0000.cab")
		var notFound msidb.StreamNotFoundError
		require.True(t, errors.As(err, &notFound), name)
	}
}

func TestPackageSummaryInfo(t *testing.T) {
	t.Parallel()

	created := time.Date(2023, 2, 1, 12, 0, 0, 0, time.UTC)
	productCode := uuid.MustParse("8d6c3d5e-7c8f-5b7a-9c4e-1f2a3b4c5d6e")

	for name, pkg := range packageImplementations(t) {
		info, err := pkg.SummaryInfo()
		require.NoError(t, err, name)
		require.Equal(t, msidb.CodepageISO88591, info.Codepage, name)

		require.NoError(t, pkg.SetSummaryInfo(msidb.SummaryInfo{
			Title:        "Installation Database",
			Subject:      "tool",
			CreationTime: created,
			UUID:         productCode,
			Arch:         "x64",
			Languages:    []uint16{1033},
			WordCount:    2,
		}), name)

		info, err = pkg.SummaryInfo()
		require.NoError(t, err, name)
		require.Equal(t, "tool", info.Subject, name)
		require.Equal(t, productCode, info.UUID, name)
		require.True(t, created.Equal(info.CreationTime), name)
		require.Equal(t, msidb.CodepageISO88591, info.Codepage, "codepage defaults to the package's")
		require.Equal(t, "x64;1033", info.Template(), name)
	}
}
