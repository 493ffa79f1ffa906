// Package msisqlite copies the tables and streams of a package into a
// SQLite database, so that a package can be inspected with plain SQL.
package msisqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/livraison/pkg/contexts/ctxlog"
	"github.com/kolide/livraison/pkg/msidb"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const streamsTable = "_Streams"

// Export writes pkg into a new SQLite database at path. An existing
// file at path is replaced.
func Export(ctx context.Context, pkg msidb.Package, path string) error {
	ctx, span := trace.StartSpan(ctx, "msisqlite.Export")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return errors.Wrapf(err, "opening sqlite database %s", path)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	tableNames, err := pkg.Tables()
	if err != nil {
		return errors.Wrap(err, "listing tables")
	}

	for _, name := range tableNames {
		columns, err := pkg.Columns(name)
		if err != nil {
			return errors.Wrapf(err, "reading columns of %s", name)
		}
		rows, err := pkg.SelectRows(msidb.Select{Table: name})
		if err != nil {
			return errors.Wrapf(err, "reading rows of %s", name)
		}

		if _, err := tx.ExecContext(ctx, createStatement(name, columns)); err != nil {
			return errors.Wrapf(err, "creating table %s", name)
		}

		insert, err := tx.PrepareContext(ctx, insertStatement(name, len(columns)))
		if err != nil {
			return errors.Wrapf(err, "preparing insert into %s", name)
		}
		for i, row := range rows {
			args := make([]interface{}, len(row))
			for j, v := range row {
				args[j] = sqlValue(v)
			}
			if _, err := insert.ExecContext(ctx, args...); err != nil {
				insert.Close()
				return errors.Wrapf(err, "inserting row %d into %s", i, name)
			}
		}
		insert.Close()

		level.Debug(logger).Log("msg", "exported table", "table", name, "rows", len(rows))
	}

	if err := exportStreams(ctx, tx, pkg); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "committing export")
}

func exportStreams(ctx context.Context, tx *sql.Tx, pkg msidb.Package) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s ("Name" TEXT PRIMARY KEY, "Data" BLOB)`, quoteIdent(streamsTable))); err != nil {
		return errors.Wrap(err, "creating streams table")
	}

	names, err := pkg.Streams()
	if err != nil {
		return errors.Wrap(err, "listing streams")
	}

	for _, name := range names {
		r, err := pkg.ReadStream(name)
		if err != nil {
			return errors.Wrapf(err, "opening stream %s", name)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return errors.Wrapf(err, "reading stream %s", name)
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (?, ?)`, quoteIdent(streamsTable)), name, data); err != nil {
			return errors.Wrapf(err, "inserting stream %s", name)
		}
	}

	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func createStatement(table string, columns []msidb.Column) string {
	defs := make([]string, 0, len(columns)+1)
	var keys []string
	for _, c := range columns {
		def := quoteIdent(c.Name) + " " + sqlType(c.Type)
		if !c.IsNullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
		if c.IsPrimaryKey {
			keys = append(keys, quoteIdent(c.Name))
		}
	}
	if len(keys) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func insertStatement(table string, n int) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), marks)
}

func sqlType(t msidb.ColumnType) string {
	switch t {
	case msidb.TypeInt16, msidb.TypeInt32:
		return "INTEGER"
	case msidb.TypeBinary:
		// holds the stream name, the bytes live in _Streams
		return "TEXT"
	}
	return "TEXT"
}

func sqlValue(v msidb.Value) interface{} {
	switch v.Kind {
	case msidb.KindInt:
		return int64(v.Int)
	case msidb.KindString, msidb.KindStream:
		return v.Str
	}
	return nil
}
