package lint

import (
	"context"
	"fmt"

	"github.com/kolide/livraison/pkg/msidb"
	"github.com/pkg/errors"
)

// PrimaryKeysRule checks that every table has a primary key made of its
// leading columns.
type PrimaryKeysRule struct{}

func (PrimaryKeysRule) Code() string { return "invalid-primary-keys" }

func (PrimaryKeysRule) Run(_ context.Context, data *Data) ([]Diagnostic, error) {
	names, err := data.Package.Tables()
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}

	var found []Diagnostic
	for _, name := range names {
		columns, err := data.Package.Columns(name)
		if err != nil {
			return found, errors.Wrapf(err, "reading columns of %s", name)
		}
		if d, bad := checkPrimaryKey(name, columns); bad {
			found = append(found, d)
		}
	}
	return found, nil
}

// checkPrimaryKey reports the first violation in a table.
func checkPrimaryKey(table string, columns []msidb.Column) (Diagnostic, bool) {
	next := 0
	hasKey := false
	for i, c := range columns {
		if !c.IsPrimaryKey {
			continue
		}
		hasKey = true
		if i != next {
			return errorf("Table %s column %s (#%d) is a primary key but one or more columns defined before is not. Primary keys must be the leading columns of a table.", table, c.Name, i), true
		}
		next = i + 1
	}
	if !hasKey {
		return errorf("Table %s doesn't have any primary key.", table), true
	}
	return Diagnostic{}, false
}

// ForeignKeyRule checks that every non null foreign key cell names an
// existing row of the referenced table.
type ForeignKeyRule struct{}

func (ForeignKeyRule) Code() string { return "invalid-foreign-key" }

func (ForeignKeyRule) Run(_ context.Context, data *Data) ([]Diagnostic, error) {
	pkg := data.Package
	names, err := pkg.Tables()
	if err != nil {
		return nil, errors.Wrap(err, "listing tables")
	}

	// referenced column values, by "table.column"
	targets := make(map[string]map[string]struct{})
	lookup := func(table string, column int) (map[string]struct{}, error) {
		key := fmt.Sprintf("%s.%d", table, column)
		if set, ok := targets[key]; ok {
			return set, nil
		}
		rows, err := pkg.SelectRows(msidb.Select{Table: table})
		if err != nil {
			return nil, errors.Wrapf(err, "selecting rows of %s", table)
		}
		set := make(map[string]struct{}, len(rows))
		for _, row := range rows {
			if column-1 < len(row) {
				set[row[column-1].Key()] = struct{}{}
			}
		}
		targets[key] = set
		return set, nil
	}

	var found []Diagnostic
	for _, name := range names {
		columns, err := pkg.Columns(name)
		if err != nil {
			return found, errors.Wrapf(err, "reading columns of %s", name)
		}

		var rows []msidb.Row
		loaded := false
		for i, col := range columns {
			fk := col.ForeignKey
			if fk == nil {
				continue
			}
			if !pkg.HasTable(fk.Table) {
				found = append(found, errorf("Foreign key column %s in table %s is referencing a missing table: %s", col.Name, name, fk.Table))
				continue
			}

			if !loaded {
				if rows, err = pkg.SelectRows(msidb.Select{Table: name}); err != nil {
					return found, errors.Wrapf(err, "selecting rows of %s", name)
				}
				loaded = true
			}
			set, err := lookup(fk.Table, fk.Column)
			if err != nil {
				return found, err
			}

			for _, row := range rows {
				v := row[i]
				if v.IsNull() {
					continue
				}
				if _, ok := set[v.Key()]; !ok {
					found = append(found, errorf("Foreign key column %s in table %s is referencing a missing entry in table %s with key %s", col.Name, name, fk.Table, v.Key()))
				}
			}
		}
	}
	return found, nil
}
