package packagekit

import (
	"fmt"
	"strings"

	"github.com/kolide/livraison/pkg/msi/ident"
	"github.com/kolide/livraison/pkg/msi/tables"
	"github.com/pkg/errors"
	"github.com/serenize/snaker"
)

// environmentRows gives every variable its own component so it can be
// added and removed independently of the files.
func environmentRows(vars []EnvironmentVariable, deriver ident.Deriver, attrs tables.ComponentAttributes) ([]tables.Component, []tables.Environment, error) {
	var (
		components []tables.Component
		rows       []tables.Environment
	)
	seen := make(map[string]int)

	for _, v := range vars {
		if v.Name == "" {
			return nil, nil, errors.New("environment variable name is blank")
		}

		key := "env_" + identifierPart(v.Name)
		if n := seen[key]; n > 0 {
			key = fmt.Sprintf("%s_%d", key, n)
		}
		seen[key]++

		id := deriver.ComponentID(key)
		components = append(components, tables.Component{
			Component:   key,
			ComponentID: &id,
			Directory:   installDirKey,
			Attributes:  attrs,
		})

		value := v.Value
		if v.Append {
			value = "[~];" + value
		}
		rows = append(rows, tables.Environment{
			Environment: key,
			Name:        "=-" + v.Name,
			Value:       value,
			Component:   key,
		})
	}

	return components, rows, nil
}

// identifierPart turns s into something usable inside an installer
// identifier. Upper case names (eg: PATH) are only lowered.
func identifierPart(s string) string {
	snake := strings.ToLower(s)
	if s != strings.ToUpper(s) {
		snake = snaker.CamelToSnake(s)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			return r
		}
		return '_'
	}, snake)
}
