// Package deb assembles Debian binary packages: the control file, the
// gzipped tar members and the outer ar archive.
package deb

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var priorities = map[string]struct{}{
	"required":  {},
	"important": {},
	"standard":  {},
	"optional":  {},
}

type Maintainer struct {
	Name  string
	Email string
}

func (m Maintainer) String() string {
	return fmt.Sprintf("%s <%s>", m.Name, m.Email)
}

// Control is the metadata dpkg reads from the control member.
type Control struct {
	Package      string
	Version      string // already rendered as [epoch:]upstream[-revision]
	Architecture string
	Maintainer   Maintainer
	Description  string

	Priority      string
	Section       string
	Depends       []string
	InstalledSize int64 // KiB, omitted when zero
}

func (c Control) Validate() error {
	if c.Package == "" {
		return errors.New("control: package name is required")
	}
	if strings.ContainsAny(c.Package, " \t\n_") || strings.ToLower(c.Package) != c.Package {
		return errors.Errorf("control: invalid package name %q", c.Package)
	}
	if c.Version == "" {
		return errors.New("control: version is required")
	}
	if c.Architecture == "" {
		return errors.New("control: architecture is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		return errors.New("control: description is required")
	}
	if c.Priority != "" {
		if _, ok := priorities[c.Priority]; !ok {
			return errors.Errorf("control: unknown priority %s", c.Priority)
		}
	}
	return nil
}

// Bytes renders the control file. Description continuation lines are
// indented by one space, blank ones become " .".
func (c Control) Bytes() []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Package: %s\n", c.Package)
	fmt.Fprintf(&sb, "Version: %s\n", c.Version)
	fmt.Fprintf(&sb, "Architecture: %s\n", c.Architecture)

	lines := strings.Split(strings.TrimRight(c.Description, "\n"), "\n")
	fmt.Fprintf(&sb, "Description: %s\n", lines[0])
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			sb.WriteString(" .\n")
			continue
		}
		fmt.Fprintf(&sb, " %s\n", line)
	}

	fmt.Fprintf(&sb, "Maintainer: %s\n", c.Maintainer)

	if c.Priority != "" {
		fmt.Fprintf(&sb, "Priority: %s\n", c.Priority)
	}
	if c.Section != "" {
		fmt.Fprintf(&sb, "Section: %s\n", c.Section)
	}
	if len(c.Depends) > 0 {
		fmt.Fprintf(&sb, "Depends: %s\n", strings.Join(c.Depends, ", "))
	}
	if c.InstalledSize > 0 {
		fmt.Fprintf(&sb, "Installed-Size: %d\n", c.InstalledSize)
	}

	return []byte(sb.String())
}

// ParseControl reads the fields of a control file. Continuation lines
// are folded into the preceding field.
func ParseControl(data []byte) (map[string]string, error) {
	fields := make(map[string]string)
	last := ""

	for i, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if strings.HasPrefix(line, " ") {
			if last == "" {
				return nil, errors.Errorf("control line %d: continuation without a field", i+1)
			}
			fields[last] += "\n" + strings.TrimPrefix(line, " ")
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errors.Errorf("control line %d: missing colon", i+1)
		}
		last = name
		fields[name] = strings.TrimSpace(value)
	}

	return fields, nil
}
