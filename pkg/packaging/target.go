package packaging

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Target is what a build produces. Exactly one of Package or Script
// is set.
type Target struct {
	Package PackageFlavor
	Script  ScriptFlavor
}

type PackageFlavor string

const (
	Msi PackageFlavor = "msi"
	Deb PackageFlavor = "deb"
)

type ScriptFlavor string

const (
	Shell      ScriptFlavor = "sh"
	Powershell ScriptFlavor = "ps1"
)

func (t *Target) String() string {
	if t.Script != "" {
		return fmt.Sprintf("script-%s", t.Script)
	}
	return fmt.Sprintf("package-%s", t.Package)
}

// PkgExtension returns the extension that the resulting file should
// have.
func (t *Target) PkgExtension() string {
	if t.Script != "" {
		return strings.ToLower(string(t.Script))
	}
	return strings.ToLower(string(t.Package))
}

// PackageFromString sets the target's package flavor from a
// command line name.
func (t *Target) PackageFromString(s string) error {
	switch strings.ToLower(s) {
	case "msi":
		t.Package = Msi
	case "deb":
		t.Package = Deb
	default:
		return errors.Errorf("unknown package target %q", s)
	}
	t.Script = ""
	return nil
}

// ScriptFromString sets the target's script flavor from a command
// line name.
func (t *Target) ScriptFromString(s string) error {
	switch strings.ToLower(s) {
	case "sh", "shell":
		t.Script = Shell
	case "pwsh", "powershell", "ps1":
		t.Script = Powershell
	default:
		return errors.Errorf("unknown script target %q", s)
	}
	t.Package = ""
	return nil
}
