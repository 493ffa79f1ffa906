package packagekit

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/serenize/snaker"
)

// ScriptOptions describe where an install script fetches a release
// from. Filename and DownloadURL are templates: {version}, {bin_name}
// and {target} are replaced at install time, DownloadURL may also use
// {filename}.
type ScriptOptions struct {
	Name             string // shown in the installed programs list, defaults to BinName
	BinName          string
	Filename         string
	DownloadURL      string
	LatestVersionURL string // optional, returns the latest version as plain text
}

var (
	binNameRegex     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	placeholderRegex = regexp.MustCompile(`\{(version|bin_name|target|filename)\}`)
)

func (o ScriptOptions) validate() error {
	if !binNameRegex.MatchString(o.BinName) {
		return errors.Errorf("invalid binary name %q", o.BinName)
	}
	if o.DownloadURL == "" {
		return errors.New("download url is required")
	}
	if strings.Contains(o.Filename, "{filename}") {
		return errors.New("filename template cannot reference {filename}")
	}
	return nil
}

func (o ScriptOptions) displayName() string {
	if o.Name != "" {
		return o.Name
	}
	return o.BinName
}

// expandPlaceholders escapes the literal parts of tmpl for the target
// language and swaps placeholders for the matching variable reference.
func expandPlaceholders(tmpl string, escape func(string) string, vars map[string]string) string {
	var sb strings.Builder

	last := 0
	for _, m := range placeholderRegex.FindAllStringSubmatchIndex(tmpl, -1) {
		sb.WriteString(escape(tmpl[last:m[0]]))
		sb.WriteString(vars[tmpl[m[2]:m[3]]])
		last = m[1]
	}
	sb.WriteString(escape(tmpl[last:]))

	return sb.String()
}

// functionSuffix is the binary name as a snake case identifier, for
// shell function names.
func functionSuffix(bin string) string {
	return strings.ToLower(identifierPart(strings.ReplaceAll(bin, ".", "_")))
}

// cmdletNoun is the binary name in CamelCase, for PowerShell function
// names.
func cmdletNoun(bin string) string {
	return snaker.SnakeToCamel(functionSuffix(bin))
}
