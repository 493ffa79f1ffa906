package packagekit

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// FormatProductVersion converts a semver string into the
// major.minor.build form Windows Installer compares: major and minor at
// most 255, build at most 65535. Pre-release and build metadata are
// dropped.
func FormatProductVersion(version string) (string, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return "", errors.Wrapf(err, "parsing version %s", version)
	}

	if v.Major() > 255 || v.Minor() > 255 || v.Patch() > 65535 {
		return "", errors.Errorf("version %s is out of range for an installer product version", version)
	}

	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()), nil
}

// formatDebVersion renders [epoch:]upstream[-revision].
func formatDebVersion(epoch int, version, revision string) string {
	var sb strings.Builder
	if epoch > 0 {
		fmt.Fprintf(&sb, "%d:", epoch)
	}
	sb.WriteString(version)
	if revision != "" {
		sb.WriteString("-")
		sb.WriteString(revision)
	}
	return sb.String()
}
