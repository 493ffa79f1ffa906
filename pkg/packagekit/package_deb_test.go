package packagekit

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kolide/kit/env"
	"github.com/kolide/livraison/pkg/packagekit/deb"
	"github.com/stretchr/testify/require"
)

func TestPackageDebRoundTrip(t *testing.T) {
	t.Parallel()

	po := &PackageOptions{
		Name:        "tool",
		Version:     "1.2.3",
		Description: "A tool\nthat does things",
		Binaries:    writeBinaries(t, 2000, "bin/tool", "helper"),
	}

	conf := filepath.Join(t.TempDir(), "tool.conf")
	require.NoError(t, os.WriteFile(conf, []byte("k=v\n"), 0644))

	do := &DebOptions{
		Epoch:        1,
		Architecture: "amd64",
		Maintainer:   deb.Maintainer{Name: "ACME", Email: "ops@acme.test"},
		Priority:     "optional",
		Section:      "utils",
		Depends:      []string{"libc6"},
		Conffiles:    []Conffile{{Source: conf, Dest: "/etc/tool/tool.conf"}},
	}

	var buf bytes.Buffer
	require.NoError(t, PackageDeb(context.TODO(), &buf, po, do))

	archive, err := deb.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	fields, err := deb.ParseControl(archive.Control["control"])
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"Package":        "tool",
		"Version":        "1:1.2.3-1",
		"Architecture":   "amd64",
		"Description":    "A tool\nthat does things",
		"Maintainer":     "ACME <ops@acme.test>",
		"Priority":       "optional",
		"Section":        "utils",
		"Depends":        "libc6",
		"Installed-Size": "4",
	}, fields)

	require.Equal(t, "/etc/tool/tool.conf\n", string(archive.Control["conffiles"]))

	require.Len(t, archive.Data, 3)
	tool := archive.Data["usr/local/bin/tool"]
	require.Len(t, tool, 2000)
	require.Contains(t, archive.Data, "usr/local/bin/helper")
	require.Equal(t, "k=v\n", string(archive.Data["etc/tool/tool.conf"]))

	sums := string(archive.Control["md5sums"])
	require.Contains(t, sums, fmt.Sprintf("%x  usr/local/bin/tool\n", md5.Sum(tool)))
	require.Equal(t, 3, strings.Count(sums, "\n"))
}

func TestPackageDebDefaults(t *testing.T) {
	t.Parallel()

	po := &PackageOptions{
		Name:        "tool",
		Description: "A tool",
		Binaries:    writeBinaries(t, 1, "tool"),
	}

	var buf bytes.Buffer
	require.NoError(t, PackageDeb(context.TODO(), &buf, po, nil))

	archive, err := deb.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	fields, err := deb.ParseControl(archive.Control["control"])
	require.NoError(t, err)
	require.Equal(t, "1.0.0-1", fields["Version"])
	require.Equal(t, "all", fields["Architecture"])
	require.Equal(t, "Unknown <unknown@unknown.com>", fields["Maintainer"])
	require.NotContains(t, archive.Control, "conffiles")
}

func TestPackageDebErrors(t *testing.T) {
	t.Parallel()

	binaries := writeBinaries(t, 1, "a/tool", "b/tool")

	var buf bytes.Buffer
	err := PackageDeb(context.TODO(), &buf, &PackageOptions{Name: "tool", Description: "x", Binaries: binaries}, nil)
	require.Error(t, err, "two binaries with the same name collide in /usr/local/bin")

	err = PackageDeb(context.TODO(), &buf, &PackageOptions{Name: "tool", Description: "x"}, &DebOptions{
		Conffiles: []Conffile{{Source: binaries[0].Source, Dest: "relative/path"}},
	})
	require.Error(t, err)

	err = PackageDeb(context.TODO(), &buf, &PackageOptions{Name: "Tool", Description: "x"}, nil)
	require.Error(t, err)
}

func TestPackageDebDpkg(t *testing.T) {
	t.Parallel()
	// Needs dpkg-deb on the path, so only run where packaging tools
	// are known to exist.
	if !env.Bool("CI_TEST_PACKAGING", false) {
		t.Skip("No packaging tools")
	}

	po := &PackageOptions{
		Name:        "tool",
		Version:     "2.0.0",
		Description: "A tool",
		Binaries:    writeBinaries(t, 10, "tool"),
	}

	out := filepath.Join(t.TempDir(), "tool.deb")
	f, err := os.Create(out)
	require.NoError(t, err)
	require.NoError(t, PackageDeb(context.TODO(), f, po, nil))
	require.NoError(t, f.Close())

	version, err := exec.Command("dpkg-deb", "-f", out, "Version").Output()
	require.NoError(t, err)
	require.Equal(t, "2.0.0-1", strings.TrimSpace(string(version)))
}
