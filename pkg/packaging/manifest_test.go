package packaging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kolide/livraison/pkg/packagekit"
	"github.com/kolide/livraison/pkg/packagekit/deb"
	"github.com/stretchr/testify/require"
)

const testManifest = `
name: tool
version: 1.2.3
description: A tool
author: ACME
binaries:
  - source: build/tool.exe
    dest: bin/tool.exe
  - source: /opt/helper
environment:
  - name: PATH
    value: "[INSTALLDIR]bin"
    append: true
deb:
  epoch: 2
  revision: "3"
  architecture: amd64
  priority: optional
  section: utils
  depends: [libc6]
  maintainer: {name: ACME, email: ops@acme.test}
  conffiles: [{source: tool.conf, dest: /etc/tool/tool.conf}]
msi:
  per_user: true
  icon: tool.ico
`

func TestParseManifest(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)

	require.Equal(t, "tool", m.Name)
	require.Equal(t, "1.2.3", m.Version)
	require.Len(t, m.Binaries, 2)
	require.Equal(t, "build/tool.exe", m.Binaries[0].Source)
	require.Equal(t, 2, m.Deb.Epoch)
	require.Equal(t, "ops@acme.test", m.Deb.Maintainer.Email)
	require.True(t, m.Msi.PerUser)

	po := m.PackageOptions()
	require.Equal(t, []packagekit.Binary{
		{Source: "build/tool.exe", Dest: "bin/tool.exe"},
		{Source: "/opt/helper"},
	}, po.Binaries)
	require.Equal(t, []packagekit.EnvironmentVariable{
		{Name: "PATH", Value: "[INSTALLDIR]bin", Append: true},
	}, po.Environment)
	require.Equal(t, "tool.ico", po.Icon)
	require.True(t, po.PerUser)

	do := m.DebOptions()
	require.Equal(t, "3", do.Revision)
	require.Equal(t, []string{"libc6"}, do.Depends)
	require.Equal(t, deb.Maintainer{Name: "ACME", Email: "ops@acme.test"}, do.Maintainer)
	require.Equal(t, []packagekit.Conffile{{Source: "tool.conf", Dest: "/etc/tool/tool.conf"}}, do.Conffiles)
}

func TestParseManifestJSON(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(`{"name": "tool", "binaries": [{"source": "tool"}]}`))
	require.NoError(t, err)
	require.Equal(t, "tool", m.Name)
	require.Nil(t, m.Deb.Maintainer)
	require.Equal(t, deb.Maintainer{}, m.DebOptions().Maintainer)
}

func TestParseManifestInvalid(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name     string
		manifest string
	}{
		{name: "not yaml", manifest: "name: [tool"},
		{name: "missing name", manifest: "version: 1.0.0"},
		{name: "empty name", manifest: `name: ""`},
		{name: "unknown field", manifest: "name: tool\nlicense: MIT"},
		{name: "binary without source", manifest: "name: tool\nbinaries: [{dest: bin/tool}]"},
		{name: "bad priority", manifest: "name: tool\ndeb: {priority: urgent}"},
		{name: "relative conffile", manifest: "name: tool\ndeb: {conffiles: [{source: a, dest: etc/a}]}"},
		{name: "variable with equals", manifest: "name: tool\nenvironment: [{name: A=B, value: x}]"},
		{name: "per user not bool", manifest: "name: tool\nmsi: {per_user: maybe}"},
	}

	for _, tt := range tests {
		_, err := ParseManifest([]byte(tt.manifest))
		require.Error(t, err, tt.name)
	}
}

func TestLoadManifestResolvesPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0644))

	m, err := LoadManifest(path)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "build", "tool.exe"), m.Binaries[0].Source)
	require.Equal(t, "/opt/helper", m.Binaries[1].Source)
	require.Equal(t, filepath.Join(dir, "tool.conf"), m.Deb.Conffiles[0].Source)
	require.Equal(t, "/etc/tool/tool.conf", m.Deb.Conffiles[0].Dest)
	require.Equal(t, filepath.Join(dir, "tool.ico"), m.Msi.Icon)

	_, err = LoadManifest(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
