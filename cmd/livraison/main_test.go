package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kolide/livraison/pkg/msidb"
	"github.com/kolide/livraison/pkg/packagekit"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func testBinary(t *testing.T, name string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 128), 0755))
	return path
}

func packTestMSI(t *testing.T) string {
	out := filepath.Join(t.TempDir(), "tool.msi")

	var buf bytes.Buffer
	require.NoError(t, runPack(&buf, []string{
		"-name", "tool",
		"-author", "ACME",
		"-version", "1.2.3",
		"-env-append", "PATH=[INSTALLDIR]",
		"-lint",
		"-out", out,
		testBinary(t, "tool.exe"),
	}))
	require.Equal(t, out+"\n", buf.String())

	return out
}

func TestPackAndInspect(t *testing.T) {
	t.Parallel()

	path := packTestMSI(t)

	var out bytes.Buffer
	require.NoError(t, runLint(&out, []string{path}))
	require.Equal(t, "0 diagnostic(s)\n", out.String())

	out.Reset()
	require.NoError(t, runSummary(&out, []string{path}))
	require.Contains(t, out.String(), "Installation Database")
	require.Contains(t, out.String(), "ACME")
	require.Contains(t, out.String(), "x64;1033")

	out.Reset()
	require.NoError(t, runTables(&out, []string{path}))
	for _, table := range []string{"Component", "Directory", "Environment", "File", "Media", "Property"} {
		require.Contains(t, out.String(), table+" ")
	}

	out.Reset()
	require.NoError(t, runDescribe(&out, []string{path, "File"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 8)
	require.True(t, strings.HasPrefix(lines[0], "File*"))
	require.Contains(t, lines[1], "-> Component.1")
	require.Contains(t, lines[4], "string(72)?")

	out.Reset()
	require.NoError(t, runExport(&out, []string{path, "File"}))
	rows := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, rows, 2)
	require.Equal(t, "File\tComponent_\tFileName\tFileSize\tVersion\tLanguage\tAttributes\tSequence", rows[0])
	require.True(t, strings.HasPrefix(rows[1], "tool.exe\t"))

	out.Reset()
	require.NoError(t, runStreams(&out, []string{path}))
	require.Contains(t, out.String(), "rsrc0000.cab")

	out.Reset()
	require.NoError(t, runContent(&out, []string{path}))
	require.Contains(t, out.String(), "rsrc0000.cab")
	require.Contains(t, out.String(), "tool.exe")
	require.Contains(t, out.String(), "128")

	out.Reset()
	require.NoError(t, runExtract(&out, []string{"-out", "-", path, "rsrc0000.cab"}))
	require.True(t, strings.HasPrefix(out.String(), "MSCF"))

	extracted := filepath.Join(t.TempDir(), "cabinet.cab")
	out.Reset()
	require.NoError(t, runExtract(&out, []string{"-out", extracted, path, "rsrc0000.cab"}))
	require.FileExists(t, extracted)

	require.Error(t, runDescribe(&out, []string{path, "NoSuchTable"}))
	require.Error(t, runExtract(&out, []string{"-out", "-", path, "NoSuchStream"}))
	require.Error(t, runSummary(&out, []string{filepath.Join(t.TempDir(), "missing.msi")}))
}

func TestExportSqlite(t *testing.T) {
	t.Parallel()

	path := packTestMSI(t)
	dbPath := filepath.Join(t.TempDir(), "tool.db")

	var out bytes.Buffer
	require.NoError(t, runExport(&out, []string{"-sqlite", dbPath, path}))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "File"`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestPackErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "tool.rpm")

	var buf bytes.Buffer
	require.Error(t, runPack(&buf, []string{"-target", "rpm", "-name", "tool", "-out", out, testBinary(t, "tool")}))
	require.Error(t, runPack(&buf, []string{"-out", out, testBinary(t, "tool")}), "a name is required")
	require.Error(t, runPack(&buf, []string{"-name", "tool", "-manifest", filepath.Join(dir, "missing.yaml")}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPackDebFromManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tool"), []byte("#!/bin/sh\n"), 0755))
	manifest := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
name: tool
version: 2.0.0
description: A tool
binaries:
  - source: tool
deb:
  architecture: amd64
`), 0644))

	out := filepath.Join(dir, "dist", "tool.deb")
	var buf bytes.Buffer
	require.NoError(t, runPack(&buf, []string{"-target", "deb", "-manifest", manifest, "-arch", "arm64", "-out", out}))
	require.FileExists(t, out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("!<arch>\n")))
}

func TestRunScript(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "install.ps1")

	var buf bytes.Buffer
	require.NoError(t, runScript(&buf, []string{
		"-target", "powershell",
		"-bin", "tool",
		"-download-url", "https://releases.test/{version}/{filename}",
		"-out", out,
	}))

	script, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(script), "Install-Tool -Version $Version")

	require.Error(t, runScript(&buf, []string{"-target", "fish", "-bin", "tool", "-download-url", "x"}))
	require.Error(t, runScript(&buf, []string{"-bin", "tool", "-out", out}), "a download url is required")
}

func TestEnvFlags(t *testing.T) {
	t.Parallel()

	var vars []packagekit.EnvironmentVariable
	set := envFlags{vars: &vars}
	appended := envFlags{vars: &vars, append: true}

	require.NoError(t, set.Set("TOOL_HOME=[INSTALLDIR]"))
	require.NoError(t, appended.Set("PATH=[INSTALLDIR]bin;x=y"))
	require.Error(t, set.Set("NOVALUE"))
	require.Error(t, set.Set("=value"))

	require.Equal(t, []packagekit.EnvironmentVariable{
		{Name: "TOOL_HOME", Value: "[INSTALLDIR]"},
		{Name: "PATH", Value: "[INSTALLDIR]bin;x=y", Append: true},
	}, vars)
	require.Equal(t, "", envFlags{}.String())
}

func TestDescribeColumn(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"Component_*", "string(72)", "Identifier", "-> Component.1"},
		describeColumn(msidb.Col("Component_").ID(72).PrimaryKey().References("Component", 1)),
	)
	require.Equal(t,
		[]string{"Attributes", "int16?", "", ""},
		describeColumn(msidb.Col("Attributes").Int16().Nullable()),
	)
}
