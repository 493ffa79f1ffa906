package packagekit

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandPlaceholders(t *testing.T) {
	t.Parallel()

	actual := expandPlaceholders(`https://x.test/"{version}"/{filename}$`, shellEscaper.Replace, shellVars())
	require.Equal(t, `https://x.test/\"${version}\"/$(get_filename)\$`, actual)

	actual = expandPlaceholders("{bin_name}-{target}-{unknown}.zip", psEscaper.Replace, powershellVars())
	require.Equal(t, "${BinName}-${Target}-{unknown}.zip", actual)
}

func TestScriptNames(t *testing.T) {
	t.Parallel()

	require.Equal(t, "my_tool", functionSuffix("my-tool"))
	require.Equal(t, "my_tool", functionSuffix("MyTool"))
	require.Equal(t, "tool_exe", functionSuffix("tool.exe"))
	require.Equal(t, "MyTool", cmdletNoun("my-tool"))
}

func TestScriptOptionsValidate(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name string
		opts ScriptOptions
	}{
		{name: "no bin", opts: ScriptOptions{DownloadURL: "https://x.test"}},
		{name: "bin with space", opts: ScriptOptions{BinName: "my tool", DownloadURL: "https://x.test"}},
		{name: "bin with quote", opts: ScriptOptions{BinName: `tool"`, DownloadURL: "https://x.test"}},
		{name: "no url", opts: ScriptOptions{BinName: "tool"}},
		{name: "recursive filename", opts: ScriptOptions{BinName: "tool", Filename: "{filename}", DownloadURL: "https://x.test"}},
	}

	for _, tt := range tests {
		require.Error(t, tt.opts.validate(), tt.name)

		var out bytes.Buffer
		opts := tt.opts
		require.Error(t, RenderShellInstaller(context.TODO(), &out, &opts), tt.name)
		require.Error(t, RenderPowershellInstaller(context.TODO(), &out, &opts), tt.name)
	}
}

func TestRenderShellInstaller(t *testing.T) {
	t.Parallel()

	opts := &ScriptOptions{
		BinName:     "my-tool",
		DownloadURL: "https://releases.test/{version}/{filename}",
	}

	var out bytes.Buffer
	require.NoError(t, RenderShellInstaller(context.TODO(), &out, opts))
	script := out.String()

	expectedOutputStrings := []string{
		"#!/usr/bin/env bash\n",
		`bin_name="my-tool"`,
		`install_dir="$HOME/.my-tool"`,
		"'Linux aarch64' | 'Linux arm64')",
		"sysctl -n sysctl.proc_translated",
		`echo "${bin_name}-${target}.tar.gz"`,
		`echo "https://releases.test/${version}/$(get_filename)"`,
		"download_my_tool() {",
		"    download_my_tool\n",
		"MY_TOOL_PATH",
		`main "$@"`,
	}
	for _, s := range expectedOutputStrings {
		require.Contains(t, script, s)
	}

	require.NotContains(t, script, "find_latest_version")
	require.NotContains(t, script, "{{")
	require.True(t, strings.HasSuffix(script, "main \"$@\"\n"))
}

func TestRenderShellInstallerLatest(t *testing.T) {
	t.Parallel()

	opts := &ScriptOptions{
		BinName:          "tool",
		Filename:         "{bin_name}_{version}_{target}.tgz",
		DownloadURL:      "https://releases.test/{filename}",
		LatestVersionURL: "https://releases.test/latest",
	}

	var out bytes.Buffer
	require.NoError(t, RenderShellInstaller(context.TODO(), &out, opts))
	script := out.String()

	require.Contains(t, script, `curl --fail --silent --show-error --location "https://releases.test/latest"`)
	require.Contains(t, script, "    resolve_version\n")
	require.Contains(t, script, `echo "${bin_name}_${version}_${target}.tgz"`)
}

func TestRenderPowershellInstaller(t *testing.T) {
	t.Parallel()

	opts := &ScriptOptions{
		Name:             `The "Tool"`,
		BinName:          "my-tool",
		DownloadURL:      "https://releases.test/{version}/{filename}",
		LatestVersionURL: "https://releases.test/latest",
	}

	var out bytes.Buffer
	require.NoError(t, RenderPowershellInstaller(context.TODO(), &out, opts))
	script := out.String()

	expectedOutputStrings := []string{
		`[String]$Version = "latest",`,
		`$BinName = "my-tool"`,
		"function New-TemporaryDirectory {",
		"function Find-Latest-Version {",
		`(Invoke-WebRequest -Uri "https://releases.test/latest" -UseBasicParsing)`,
		`"ARM64-based"`,
		`"${BinName}-${Target}.zip"`,
		`"https://releases.test/${Version}/${Filename}"`,
		"function Install-MyTool {",
		"Uninstall\\my-tool",
		"-Value \"The `\"Tool`\"\"",
		`[Environment]::GetEnvironmentVariable("Path", "User")`,
		"Install-MyTool -Version $Version\n",
	}
	for _, s := range expectedOutputStrings {
		require.Contains(t, script, s)
	}
}
