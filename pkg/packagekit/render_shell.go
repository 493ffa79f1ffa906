package packagekit

import (
	"context"
	"io"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const defaultShellFilename = "{bin_name}-{target}.tar.gz"

var shellEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

func shellVars() map[string]string {
	return map[string]string{
		"version":  "${version}",
		"bin_name": "${bin_name}",
		"target":   "${target}",
		"filename": "$(get_filename)",
	}
}

// RenderShellInstaller writes a bash script that downloads the release
// matching the host, unpacks it under ~/.<bin> and adds it to PATH.
func RenderShellInstaller(ctx context.Context, w io.Writer, opts *ScriptOptions) error {
	_, span := trace.StartSpan(ctx, "packagekit.RenderShellInstaller")
	defer span.End()

	if err := opts.validate(); err != nil {
		return err
	}

	filename := opts.Filename
	if filename == "" {
		filename = defaultShellFilename
	}

	shellTemplate := `#!/usr/bin/env bash
# Installs {{.Name}}.
set -euo pipefail

skip_shell=false
version="latest"
bin_name="{{.BinName}}"
install_dir="$HOME/.{{.BinName}}"
platform=$(uname -ms)

Color_Off=''
Red=''
Green=''
Dim=''
if [[ -t 1 ]]; then
    Color_Off='\033[0m'
    Red='\033[0;31m'
    Green='\033[0;32m'
    Dim='\033[0;2m'
fi

error() {
    echo -e "${Red}error${Color_Off}:" "$@" >&2
    exit 1
}

info() {
    echo -e "${Dim}$*${Color_Off}"
}

success() {
    echo -e "${Green}$*${Color_Off}"
}

case $platform in
'Darwin x86_64')
    target=darwin-x64
    ;;
'Darwin arm64')
    target=darwin-arm64
    ;;
'Linux aarch64' | 'Linux arm64')
    target=linux-arm64
    ;;
*)
    target=linux-x64
    ;;
esac

if [[ $target = darwin-x64 ]]; then
    if [[ $(sysctl -n sysctl.proc_translated 2>/dev/null) = 1 ]]; then
        target=darwin-arm64
        info "Your shell is running in Rosetta 2. Downloading $bin_name for $target instead"
    fi
fi

parse_args() {
    while [[ $# -gt 0 ]]; do
        case $1 in
        --skip-shell)
            skip_shell=true
            shift
            ;;
        --version)
            [[ $# -ge 2 ]] || error "--version requires a value"
            version=$2
            shift 2
            ;;
        --install-dir)
            [[ $# -ge 2 ]] || error "--install-dir requires a value"
            install_dir=$2
            shift 2
            ;;
        *)
            error "Unknown argument: $1"
            ;;
        esac
    done
}
{{if .LatestVersionURL}}
find_latest_version() {
    curl --fail --silent --show-error --location "{{.LatestVersionURL}}"
}

resolve_version() {
    if [[ $version = latest ]]; then
        version=$(find_latest_version) || error "Failed to find the latest version of $bin_name"
    fi
}
{{end}}
get_filename() {
    echo "{{.Filename}}"
}

get_download_url() {
    echo "{{.DownloadURL}}"
}

download_{{.Func}}() {
    local url archive
    url=$(get_download_url)
    archive="$install_dir/$(get_filename)"

    info "Downloading $bin_name $version from $url"
    curl --fail --location --progress-bar --output "$archive" "$url" ||
        error "Failed to download $bin_name from \"$url\""

    case $archive in
    *.tar.gz | *.tgz)
        tar -xzf "$archive" -C "$install_dir/bin" ||
            error "Failed to extract $bin_name"
        rm -f "$archive"
        ;;
    *)
        mv -f "$archive" "$install_dir/bin/$bin_name"
        ;;
    esac

    chmod +x "$install_dir/bin/$bin_name" ||
        error "Failed to set permissions on $bin_name executable"
}

check_dependencies() {
    command -v curl >/dev/null || error "curl is required to install $bin_name"
    command -v tar >/dev/null || error "tar is required to install $bin_name"
}

ensure_containing_dir_exists() {
    mkdir -p "$install_dir/bin" ||
        error "Failed to create install directory \"$install_dir/bin\""
}

setup_shell() {
    local bin_dir="$install_dir/bin"
    local profile
    local commands

    case $(basename "${SHELL:-bash}") in
    zsh)
        profile="$HOME/.zshrc"
        commands=("export {{.EnvPrefix}}_PATH=\"$install_dir\"" "export PATH=\"$bin_dir:\$PATH\"")
        ;;
    fish)
        profile="$HOME/.config/fish/config.fish"
        commands=("set --export {{.EnvPrefix}}_PATH \"$install_dir\"" "set --export PATH \"$bin_dir\" \$PATH")
        ;;
    *)
        profile="$HOME/.bashrc"
        commands=("export {{.EnvPrefix}}_PATH=\"$install_dir\"" "export PATH=\"$bin_dir:\$PATH\"")
        ;;
    esac

    if grep -q "{{.EnvPrefix}}_PATH" "$profile" 2>/dev/null; then
        info "$profile already adds $bin_name to \$PATH"
        return
    fi

    mkdir -p "$(dirname "$profile")"
    {
        echo ""
        echo "# $bin_name"
        for command in "${commands[@]}"; do
            echo "$command"
        done
    } >>"$profile"

    info "Added \"$bin_dir\" to \$PATH in \"$profile\""
}

main() {
    parse_args "$@"
    check_dependencies
{{- if .LatestVersionURL}}
    resolve_version
{{- end}}
    ensure_containing_dir_exists
    download_{{.Func}}

    if [[ $skip_shell = false ]]; then
        setup_shell
    fi

    success "$bin_name $version was installed to $install_dir/bin/$bin_name"
}

main "$@"
`

	var data = struct {
		Name             string
		BinName          string
		Func             string
		EnvPrefix        string
		Filename         string
		DownloadURL      string
		LatestVersionURL string
	}{
		Name:             strings.ReplaceAll(opts.displayName(), "\n", " "),
		BinName:          opts.BinName,
		Func:             functionSuffix(opts.BinName),
		EnvPrefix:        strings.ToUpper(functionSuffix(opts.BinName)),
		Filename:         expandPlaceholders(filename, shellEscaper.Replace, shellVars()),
		DownloadURL:      expandPlaceholders(opts.DownloadURL, shellEscaper.Replace, shellVars()),
		LatestVersionURL: shellEscaper.Replace(opts.LatestVersionURL),
	}

	t, err := template.New("ShellInstaller").Parse(shellTemplate)
	if err != nil {
		return errors.Wrap(err, "not able to parse shell installer template")
	}
	return t.ExecuteTemplate(w, "ShellInstaller", data)
}
