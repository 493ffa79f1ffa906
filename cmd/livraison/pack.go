package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/kolide/livraison/pkg/packagekit"
	"github.com/kolide/livraison/pkg/packaging"
	"github.com/pkg/errors"
)

// envFlags accumulates -env NAME=VALUE flags (can be specified multiple
// times).
type envFlags struct {
	vars   *[]packagekit.EnvironmentVariable
	append bool
}

func (e envFlags) String() string {
	if e.vars == nil {
		return ""
	}
	return fmt.Sprintf("%v", *e.vars)
}

func (e envFlags) Set(value string) error {
	name, val, ok := strings.Cut(value, "=")
	if !ok || name == "" {
		return errors.Errorf("expected NAME=VALUE, got %q", value)
	}
	*e.vars = append(*e.vars, packagekit.EnvironmentVariable{Name: name, Value: val, Append: e.append})
	return nil
}

func runPack(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison pack", flag.ExitOnError)
	var (
		flTarget = flagset.String(
			"target",
			"msi",
			"the package to build: msi or deb",
		)
		flName = flagset.String(
			"name",
			"",
			"the product name, also the deb package name",
		)
		flVersion = flagset.String(
			"version",
			"",
			"the product version (default 0.0.0 for msi, 1.0.0 for deb)",
		)
		flDescription = flagset.String(
			"description",
			"",
			"the product description",
		)
		flAuthor = flagset.String(
			"author",
			"",
			"the manufacturer shown by the installer",
		)
		flOut = flagset.String(
			"out",
			"",
			"where to write the package (default out/<name>.<target>)",
		)
		flManifest = flagset.String(
			"manifest",
			"",
			"a bundle manifest to read options from, flags override it",
		)
		flLint = flagset.Bool(
			"lint",
			false,
			"lint the msi after building and fail on any diagnostic",
		)
		flPerUser = flagset.Bool(
			"per-user",
			false,
			"build an msi that installs for the current user only",
		)
		flIcon = flagset.String(
			"icon",
			"",
			"an .ico file shown in Programs and Features",
		)
		flArch = flagset.String(
			"arch",
			"",
			"the deb architecture (default all)",
		)
		flDebug = flagset.Bool(
			"debug",
			false,
			"enable debug logging",
		)
		_ = flagset.String(
			"config",
			"",
			"config file to parse options from (optional)",
		)
	)

	var envVars []packagekit.EnvironmentVariable
	flagset.Var(envFlags{vars: &envVars}, "env", "an environment variable NAME=VALUE set by the msi (repeatable)")
	flagset.Var(envFlags{vars: &envVars, append: true}, "env-append", "an environment variable NAME=VALUE appended to by the msi (repeatable)")

	flagset.Usage = usageFor(flagset, "livraison pack [flags] binary...")
	if err := parseFlags(flagset, args); err != nil {
		return errors.Wrap(err, "parsing flags")
	}

	target := packaging.Target{}
	if err := target.PackageFromString(*flTarget); err != nil {
		return err
	}

	manifest := &packaging.Manifest{}
	if *flManifest != "" {
		var err error
		if manifest, err = packaging.LoadManifest(*flManifest); err != nil {
			return err
		}
	}
	po := manifest.PackageOptions()
	do := manifest.DebOptions()

	overrides := []struct {
		value string
		field *string
	}{
		{*flName, &po.Name},
		{*flVersion, &po.Version},
		{*flDescription, &po.Description},
		{*flAuthor, &po.Author},
		{*flIcon, &po.Icon},
		{*flArch, &do.Architecture},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.field = o.value
		}
	}
	if *flPerUser {
		po.PerUser = true
	}
	for _, bin := range flagset.Args() {
		po.Binaries = append(po.Binaries, packagekit.Binary{Source: bin})
	}
	po.Environment = append(po.Environment, envVars...)

	if po.Name == "" {
		return errors.New("a name is required, use -name or a manifest")
	}

	var msiOpts []packagekit.MSIOpt
	if *flLint {
		msiOpts = append(msiOpts, packagekit.WithLint())
	}

	path, err := packaging.Build(newContext(*flDebug), &packaging.BuildOptions{
		Target:     target,
		OutputPath: *flOut,
		Package:    po,
		Deb:        do,
		MSIOpts:    msiOpts,
	})
	if err != nil {
		var lintErr packagekit.LintError
		if errors.As(err, &lintErr) {
			printDiagnostics(out, lintErr.Report)
		}
		return errors.Wrap(err, "could not build package")
	}

	fmt.Fprintln(out, path)
	return nil
}

func runScript(out io.Writer, args []string) error {
	flagset := flag.NewFlagSet("livraison script", flag.ExitOnError)
	var (
		flTarget = flagset.String(
			"target",
			"sh",
			"the script to render: sh or pwsh",
		)
		flName = flagset.String(
			"name",
			"",
			"the product name shown once installed (default the binary name)",
		)
		flBin = flagset.String(
			"bin",
			"",
			"the binary the script installs",
		)
		flFilename = flagset.String(
			"filename",
			"",
			"the release archive name, may use {version}, {bin_name} and {target}",
		)
		flDownloadURL = flagset.String(
			"download-url",
			"",
			"where releases are downloaded from, may also use {filename}",
		)
		flLatestVersionURL = flagset.String(
			"latest-version-url",
			"",
			"a url returning the latest version as plain text (optional)",
		)
		flOut = flagset.String(
			"out",
			"",
			"where to write the script (default out/<bin>.<ext>)",
		)
		flDebug = flagset.Bool(
			"debug",
			false,
			"enable debug logging",
		)
		_ = flagset.String(
			"config",
			"",
			"config file to parse options from (optional)",
		)
	)

	flagset.Usage = usageFor(flagset, "livraison script [flags]")
	if err := parseFlags(flagset, args); err != nil {
		return errors.Wrap(err, "parsing flags")
	}

	target := packaging.Target{}
	if err := target.ScriptFromString(*flTarget); err != nil {
		return err
	}

	path, err := packaging.Build(newContext(*flDebug), &packaging.BuildOptions{
		Target:     target,
		OutputPath: *flOut,
		Script: &packagekit.ScriptOptions{
			Name:             *flName,
			BinName:          *flBin,
			Filename:         *flFilename,
			DownloadURL:      *flDownloadURL,
			LatestVersionURL: *flLatestVersionURL,
		},
	})
	if err != nil {
		return errors.Wrap(err, "could not render script")
	}

	fmt.Fprintln(out, path)
	return nil
}
