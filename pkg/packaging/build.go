package packaging

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/livraison/pkg/contexts/ctxlog"
	"github.com/kolide/livraison/pkg/msidb"
	msibbolt "github.com/kolide/livraison/pkg/msidb/bbolt"
	"github.com/kolide/livraison/pkg/packagekit"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const (
	defaultOutputDir      = "out"
	defaultMSIVersion     = "0.0.0"
	defaultMSIDescription = "No description."
	defaultMSIAuthor      = "Unknown"
)

// BuildOptions describe a single artifact to produce.
type BuildOptions struct {
	Target     Target
	OutputPath string // defaults to out/<name>.<ext>

	Package *packagekit.PackageOptions
	Deb     *packagekit.DebOptions
	MSIOpts []packagekit.MSIOpt

	Script *packagekit.ScriptOptions
}

// DefaultOutputPath is where an artifact named name lands when no path
// is given.
func DefaultOutputPath(name string, target Target) string {
	return filepath.Join(defaultOutputDir, name+"."+target.PkgExtension())
}

// Build produces the artifact described by opts and returns the path it
// was written to. The output appears atomically: a failed build leaves
// nothing behind.
func Build(ctx context.Context, opts *BuildOptions) (string, error) {
	ctx, span := trace.StartSpan(ctx, "packaging.Build")
	defer span.End()

	ctx = ctxlog.With(ctx, "target", opts.Target.String())

	out := opts.OutputPath
	var err error
	switch {
	case opts.Target.Script != "":
		if opts.Script == nil {
			return "", errors.New("script options are required")
		}
		if out == "" {
			out = DefaultOutputPath(opts.Script.BinName, opts.Target)
		}
		err = BuildScript(ctx, out, opts.Target.Script, opts.Script)
	case opts.Target.Package == Msi:
		if opts.Package == nil {
			return "", errors.New("package options are required")
		}
		if out == "" {
			out = DefaultOutputPath(opts.Package.Name, opts.Target)
		}
		err = BuildMSI(ctx, out, opts.Package, opts.MSIOpts...)
	case opts.Target.Package == Deb:
		if opts.Package == nil {
			return "", errors.New("package options are required")
		}
		if out == "" {
			out = DefaultOutputPath(opts.Package.Name, opts.Target)
		}
		err = BuildDeb(ctx, out, opts.Package, opts.Deb)
	default:
		return "", errors.Errorf("unsupported target %s", opts.Target.String())
	}
	if err != nil {
		return "", err
	}

	level.Info(ctxlog.FromContext(ctx)).Log(
		"msg", "wrote artifact",
		"path", out,
	)
	return out, nil
}

// BuildMSI packs po into a bbolt backed installer database at out.
func BuildMSI(ctx context.Context, out string, po *packagekit.PackageOptions, msiOpts ...packagekit.MSIOpt) error {
	ctx, span := trace.StartSpan(ctx, "packaging.BuildMSI")
	defer span.End()

	msiPo := *po
	if msiPo.Version == "" {
		msiPo.Version = defaultMSIVersion
	}
	if msiPo.Description == "" {
		msiPo.Description = defaultMSIDescription
	}
	if msiPo.Author == "" {
		msiPo.Author = defaultMSIAuthor
	}

	ctx = packagekit.InitContext(ctx)
	err := replaceFile(out, func(tmp string) error {
		pkg, err := msibbolt.Create(tmp, msidb.CodepageISO88591)
		if err != nil {
			return err
		}
		if err := packagekit.PackageMSI(ctx, pkg, &msiPo, msiOpts...); err != nil {
			pkg.Close()
			return err
		}
		return pkg.Close()
	})
	if err != nil {
		return err
	}

	productCode, _ := packagekit.GetFromContext(ctx, packagekit.ContextProductCodeKey)
	productVersion, _ := packagekit.GetFromContext(ctx, packagekit.ContextProductVersionKey)
	level.Debug(ctxlog.FromContext(ctx)).Log(
		"msg", "packed msi",
		"product_code", productCode,
		"product_version", productVersion,
	)
	return nil
}

// BuildDeb writes a Debian package for po to out.
func BuildDeb(ctx context.Context, out string, po *packagekit.PackageOptions, do *packagekit.DebOptions) error {
	ctx, span := trace.StartSpan(ctx, "packaging.BuildDeb")
	defer span.End()

	return writeFile(out, 0644, func(w io.Writer) error {
		return packagekit.PackageDeb(ctx, w, po, do)
	})
}

// BuildScript renders an install script of the given flavor to out.
func BuildScript(ctx context.Context, out string, flavor ScriptFlavor, so *packagekit.ScriptOptions) error {
	ctx, span := trace.StartSpan(ctx, "packaging.BuildScript")
	defer span.End()

	switch flavor {
	case Shell:
		return writeFile(out, 0755, func(w io.Writer) error {
			return packagekit.RenderShellInstaller(ctx, w, so)
		})
	case Powershell:
		return writeFile(out, 0644, func(w io.Writer) error {
			return packagekit.RenderPowershellInstaller(ctx, w, so)
		})
	default:
		return errors.Errorf("unknown script flavor %q", flavor)
	}
}

// writeFile streams into a temporary sibling of out and renames it into
// place once fn succeeds.
func writeFile(out string, mode os.FileMode, fn func(io.Writer) error) error {
	return replaceFile(out, func(tmp string) error {
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, mode)
		if err != nil {
			return errors.Wrapf(err, "opening %s", tmp)
		}
		if err := fn(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Chmod(mode); err != nil {
			f.Close()
			return errors.Wrapf(err, "chmod %s", tmp)
		}
		return errors.Wrapf(f.Close(), "closing %s", tmp)
	})
}

func replaceFile(out string, fn func(tmp string) error) error {
	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating output directory %s", dir)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(out)+".*")
	if err != nil {
		return errors.Wrap(err, "creating temporary output")
	}
	tmp := f.Name()
	f.Close()

	if err := fn(tmp); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "moving output to %s", out)
	}
	return nil
}
