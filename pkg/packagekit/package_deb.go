package packagekit

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/livraison/pkg/contexts/ctxlog"
	"github.com/kolide/livraison/pkg/packagekit/deb"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const (
	debBinDir = "/usr/local/bin"

	defaultDebVersion      = "1.0.0"
	defaultDebRevision     = "1"
	defaultDebArchitecture = "all"
)

var defaultDebMaintainer = deb.Maintainer{Name: "Unknown", Email: "unknown@unknown.com"}

// Conffile is a configuration file dpkg preserves across upgrades.
type Conffile struct {
	Source string
	Dest   string // absolute install path
}

// DebOptions holds the Debian specific settings. Zero values fall back
// to defaults.
type DebOptions struct {
	Epoch        int
	Revision     string
	Architecture string
	Maintainer   deb.Maintainer
	Priority     string
	Section      string
	Depends      []string
	Conffiles    []Conffile
	ModTime      time.Time
}

type debFile struct {
	source string
	dest   string
	mode   int64
}

// PackageDeb writes a Debian binary package for po to w. Binaries are
// installed flat into /usr/local/bin.
func PackageDeb(ctx context.Context, w io.Writer, po *PackageOptions, do *DebOptions) error {
	ctx, span := trace.StartSpan(ctx, "packagekit.PackageDeb")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	if do == nil {
		do = &DebOptions{}
	}

	version := po.Version
	if version == "" {
		version = defaultDebVersion
	}
	revision := do.Revision
	if revision == "" {
		revision = defaultDebRevision
	}
	arch := do.Architecture
	if arch == "" {
		arch = defaultDebArchitecture
	}
	maintainer := do.Maintainer
	if maintainer.Name == "" {
		maintainer = defaultDebMaintainer
	}
	modTime := do.ModTime
	if modTime.IsZero() {
		modTime = time.Now().UTC()
	}

	files, err := debFiles(po, do)
	if err != nil {
		return err
	}

	data := deb.NewTarBuilder(modTime)
	sums := make([]string, 0, len(files))
	for _, f := range files {
		sum, err := addDebFile(data, f)
		if err != nil {
			return err
		}
		sums = append(sums, fmt.Sprintf("%x  %s\n", sum, strings.TrimPrefix(f.dest, "/")))
	}
	installedSize := (data.Size() + 1023) / 1024

	dataBytes, err := data.Bytes()
	if err != nil {
		return errors.Wrap(err, "building data archive")
	}

	control := deb.Control{
		Package:       po.Name,
		Version:       formatDebVersion(do.Epoch, version, revision),
		Architecture:  arch,
		Maintainer:    maintainer,
		Description:   po.Description,
		Priority:      do.Priority,
		Section:       do.Section,
		Depends:       do.Depends,
		InstalledSize: installedSize,
	}
	if err := control.Validate(); err != nil {
		return err
	}

	controlTar := deb.NewTarBuilder(modTime)
	if err := controlTar.AddFile("control", 0644, control.Bytes()); err != nil {
		return err
	}
	if len(do.Conffiles) > 0 {
		var sb strings.Builder
		for _, c := range do.Conffiles {
			sb.WriteString(path.Clean(c.Dest))
			sb.WriteString("\n")
		}
		if err := controlTar.AddFile("conffiles", 0644, []byte(sb.String())); err != nil {
			return err
		}
	}
	if err := controlTar.AddFile("md5sums", 0644, []byte(strings.Join(sums, ""))); err != nil {
		return err
	}
	controlBytes, err := controlTar.Bytes()
	if err != nil {
		return errors.Wrap(err, "building control archive")
	}

	if err := deb.WriteArchive(w, modTime, controlBytes, dataBytes); err != nil {
		return errors.Wrap(err, "writing deb")
	}

	level.Info(logger).Log(
		"msg", "built deb",
		"package", po.Name,
		"version", control.Version,
		"files", len(files),
		"installed_size_kib", installedSize,
	)

	return nil
}

// debFiles lists every file of the data archive, sorted by destination.
func debFiles(po *PackageOptions, do *DebOptions) ([]debFile, error) {
	var files []debFile
	seen := make(map[string]string)

	add := func(f debFile) error {
		if prev, ok := seen[f.dest]; ok {
			return errors.Errorf("%s and %s both install to %s", prev, f.source, f.dest)
		}
		seen[f.dest] = f.source
		files = append(files, f)
		return nil
	}

	for _, b := range po.Binaries {
		dest, err := destPath(b)
		if err != nil {
			return nil, err
		}
		if err := add(debFile{source: b.Source, dest: path.Join(debBinDir, path.Base(dest)), mode: 0755}); err != nil {
			return nil, err
		}
	}

	for _, c := range do.Conffiles {
		if !path.IsAbs(c.Dest) {
			return nil, errors.Errorf("conffile destination %s must be absolute", c.Dest)
		}
		if err := add(debFile{source: c.Source, dest: path.Clean(c.Dest), mode: 0644}); err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].dest < files[j].dest })
	return files, nil
}

func addDebFile(tb *deb.TarBuilder, f debFile) ([]byte, error) {
	info, err := isRegularFile(f.source)
	if err != nil {
		return nil, err
	}

	fh, err := os.Open(f.source)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", f.source)
	}
	defer fh.Close()

	h := md5.New()
	if err := tb.AddReader(f.dest, f.mode, info.Size(), io.TeeReader(fh, h)); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
