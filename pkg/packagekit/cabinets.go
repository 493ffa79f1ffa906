package packagekit

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/livraison/pkg/contexts/ctxlog"
	"github.com/kolide/livraison/pkg/msi/cab"
	"github.com/kolide/livraison/pkg/msidb"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const cabinetNameTmpl = "rsrc%04d.cab"

// CabinetInfo is one cabinet of the package and the resources stored
// in it, in file sequence order.
type CabinetInfo struct {
	Name      string
	Resources []ResourceInfo
}

func (c CabinetInfo) Size() int64 {
	var total int64
	for _, r := range c.Resources {
		total += r.Size
	}
	return total
}

func (c CabinetInfo) hasFileName(name string) bool {
	for _, r := range c.Resources {
		if r.FileName == name {
			return true
		}
	}
	return false
}

// divideIntoCabinets packs resources greedily. Whatever does not fit a
// cabinet, either by count, by size or by a repeated file name, is
// carried over to the next one.
func divideIntoCabinets(resources []ResourceInfo, cfg MSIConfig) []CabinetInfo {
	var cabinets []CabinetInfo

	pending := resources
	for len(pending) > 0 {
		current := CabinetInfo{Name: fmt.Sprintf(cabinetNameTmpl, len(cabinets))}
		var leftover []ResourceInfo
		var total int64

		for _, r := range pending {
			switch {
			case len(current.Resources) >= cfg.MaxFiles,
				len(current.Resources) > 0 && total+r.Size > cfg.MaxSize,
				current.hasFileName(r.FileName):
				leftover = append(leftover, r)
			default:
				current.Resources = append(current.Resources, r)
				total += r.Size
			}
		}

		cabinets = append(cabinets, current)
		pending = leftover
	}

	return cabinets
}

// folderPlan splits a cabinet's resources into compression folders. A
// folder is closed when the next file would push it past limit; the
// first file of a folder is always admitted.
func folderPlan(resources []ResourceInfo, limit int64) [][]ResourceInfo {
	var folders [][]ResourceInfo
	var current []ResourceInfo
	var size int64

	for _, r := range resources {
		if len(current) > 0 && size+r.Size > limit {
			folders = append(folders, current)
			current = nil
			size = 0
		}
		current = append(current, r)
		size += r.Size
	}
	if len(current) > 0 {
		folders = append(folders, current)
	}
	return folders
}

// generateCabinets streams every cabinet into the package stream of the
// same name. Files are stored under their File key.
func generateCabinets(ctx context.Context, pkg msidb.Package, cabinets []CabinetInfo, cfg MSIConfig) error {
	ctx, span := trace.StartSpan(ctx, "packagekit.generateCabinets")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	for i, cabinet := range cabinets {
		sources := make(map[string]string, len(cabinet.Resources))
		for _, r := range cabinet.Resources {
			sources[r.FileKey] = r.SourcePath
		}

		builder := cab.NewBuilder()
		builder.ModTime = cfg.ModTime
		builder.SetID = uint16(i)
		for _, folder := range folderPlan(cabinet.Resources, cfg.FolderSizeLimit) {
			fb := builder.AddFolder(cfg.Compression)
			for _, r := range folder {
				fb.AddFile(r.FileKey)
			}
		}

		if err := writeCabinet(pkg, cabinet.Name, builder, sources); err != nil {
			return err
		}

		level.Debug(logger).Log(
			"msg", "wrote cabinet",
			"cabinet", cabinet.Name,
			"files", len(cabinet.Resources),
			"size", cabinet.Size(),
		)
	}

	return nil
}

// writeCabinet stores the stream only when the whole cabinet was
// written.
func writeCabinet(pkg msidb.Package, name string, builder *cab.Builder, sources map[string]string) error {
	stream, err := pkg.WriteStream(name)
	if err != nil {
		return errors.Wrapf(err, "opening stream %s", name)
	}
	if err := fillCabinet(stream, name, builder, sources); err != nil {
		msidb.AbortStream(stream)
		return err
	}
	return errors.Wrapf(stream.Close(), "closing stream %s", name)
}

func fillCabinet(stream io.Writer, name string, builder *cab.Builder, sources map[string]string) error {
	cw, err := builder.Build(stream)
	if err != nil {
		return errors.Wrapf(err, "laying out cabinet %s", name)
	}

	for {
		fw, err := cw.NextFile()
		if err != nil {
			return errors.Wrapf(err, "cabinet %s", name)
		}
		if fw == nil {
			break
		}

		source, ok := sources[fw.Name()]
		if !ok {
			return errors.Errorf("cabinet %s: no source for %s", name, fw.Name())
		}
		if err := copyFile(fw, source); err != nil {
			return errors.Wrapf(err, "cabinet %s", name)
		}
	}

	return errors.Wrapf(cw.Finish(), "writing cabinet %s", name)
}

func copyFile(w io.Writer, source string) error {
	f, err := os.Open(source)
	if err != nil {
		return errors.Wrapf(err, "opening %s", source)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrapf(err, "copying %s", source)
	}
	return nil
}
