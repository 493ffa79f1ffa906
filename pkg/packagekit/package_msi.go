package packagekit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"github.com/kolide/livraison/pkg/contexts/ctxlog"
	"github.com/kolide/livraison/pkg/msi/cab"
	"github.com/kolide/livraison/pkg/msi/ident"
	"github.com/kolide/livraison/pkg/msi/lint"
	"github.com/kolide/livraison/pkg/msi/properties"
	"github.com/kolide/livraison/pkg/msi/tables"
	"github.com/kolide/livraison/pkg/msi/ui"
	"github.com/kolide/livraison/pkg/msidb"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const (
	mainFeature         = "MainFeature"
	creatingApplication = "livraison"

	// featureAttributes is FavorLocal|DisallowAdvertise|UIDisallowAbsent.
	featureAttributes = 24

	wordCountCompressed = 2
	wordCountNoElevate  = 8
)

// MSIConfig holds the knobs of the msi packer. The zero value of a
// field means its default.
type MSIConfig struct {
	FolderSizeLimit int64 // bytes per compression folder
	MaxFiles        int   // files per cabinet
	MaxSize         int64 // bytes per cabinet

	Namespace   uuid.UUID // root of every derived identifier
	Codepage    msidb.Codepage
	Arch        string // summary info platform, x64 or Intel
	Compression cab.CompressionType
	ModTime     time.Time // stamped on cabinet entries and the summary info
}

func DefaultMSIConfig() MSIConfig {
	return MSIConfig{
		FolderSizeLimit: 0x8000,
		MaxFiles:        1000,
		MaxSize:         0x10000000,
		Namespace:       ident.DefaultNamespace,
		Codepage:        msidb.CodepageISO88591,
		Arch:            "x64",
		Compression:     cab.CompressionMSZIP,
	}
}

func (c MSIConfig) withDefaults() MSIConfig {
	def := DefaultMSIConfig()
	if c.FolderSizeLimit <= 0 {
		c.FolderSizeLimit = def.FolderSizeLimit
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = def.MaxFiles
	}
	if c.MaxSize <= 0 {
		c.MaxSize = def.MaxSize
	}
	if c.Namespace == uuid.Nil {
		c.Namespace = def.Namespace
	}
	if c.Codepage == 0 {
		c.Codepage = def.Codepage
	}
	if c.Arch == "" {
		c.Arch = def.Arch
	}
	return c
}

type msiOptions struct {
	config MSIConfig
	ui     ui.UI
	lint   bool
}

type MSIOpt func(*msiOptions)

func WithMSIConfig(cfg MSIConfig) MSIOpt {
	return func(o *msiOptions) {
		o.config = cfg
	}
}

// WithUI replaces the built-in minimal wizard.
func WithUI(u ui.UI) MSIOpt {
	return func(o *msiOptions) {
		o.ui = u
	}
}

// WithLint runs the default linter over the finished package. Any
// diagnostic fails the build with a LintError.
func WithLint() MSIOpt {
	return func(o *msiOptions) {
		o.lint = true
	}
}

// LintError is returned when a freshly built package does not lint
// clean.
type LintError struct {
	Report lint.Report
}

func (e LintError) Error() string {
	return fmt.Sprintf("package has %d lint diagnostic(s)", e.Report.Len())
}

// PackageMSI writes an installer for po into pkg. pkg is expected to be
// empty; on failure it is left partially written.
func PackageMSI(ctx context.Context, pkg msidb.Package, po *PackageOptions, msiOpts ...MSIOpt) error {
	ctx, span := trace.StartSpan(ctx, "packagekit.PackageMSI")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	opts := msiOptions{
		config: DefaultMSIConfig(),
		ui:     ui.Minimal(),
	}
	for _, opt := range msiOpts {
		opt(&opts)
	}
	cfg := opts.config.withDefaults()

	if po.Name == "" {
		return errors.New("package name is required")
	}
	if err := cfg.Codepage.Check(po.Name); err != nil {
		return errors.Wrap(err, "package name")
	}

	productVersion, err := FormatProductVersion(po.Version)
	if err != nil {
		return err
	}

	resources, err := collectResources(po.Binaries)
	if err != nil {
		return errors.Wrap(err, "collecting resources")
	}
	dirs := collectDirectories(po.Name, resources)
	cabinets := divideIntoCabinets(resources, cfg)

	deriver := ident.New(cfg.Namespace)
	productCode := deriver.ProductCode(po.Name, po.Version)
	upgradeCode := deriver.UpgradeCode(po.Name)

	setInContext(ctx, ContextProductCodeKey, tables.FormatGUID(productCode))
	setInContext(ctx, ContextUpgradeCodeKey, tables.FormatGUID(upgradeCode))
	setInContext(ctx, ContextProductVersionKey, productVersion)
	setInContext(ctx, ContextCabinetCountKey, fmt.Sprint(len(cabinets)))

	level.Debug(logger).Log(
		"msg", "laid out package",
		"resources", len(resources),
		"directories", len(dirs),
		"cabinets", len(cabinets),
		"product_code", tables.FormatGUID(productCode),
	)

	if err := writeSummaryInfo(pkg, po, cfg, productCode); err != nil {
		return err
	}

	componentAttrs := tables.ComponentAttributes(0)
	if cfg.Arch == "x64" {
		componentAttrs = tables.Component64Bit
	}

	if err := writeDirectories(pkg, dirs); err != nil {
		return err
	}
	if err := writeFeature(pkg, po); err != nil {
		return err
	}
	if err := writeComponents(pkg, dirs, deriver, componentAttrs, po.Environment); err != nil {
		return err
	}
	if err := writeFilesAndMedia(pkg, cabinets); err != nil {
		return err
	}
	if err := generateCabinets(ctx, pkg, cabinets, cfg); err != nil {
		return err
	}

	iconName, err := writeIcon(pkg, po)
	if err != nil {
		return err
	}

	if err := opts.ui.Write(ctx, pkg); err != nil {
		return errors.Wrap(err, "writing ui")
	}

	props := properties.NewBuilder(properties.RequiredProperties{
		ProductCode:     tables.FormatGUID(productCode),
		ProductLanguage: properties.LanguageEnglishUS,
		Manufacturer:    po.Author,
		ProductName:     po.Name,
		ProductVersion:  productVersion,
	}).
		Set(properties.UpgradeCode, tables.FormatGUID(upgradeCode)).
		DefaultUIFont("DefaultFont").
		Set("Mode", "Install").
		Set("Text_action", "installation").
		Set("Text_agent", "installer").
		Set("Text_Doing", "installing").
		Set("Text_done", "installed")
	if po.PerUser {
		props.InstallPerUser()
	}
	if iconName != "" {
		props.Set(properties.ARPProductIcon, iconName)
	}
	if err := props.Write(ctx, pkg); err != nil {
		return errors.Wrap(err, "writing properties")
	}

	if err := tables.CreateAndInsert(pkg, executeSequence()); err != nil {
		return errors.Wrap(err, "writing install execute sequence")
	}

	if opts.lint {
		report := lint.Default().Run(ctx, pkg)
		if !report.OK() {
			for _, d := range report.Diagnostics {
				level.Info(logger).Log("msg", "lint diagnostic", "code", d.Code, "message", d.Message)
			}
			return LintError{Report: report}
		}
	}

	level.Info(logger).Log(
		"msg", "built msi",
		"name", po.Name,
		"version", productVersion,
		"files", len(resources),
	)

	return nil
}

func writeSummaryInfo(pkg msidb.Package, po *PackageOptions, cfg MSIConfig, productCode uuid.UUID) error {
	created := cfg.ModTime
	if created.IsZero() {
		created = time.Now().UTC()
	}

	wordCount := int32(wordCountCompressed)
	if po.PerUser {
		wordCount |= wordCountNoElevate
	}

	info := msidb.SummaryInfo{
		Title:               "Installation Database",
		Subject:             po.Name,
		Author:              po.Author,
		Comments:            po.Description,
		CreatingApplication: creatingApplication,
		CreationTime:        created,
		UUID:                productCode,
		Codepage:            cfg.Codepage,
		Arch:                cfg.Arch,
		Languages:           []uint16{properties.LanguageEnglishUS},
		WordCount:           wordCount,
	}
	return errors.Wrap(pkg.SetSummaryInfo(info), "writing summary info")
}

func writeDirectories(pkg msidb.Package, dirs []DirectoryInfo) error {
	rows := []tables.Directory{
		{Directory: targetDirKey, DefaultDir: "SourceDir"},
		{Directory: programFilesKey, Parent: targetDirKey, DefaultDir: "Program Files"},
	}
	for _, d := range dirs {
		rows = append(rows, tables.Directory{Directory: d.Key, Parent: d.ParentKey, DefaultDir: d.Name})
	}
	return errors.Wrap(tables.CreateAndInsert(pkg, rows), "writing directories")
}

func writeFeature(pkg msidb.Package, po *PackageOptions) error {
	return errors.Wrap(tables.CreateAndInsert(pkg, []tables.Feature{{
		Feature:     mainFeature,
		Title:       po.Name,
		Description: po.Description,
		Display:     tables.Int16Ptr(1),
		Level:       1,
		Directory:   installDirKey,
		Attributes:  featureAttributes,
	}}), "writing feature")
}

// writeComponents writes one component per directory that holds files,
// one per environment variable, and attaches them all to the main
// feature. The Environment table is always created.
func writeComponents(pkg msidb.Package, dirs []DirectoryInfo, deriver ident.Deriver, attrs tables.ComponentAttributes, vars []EnvironmentVariable) error {
	var components []tables.Component
	for _, d := range dirs {
		if len(d.Files) == 0 {
			continue
		}
		id := deriver.ComponentID(d.Key)
		components = append(components, tables.Component{
			Component:   d.Key,
			ComponentID: &id,
			Directory:   d.Key,
			Attributes:  attrs,
			KeyPath:     d.Files[0],
		})
	}

	envComponents, envRows, err := environmentRows(vars, deriver, attrs)
	if err != nil {
		return err
	}
	components = append(components, envComponents...)

	links := make([]tables.FeatureComponents, len(components))
	for i, c := range components {
		links[i] = tables.FeatureComponents{Feature: mainFeature, Component: c.Component}
	}

	if err := tables.CreateAndInsert(pkg, components); err != nil {
		return errors.Wrap(err, "writing components")
	}
	if err := tables.CreateAndInsert(pkg, links); err != nil {
		return errors.Wrap(err, "writing feature components")
	}
	return errors.Wrap(tables.CreateAndInsert(pkg, envRows), "writing environment")
}

// writeFilesAndMedia numbers files in cabinet order. Each cabinet's
// Media row records the last sequence it holds.
func writeFilesAndMedia(pkg msidb.Package, cabinets []CabinetInfo) error {
	var (
		files []tables.File
		media []tables.Media
	)
	vital := tables.FileVital
	sequence := 0

	for i, c := range cabinets {
		for _, r := range c.Resources {
			sequence++
			if sequence > math.MaxInt16 {
				return errors.Errorf("too many files: %d", sequence)
			}
			if r.Size > math.MaxInt32 {
				return errors.Errorf("%s is too large: %d bytes", r.SourcePath, r.Size)
			}
			files = append(files, tables.File{
				File:       r.FileKey,
				Component:  r.ComponentKey,
				FileName:   r.FileName,
				FileSize:   int32(r.Size),
				Attributes: &vital,
				Sequence:   int16(sequence),
			})
		}
		if i+1 > math.MaxInt16 {
			return errors.Errorf("too many cabinets: %d", len(cabinets))
		}
		media = append(media, tables.Media{
			DiskID:       int16(i + 1),
			LastSequence: int16(sequence),
			Cabinet:      "#" + c.Name,
		})
	}

	if err := tables.CreateAndInsert(pkg, files); err != nil {
		return errors.Wrap(err, "writing files")
	}
	return errors.Wrap(tables.CreateAndInsert(pkg, media), "writing media")
}

// writeIcon stores the product icon, if any, and returns its Icon key.
func writeIcon(pkg msidb.Package, po *PackageOptions) (string, error) {
	if err := tables.CreateTable[tables.Icon](pkg); err != nil {
		return "", err
	}
	if po.Icon == "" {
		return "", nil
	}

	if _, err := isRegularFile(po.Icon); err != nil {
		return "", errors.Wrap(err, "icon")
	}

	icon := tables.Icon{Name: po.Name + ".ico"}
	stream, err := pkg.WriteStream(icon.StreamName())
	if err != nil {
		return "", errors.Wrapf(err, "opening stream %s", icon.StreamName())
	}
	if err := copyFile(stream, po.Icon); err != nil {
		msidb.AbortStream(stream)
		return "", err
	}
	if err := stream.Close(); err != nil {
		return "", errors.Wrapf(err, "closing stream %s", icon.StreamName())
	}

	if err := tables.Insert(pkg, []tables.Icon{icon}); err != nil {
		return "", err
	}
	return icon.Name, nil
}
