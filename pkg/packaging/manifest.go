package packaging

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/kolide/livraison/pkg/packagekit"
	"github.com/kolide/livraison/pkg/packagekit/deb"
	"github.com/pkg/errors"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed bundle.schema.json
var bundleSchema []byte

const bundleSchemaID = "inmemory://bundle.schema.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// Manifest is a bundle description, usually loaded from YAML.
type Manifest struct {
	Name        string             `json:"name"`
	Version     string             `json:"version,omitempty"`
	Description string             `json:"description,omitempty"`
	Author      string             `json:"author,omitempty"`
	Binaries    []ManifestBinary   `json:"binaries,omitempty"`
	Environment []ManifestVariable `json:"environment,omitempty"`
	Deb         ManifestDeb        `json:"deb,omitempty"`
	Msi         ManifestMsi        `json:"msi,omitempty"`
}

type ManifestBinary struct {
	Source string `json:"source"`
	Dest   string `json:"dest,omitempty"`
}

type ManifestVariable struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Append bool   `json:"append,omitempty"`
}

type ManifestDeb struct {
	Epoch        int                `json:"epoch,omitempty"`
	Revision     string             `json:"revision,omitempty"`
	Architecture string             `json:"architecture,omitempty"`
	Priority     string             `json:"priority,omitempty"`
	Section      string             `json:"section,omitempty"`
	Depends      []string           `json:"depends,omitempty"`
	Maintainer   *ManifestPerson    `json:"maintainer,omitempty"`
	Conffiles    []ManifestConffile `json:"conffiles,omitempty"`
}

type ManifestPerson struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ManifestConffile struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

type ManifestMsi struct {
	PerUser bool   `json:"per_user,omitempty"`
	Icon    string `json:"icon,omitempty"`
}

func bundleValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(bundleSchemaID, bytes.NewReader(bundleSchema)); err != nil {
			compileErr = errors.Wrap(err, "adding bundle schema")
			return
		}
		compiledSchema, compileErr = compiler.Compile(bundleSchemaID)
		if compileErr != nil {
			compileErr = errors.Wrap(compileErr, "compiling bundle schema")
		}
	})
	return compiledSchema, compileErr
}

// ParseManifest decodes a YAML (or JSON) bundle description and checks
// it against the bundle schema. Relative paths are left untouched.
func ParseManifest(data []byte) (*Manifest, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.Wrap(err, "converting manifest to json")
	}

	var payload interface{}
	if err := json.Unmarshal(jsonData, &payload); err != nil {
		return nil, errors.Wrap(err, "decoding manifest")
	}

	schema, err := bundleValidator()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(payload); err != nil {
		return nil, errors.Wrap(err, "invalid manifest")
	}

	var m Manifest
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, errors.Wrap(err, "decoding manifest")
	}
	return &m, nil
}

// LoadManifest reads the manifest at path. Source paths inside it are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest %s", path)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}

	m.resolve(filepath.Dir(path))
	return m, nil
}

func (m *Manifest) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	for i := range m.Binaries {
		m.Binaries[i].Source = abs(m.Binaries[i].Source)
	}
	for i := range m.Deb.Conffiles {
		m.Deb.Conffiles[i].Source = abs(m.Deb.Conffiles[i].Source)
	}
	m.Msi.Icon = abs(m.Msi.Icon)
}

// PackageOptions converts the manifest into packer options.
func (m *Manifest) PackageOptions() *packagekit.PackageOptions {
	po := &packagekit.PackageOptions{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Author:      m.Author,
		Icon:        m.Msi.Icon,
		PerUser:     m.Msi.PerUser,
	}

	for _, b := range m.Binaries {
		po.Binaries = append(po.Binaries, packagekit.Binary{Source: b.Source, Dest: b.Dest})
	}
	for _, v := range m.Environment {
		po.Environment = append(po.Environment, packagekit.EnvironmentVariable{
			Name:   v.Name,
			Value:  v.Value,
			Append: v.Append,
		})
	}

	return po
}

// DebOptions converts the deb section of the manifest.
func (m *Manifest) DebOptions() *packagekit.DebOptions {
	do := &packagekit.DebOptions{
		Epoch:        m.Deb.Epoch,
		Revision:     m.Deb.Revision,
		Architecture: m.Deb.Architecture,
		Priority:     m.Deb.Priority,
		Section:      m.Deb.Section,
		Depends:      m.Deb.Depends,
	}

	if m.Deb.Maintainer != nil {
		do.Maintainer = deb.Maintainer{Name: m.Deb.Maintainer.Name, Email: m.Deb.Maintainer.Email}
	}
	for _, c := range m.Deb.Conffiles {
		do.Conffiles = append(do.Conffiles, packagekit.Conffile{Source: c.Source, Dest: c.Dest})
	}

	return do
}
