// Package properties builds the Property table of an installer.
package properties

import (
	"context"
	"strconv"

	"github.com/kolide/livraison/pkg/msi/tables"
	"github.com/kolide/livraison/pkg/msidb"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	ProductCode       = "ProductCode"
	ProductLanguage   = "ProductLanguage"
	Manufacturer      = "Manufacturer"
	ProductName       = "ProductName"
	ProductVersion    = "ProductVersion"
	UpgradeCode       = "UpgradeCode"
	DefaultUIFont     = "DefaultUIFont"
	ARPNoModify       = "ARPNOMODIFY"
	ARPProductIcon    = "ARPPRODUCTICON"
	AllUsers          = "ALLUSERS"
	MSIInstallPerUser = "MSIINSTALLPERUSER"
)

// LanguageEnglishUS is the LCID of en-US.
const LanguageEnglishUS uint16 = 1033

// Required lists the properties every installer must define.
var Required = []string{ProductCode, ProductLanguage, Manufacturer, ProductName, ProductVersion}

type RequiredProperties struct {
	ProductCode     string
	ProductLanguage uint16
	Manufacturer    string
	ProductName     string
	ProductVersion  string
}

type Builder struct {
	props map[string]string
}

func NewBuilder(req RequiredProperties) *Builder {
	lang := req.ProductLanguage
	if lang == 0 {
		lang = LanguageEnglishUS
	}
	return &Builder{
		props: map[string]string{
			ProductCode:     req.ProductCode,
			ProductLanguage: strconv.Itoa(int(lang)),
			Manufacturer:    req.Manufacturer,
			ProductName:     req.ProductName,
			ProductVersion:  req.ProductVersion,
		},
	}
}

// InstallPerUser installs into the user profile without elevation.
func (b *Builder) InstallPerUser() *Builder {
	b.props[AllUsers] = "2"
	b.props[MSIInstallPerUser] = "1"
	return b
}

// InstallGlobal installs for every user of the machine.
func (b *Builder) InstallGlobal() *Builder {
	delete(b.props, AllUsers)
	delete(b.props, MSIInstallPerUser)
	return b
}

func (b *Builder) DefaultUIFont(style string) *Builder {
	b.props[DefaultUIFont] = style
	return b
}

// ARPNoModify hides the Change button in Programs and Features.
func (b *Builder) ARPNoModify(enabled bool) *Builder {
	if enabled {
		b.props[ARPNoModify] = "1"
	} else {
		delete(b.props, ARPNoModify)
	}
	return b
}

func (b *Builder) Set(property, value string) *Builder {
	b.props[property] = value
	return b
}

func (b *Builder) Get(property string) (string, bool) {
	v, ok := b.props[property]
	return v, ok
}

// Build returns the rows ordered by property name. Blank values are
// left out, the installer treats them as undefined.
func (b *Builder) Build() []tables.Property {
	keys := maps.Keys(b.props)
	slices.Sort(keys)

	rows := make([]tables.Property, 0, len(keys))
	for _, k := range keys {
		if b.props[k] == "" {
			continue
		}
		rows = append(rows, tables.Property{Property: k, Value: b.props[k]})
	}
	return rows
}

func (b *Builder) Write(_ context.Context, pkg msidb.Package) error {
	return tables.CreateAndInsert(pkg, b.Build())
}
