package tables

import (
	"github.com/google/uuid"
	"github.com/kolide/livraison/pkg/msidb"
)

type ComponentAttributes int16

const (
	ComponentSourceOnly                ComponentAttributes = 1
	ComponentOptional                  ComponentAttributes = 2
	ComponentRegistryKeyPath           ComponentAttributes = 4
	ComponentSharedDllRefCount         ComponentAttributes = 8
	ComponentPermanent                 ComponentAttributes = 16
	ComponentOdbcDataSource            ComponentAttributes = 32
	ComponentTransitive                ComponentAttributes = 64
	ComponentNeverOverwrite            ComponentAttributes = 128
	Component64Bit                     ComponentAttributes = 256
	ComponentDisableRegistryReflection ComponentAttributes = 512
	ComponentUninstallOnSupersedence   ComponentAttributes = 1024
	ComponentShared                    ComponentAttributes = 2048
)

// Component is the unit the installer tracks for install, repair and
// removal.
type Component struct {
	Component   string
	ComponentID *uuid.UUID
	Directory   string
	Attributes  ComponentAttributes
	Condition   string
	KeyPath     string
}

func (Component) TableName() string { return "Component" }

func (Component) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Component").ID(72).PrimaryKey(),
		msidb.Col("ComponentId").Str(38).Nullable().WithCategory(msidb.CategoryGuid),
		msidb.Col("Directory_").ID(72).References("Directory", 1),
		msidb.Col("Attributes").Int16(),
		msidb.Col("Condition").Str(255).Nullable().WithCategory(msidb.CategoryCondition),
		msidb.Col("KeyPath").ID(72).Nullable(),
	}
}

func (c Component) ToRow() msidb.Row {
	id := msidb.Null()
	if c.ComponentID != nil {
		id = msidb.Str(FormatGUID(*c.ComponentID))
	}
	return msidb.Row{
		msidb.Str(c.Component),
		id,
		msidb.Str(c.Directory),
		msidb.Int(int32(c.Attributes)),
		msidb.OptStr(c.Condition),
		msidb.OptStr(c.KeyPath),
	}
}

func ComponentFromRow(r RowView) (Component, error) {
	c := cells{view: r}
	rec := Component{
		Component:   c.str(0),
		ComponentID: c.optUUID(1),
		Directory:   c.str(2),
		Attributes:  ComponentAttributes(c.i16(3)),
		Condition:   c.optStr(4),
		KeyPath:     c.optStr(5),
	}
	return rec, c.err
}

// FeatureComponents attaches a component to a feature.
type FeatureComponents struct {
	Feature   string
	Component string
}

func (FeatureComponents) TableName() string { return "FeatureComponents" }

func (FeatureComponents) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Feature_").ID(38).PrimaryKey().References("Feature", 1),
		msidb.Col("Component_").ID(72).PrimaryKey().References("Component", 1),
	}
}

func (f FeatureComponents) ToRow() msidb.Row {
	return msidb.Row{msidb.Str(f.Feature), msidb.Str(f.Component)}
}

func FeatureComponentsFromRow(r RowView) (FeatureComponents, error) {
	c := cells{view: r}
	rec := FeatureComponents{Feature: c.str(0), Component: c.str(1)}
	return rec, c.err
}

// Feature is a user visible, installable grouping of components.
type Feature struct {
	Feature     string
	Parent      string
	Title       string
	Description string
	Display     *int16
	Level       int16
	Directory   string
	Attributes  int16
}

func (Feature) TableName() string { return "Feature" }

func (Feature) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Feature").ID(38).PrimaryKey(),
		msidb.Col("Feature_Parent").ID(38).Nullable().References("Feature", 1),
		msidb.Col("Title").Str(64).Nullable().WithCategory(msidb.CategoryText),
		msidb.Col("Description").Str(255).Nullable().WithCategory(msidb.CategoryText),
		msidb.Col("Display").Int16().Nullable(),
		msidb.Col("Level").Int16(),
		msidb.Col("Directory_").ID(72).Nullable().References("Directory", 1),
		msidb.Col("Attributes").Int16(),
	}
}

func (f Feature) ToRow() msidb.Row {
	return msidb.Row{
		msidb.Str(f.Feature),
		msidb.OptStr(f.Parent),
		msidb.OptStr(f.Title),
		msidb.OptStr(f.Description),
		msidb.OptInt16(f.Display),
		msidb.Int(int32(f.Level)),
		msidb.OptStr(f.Directory),
		msidb.Int(int32(f.Attributes)),
	}
}

func FeatureFromRow(r RowView) (Feature, error) {
	c := cells{view: r}
	rec := Feature{
		Feature:     c.str(0),
		Parent:      c.optStr(1),
		Title:       c.optStr(2),
		Description: c.optStr(3),
		Display:     c.optI16(4),
		Level:       c.i16(5),
		Directory:   c.optStr(6),
		Attributes:  c.i16(7),
	}
	return rec, c.err
}
