package tables

import "github.com/kolide/livraison/pkg/msidb"

// Binary holds data used during installation, stored in the stream
// "Binary.<Name>".
type Binary struct {
	Name string
}

func (Binary) TableName() string { return "Binary" }

func (Binary) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Name").ID(72).PrimaryKey(),
		msidb.Col("Data").Binary(),
	}
}

func (b Binary) StreamName() string { return "Binary." + b.Name }

func (b Binary) ToRow() msidb.Row {
	return msidb.Row{msidb.Str(b.Name), msidb.StreamRef(b.StreamName())}
}

func BinaryFromRow(r RowView) (Binary, error) {
	c := cells{view: r}
	rec := Binary{Name: c.str(0)}
	c.stream(1)
	return rec, c.err
}

// Icon holds an icon file, stored in the stream "Icon.<Name>".
type Icon struct {
	Name string
}

func (Icon) TableName() string { return "Icon" }

func (Icon) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Name").ID(72).PrimaryKey(),
		msidb.Col("Data").Binary(),
	}
}

func (i Icon) StreamName() string { return "Icon." + i.Name }

func (i Icon) ToRow() msidb.Row {
	return msidb.Row{msidb.Str(i.Name), msidb.StreamRef(i.StreamName())}
}

func IconFromRow(r RowView) (Icon, error) {
	c := cells{view: r}
	rec := Icon{Name: c.str(0)}
	c.stream(1)
	return rec, c.err
}

// Environment sets an environment variable when its component is
// installed. The Name prefix encodes the action, "=-" sets on install
// and removes on uninstall.
type Environment struct {
	Environment string
	Name        string
	Value       string
	Component   string
}

func (Environment) TableName() string { return "Environment" }

func (Environment) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Environment").ID(72).PrimaryKey(),
		msidb.Col("Name").Str(255).WithCategory(msidb.CategoryText),
		msidb.Col("Value").Str(255).Nullable().WithCategory(msidb.CategoryFormatted),
		msidb.Col("Component_").ID(72).References("Component", 1),
	}
}

func (e Environment) ToRow() msidb.Row {
	return msidb.Row{msidb.Str(e.Environment), msidb.Str(e.Name), msidb.OptStr(e.Value), msidb.Str(e.Component)}
}

func EnvironmentFromRow(r RowView) (Environment, error) {
	c := cells{view: r}
	rec := Environment{Environment: c.str(0), Name: c.str(1), Value: c.optStr(2), Component: c.str(3)}
	return rec, c.err
}

type RegistryRoot int16

const (
	RegistryRootAuto         RegistryRoot = -1
	RegistryRootClassesRoot  RegistryRoot = 0
	RegistryRootCurrentUser  RegistryRoot = 1
	RegistryRootLocalMachine RegistryRoot = 2
	RegistryRootUsers        RegistryRoot = 3
)

// ParseRegistryRoot validates a stored root code.
func ParseRegistryRoot(code int16) (RegistryRoot, error) {
	switch r := RegistryRoot(code); r {
	case RegistryRootAuto, RegistryRootClassesRoot, RegistryRootCurrentUser, RegistryRootLocalMachine, RegistryRootUsers:
		return r, nil
	}
	return 0, InvalidRegistryRootError{Root: code}
}

// Registry writes a registry value when its component is installed.
type Registry struct {
	Registry  string
	Root      RegistryRoot
	Key       string
	Name      string
	Value     string
	Component string
}

func (Registry) TableName() string { return "Registry" }

func (Registry) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Registry").ID(72).PrimaryKey(),
		msidb.Col("Root").Int16(),
		msidb.Col("Key").Str(255).WithCategory(msidb.CategoryRegPath),
		msidb.Col("Name").Str(255).Nullable().WithCategory(msidb.CategoryFormatted),
		msidb.Col("Value").Text().Nullable().WithCategory(msidb.CategoryFormatted),
		msidb.Col("Component_").ID(72).References("Component", 1),
	}
}

func (r Registry) ToRow() msidb.Row {
	return msidb.Row{
		msidb.Str(r.Registry),
		msidb.Int(int32(r.Root)),
		msidb.Str(r.Key),
		msidb.OptStr(r.Name),
		msidb.OptStr(r.Value),
		msidb.Str(r.Component),
	}
}

func RegistryFromRow(r RowView) (Registry, error) {
	c := cells{view: r}
	rec := Registry{
		Registry:  c.str(0),
		Key:       c.str(2),
		Name:      c.optStr(3),
		Value:     c.optStr(4),
		Component: c.str(5),
	}
	root := c.i16(1)
	if c.err != nil {
		return rec, c.err
	}

	parsed, err := ParseRegistryRoot(root)
	if err != nil {
		return rec, err
	}
	rec.Root = parsed
	return rec, nil
}
