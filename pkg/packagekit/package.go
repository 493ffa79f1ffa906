package packagekit

// PackageOptions is the superset of all packaging options. Not all
// packages will support all options.
type PackageOptions struct {
	Name        string // product name, also the bundle identity (eg: livraison)
	Version     string // product version
	Description string // one line, or several for deb
	Author      string // manufacturer

	Binaries    []Binary              // files to install
	Environment []EnvironmentVariable // variables set by the msi

	Icon    string // path to a .ico shown in Programs and Features (msi)
	PerUser bool   // install for the current user only (msi)
}

// Binary is a file shipped by a package. Dest is relative to the
// install root and defaults to the base name of Source.
type Binary struct {
	Source string
	Dest   string
}

type EnvironmentVariable struct {
	Name   string
	Value  string
	Append bool // append to an existing value instead of replacing it
}
