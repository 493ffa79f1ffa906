package tables

import "github.com/kolide/livraison/pkg/msidb"

// Directory is a node of the install time folder tree.
type Directory struct {
	Directory  string
	Parent     string
	DefaultDir string
}

func (Directory) TableName() string { return "Directory" }

func (Directory) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("Directory").ID(72).PrimaryKey(),
		msidb.Col("Directory_Parent").ID(72).Nullable().References("Directory", 1),
		msidb.Col("DefaultDir").Str(255).WithCategory(msidb.CategoryDefaultDir),
	}
}

func (d Directory) ToRow() msidb.Row {
	return msidb.Row{msidb.Str(d.Directory), msidb.OptStr(d.Parent), msidb.Str(d.DefaultDir)}
}

func DirectoryFromRow(r RowView) (Directory, error) {
	c := cells{view: r}
	rec := Directory{Directory: c.str(0), Parent: c.optStr(1), DefaultDir: c.str(2)}
	return rec, c.err
}

type FileAttributes int16

const (
	FileReadOnly      FileAttributes = 1
	FileHidden        FileAttributes = 2
	FileSystem        FileAttributes = 4
	FileVital         FileAttributes = 512
	FileChecksum      FileAttributes = 1024
	FilePatchAdded    FileAttributes = 4096
	FileNonCompressed FileAttributes = 8192
	FileCompressed    FileAttributes = 16384
)

// File is one payload file, located through its component's directory.
type File struct {
	File       string
	Component  string
	FileName   string
	FileSize   int32
	Version    string
	Language   string
	Attributes *FileAttributes
	Sequence   int16
}

func (File) TableName() string { return "File" }

func (File) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("File").ID(72).PrimaryKey(),
		msidb.Col("Component_").ID(72).References("Component", 1),
		msidb.Col("FileName").Str(255).WithCategory(msidb.CategoryFilename),
		msidb.Col("FileSize").Int32(),
		msidb.Col("Version").Str(72).Nullable().WithCategory(msidb.CategoryVersion),
		msidb.Col("Language").Str(20).Nullable().WithCategory(msidb.CategoryLanguage),
		msidb.Col("Attributes").Int16().Nullable(),
		msidb.Col("Sequence").Int16(),
	}
}

func (f File) ToRow() msidb.Row {
	attrs := msidb.Null()
	if f.Attributes != nil {
		attrs = msidb.Int(int32(*f.Attributes))
	}
	return msidb.Row{
		msidb.Str(f.File),
		msidb.Str(f.Component),
		msidb.Str(f.FileName),
		msidb.Int(f.FileSize),
		msidb.OptStr(f.Version),
		msidb.OptStr(f.Language),
		attrs,
		msidb.Int(int32(f.Sequence)),
	}
}

func FileFromRow(r RowView) (File, error) {
	c := cells{view: r}
	rec := File{
		File:      c.str(0),
		Component: c.str(1),
		FileName:  c.str(2),
		FileSize:  c.i32(3),
		Version:   c.optStr(4),
		Language:  c.optStr(5),
		Sequence:  c.i16(7),
	}
	if a := c.optI16(6); a != nil {
		attrs := FileAttributes(*a)
		rec.Attributes = &attrs
	}
	return rec, c.err
}

// Media describes one cabinet and the last file sequence it holds.
type Media struct {
	DiskID       int16
	LastSequence int16
	DiskPrompt   string
	Cabinet      string
	VolumeLabel  string
	Source       string
}

func (Media) TableName() string { return "Media" }

func (Media) Definition() []msidb.Column {
	return []msidb.Column{
		msidb.Col("DiskId").Int16().PrimaryKey(),
		msidb.Col("LastSequence").Int16(),
		msidb.Col("DiskPrompt").Str(64).Nullable().WithCategory(msidb.CategoryText),
		msidb.Col("Cabinet").Str(255).Nullable().WithCategory(msidb.CategoryCabinet),
		msidb.Col("VolumeLabel").Str(32).Nullable().WithCategory(msidb.CategoryText),
		msidb.Col("Source").Str(72).Nullable(),
	}
}

func (m Media) ToRow() msidb.Row {
	return msidb.Row{
		msidb.Int(int32(m.DiskID)),
		msidb.Int(int32(m.LastSequence)),
		msidb.OptStr(m.DiskPrompt),
		msidb.OptStr(m.Cabinet),
		msidb.OptStr(m.VolumeLabel),
		msidb.OptStr(m.Source),
	}
}

func MediaFromRow(r RowView) (Media, error) {
	c := cells{view: r}
	rec := Media{
		DiskID:       c.i16(0),
		LastSequence: c.i16(1),
		DiskPrompt:   c.optStr(2),
		Cabinet:      c.optStr(3),
		VolumeLabel:  c.optStr(4),
		Source:       c.optStr(5),
	}
	return rec, c.err
}
