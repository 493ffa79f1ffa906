package packagekit

import (
	"fmt"
	"testing"

	"github.com/kolide/livraison/pkg/msi/cab"
	"github.com/kolide/livraison/pkg/msidb"
	"github.com/kolide/livraison/pkg/msidb/inmemory"
	"github.com/stretchr/testify/require"
)

func fakeResources(sizes ...int64) []ResourceInfo {
	resources := make([]ResourceInfo, len(sizes))
	for i, size := range sizes {
		name := fmt.Sprintf("file%d", i)
		resources[i] = ResourceInfo{FileName: name, FileKey: name, Size: size}
	}
	return resources
}

func cabinetFiles(cabinets []CabinetInfo) [][]string {
	out := make([][]string, len(cabinets))
	for i, c := range cabinets {
		for _, r := range c.Resources {
			out[i] = append(out[i], r.FileKey)
		}
	}
	return out
}

func TestDivideIntoCabinetsOneBytePerCabinet(t *testing.T) {
	t.Parallel()

	cfg := DefaultMSIConfig()
	cfg.MaxSize = 1

	cabinets := divideIntoCabinets(fakeResources(10, 20, 30), cfg)
	require.Len(t, cabinets, 3)
	for i, c := range cabinets {
		require.Equal(t, fmt.Sprintf("rsrc%04d.cab", i), c.Name)
		require.Len(t, c.Resources, 1, "oversized files still get a cabinet of their own")
	}
}

func TestDivideIntoCabinetsBounds(t *testing.T) {
	t.Parallel()

	cfg := DefaultMSIConfig()
	cfg.MaxFiles = 2
	cfg.MaxSize = 100

	cabinets := divideIntoCabinets(fakeResources(10, 10, 10, 90, 10), cfg)
	require.Equal(t, [][]string{
		{"file0", "file1"},
		{"file2", "file3"},
		{"file4"},
	}, cabinetFiles(cabinets))

	for _, c := range cabinets {
		require.LessOrEqual(t, len(c.Resources), cfg.MaxFiles)
		require.LessOrEqual(t, c.Size(), cfg.MaxSize)
	}
}

func TestDivideIntoCabinetsSizeLeftovers(t *testing.T) {
	t.Parallel()

	cfg := DefaultMSIConfig()
	cfg.MaxSize = 100

	// a file that does not fit is carried over, later small files still
	// fill the current cabinet
	cabinets := divideIntoCabinets(fakeResources(60, 60, 30), cfg)
	require.Equal(t, [][]string{
		{"file0", "file2"},
		{"file1"},
	}, cabinetFiles(cabinets))
}

func TestDivideIntoCabinetsDuplicateNames(t *testing.T) {
	t.Parallel()

	resources := []ResourceInfo{
		{FileName: "tool.exe", FileKey: "tool.exe", Size: 1},
		{FileName: "tool.exe", FileKey: "tool.exe_1", Size: 1},
		{FileName: "readme", FileKey: "readme", Size: 1},
	}

	cabinets := divideIntoCabinets(resources, DefaultMSIConfig())
	require.Equal(t, [][]string{
		{"tool.exe", "readme"},
		{"tool.exe_1"},
	}, cabinetFiles(cabinets))
}

func TestDivideIntoCabinetsEmpty(t *testing.T) {
	t.Parallel()

	require.Empty(t, divideIntoCabinets(nil, DefaultMSIConfig()))
}

func TestFolderPlan(t *testing.T) {
	t.Parallel()

	folders := folderPlan(fakeResources(10, 10, 50, 5, 5), 20)

	var sizes [][]int64
	for _, f := range folders {
		var s []int64
		for _, r := range f {
			s = append(s, r.Size)
		}
		sizes = append(sizes, s)
	}
	require.Equal(t, [][]int64{{10, 10}, {50}, {5, 5}}, sizes)
}

func TestWriteCabinetFailureStoresNothing(t *testing.T) {
	t.Parallel()

	binaries := writeBinaries(t, 10, "tool.exe")
	pkg := inmemory.NewPackage(msidb.CodepageISO88591)

	builder := cab.NewBuilder()
	fb := builder.AddFolder(cab.CompressionMSZIP)
	fb.AddFile("tool.exe")
	fb.AddFile("unknown.dll")

	err := writeCabinet(pkg, "rsrc0000.cab", builder, map[string]string{"tool.exe": binaries[0].Source})
	require.EqualError(t, err, "cabinet rsrc0000.cab: no source for unknown.dll")

	names, err := pkg.Streams()
	require.NoError(t, err)
	require.Empty(t, names)
}
