package cab

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(1))
	noise := make([]byte, 3*maxBlockSize+17)
	rnd.Read(noise)

	contents := map[string][]byte{
		"a.txt":     bytes.Repeat([]byte("hello cabinet "), 5000),
		"b.bin":     noise,
		"empty.txt": {},
		"c.txt":     []byte("small"),
	}

	var tests = []struct {
		name        string
		compression CompressionType
	}{
		{name: "mszip", compression: CompressionMSZIP},
		{name: "stored", compression: CompressionNone},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := NewBuilder()
			f1 := b.AddFolder(tt.compression)
			f1.AddFile("a.txt")
			f1.AddFile("b.bin")
			f2 := b.AddFolder(tt.compression)
			f2.AddFile("empty.txt")
			f2.AddFile("c.txt")

			var out bytes.Buffer
			w, err := b.Build(&out)
			require.NoError(t, err)

			var order []string
			for {
				fw, err := w.NextFile()
				require.NoError(t, err)
				if fw == nil {
					break
				}
				order = append(order, fw.Name())
				_, err = fw.Write(contents[fw.Name()])
				require.NoError(t, err)
			}
			require.NoError(t, w.Finish())
			require.Equal(t, []string{"a.txt", "b.bin", "empty.txt", "c.txt"}, order)

			cab, err := Open(bytes.NewReader(out.Bytes()), int64(out.Len()))
			require.NoError(t, err)
			require.Equal(t, 2, cab.FolderCount())
			require.Equal(t, tt.compression, cab.FolderCompression(0))

			files := cab.Files()
			require.Len(t, files, 4)
			for _, f := range files {
				data, err := cab.ReadFile(f.Name)
				require.NoError(t, err)
				require.Equal(t, len(contents[f.Name]), len(data))
				require.True(t, bytes.Equal(contents[f.Name], data), f.Name)
			}
			require.Equal(t, 1, files[3].Folder)
		})
	}
}

func TestCompressionShrinks(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.AddFolder(CompressionMSZIP).AddFile("zeros")

	var out bytes.Buffer
	w, err := b.Build(&out)
	require.NoError(t, err)
	fw, err := w.NextFile()
	require.NoError(t, err)
	_, err = fw.Write(make([]byte, 1<<20))
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	require.Less(t, out.Len(), 1<<16)
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	f := b.AddFolder(CompressionMSZIP)
	f.AddFile("dup")
	f.AddFile("dup")
	_, err := b.Build(&bytes.Buffer{})
	require.Error(t, err)

	b = NewBuilder()
	b.AddFolder(CompressionMSZIP).AddFile("one")
	w, err := b.Build(&bytes.Buffer{})
	require.NoError(t, err)
	require.Error(t, w.Finish(), "finishing before every file is written")
}

func TestOpenRejectsGarbage(t *testing.T) {
	t.Parallel()

	garbage := bytes.Repeat([]byte{0x42}, 64)
	_, err := Open(bytes.NewReader(garbage), int64(len(garbage)))
	require.Error(t, err)
}
