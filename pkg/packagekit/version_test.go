package packagekit

import (
	"testing"

	"github.com/kolide/livraison/pkg/msi/ident"
	"github.com/kolide/livraison/pkg/msi/tables"
	"github.com/stretchr/testify/require"
)

func TestFormatProductVersion(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		in  string
		out string
		err bool
	}{
		{in: "1.2.3", out: "1.2.3"},
		{in: "v0.10.7", out: "0.10.7"},
		{in: "2.0", out: "2.0.0"},
		{in: "1.2.3-beta.1+build5", out: "1.2.3"},
		{in: "256.0.0", err: true},
		{in: "1.2.65536", err: true},
		{in: "latest", err: true},
	}

	for _, tt := range tests {
		actual, err := FormatProductVersion(tt.in)
		if tt.err {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.out, actual)
	}
}

func TestFormatDebVersion(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1.0.0", formatDebVersion(0, "1.0.0", ""))
	require.Equal(t, "1.0.0-1", formatDebVersion(0, "1.0.0", "1"))
	require.Equal(t, "2:1.0.0-3", formatDebVersion(2, "1.0.0", "3"))
}

func TestEnvironmentRows(t *testing.T) {
	t.Parallel()

	deriver := ident.New(ident.DefaultNamespace)
	components, rows, err := environmentRows([]EnvironmentVariable{
		{Name: "GoPath", Value: "[INSTALLDIR]"},
		{Name: "GoPath", Value: "[INSTALLDIR]go", Append: true},
	}, deriver, tables.Component64Bit)
	require.NoError(t, err)

	require.Len(t, components, 2)
	require.Equal(t, "env_go_path", components[0].Component)
	require.Equal(t, "env_go_path_1", components[1].Component)
	require.Equal(t, deriver.ComponentID("env_go_path"), *components[0].ComponentID)
	require.Equal(t, tables.Component64Bit, components[1].Attributes)

	require.Equal(t, []tables.Environment{
		{Environment: "env_go_path", Name: "=-GoPath", Value: "[INSTALLDIR]", Component: "env_go_path"},
		{Environment: "env_go_path_1", Name: "=-GoPath", Value: "[~];[INSTALLDIR]go", Component: "env_go_path_1"},
	}, rows)
}

func TestIdentifierPart(t *testing.T) {
	t.Parallel()

	require.Equal(t, "my_var", identifierPart("my-var"))
	require.Equal(t, "a_b", identifierPart("a b"))
	require.Equal(t, "tool_home", identifierPart("TOOL_HOME"))
}

func TestExecuteSequenceOrdered(t *testing.T) {
	t.Parallel()

	seq := executeSequence()
	require.Len(t, seq, 26)
	for i := 1; i < len(seq); i++ {
		require.Less(t, *seq[i-1].Sequence, *seq[i].Sequence)
		require.True(t, tables.IsStandardAction(seq[i].Action), seq[i].Action)
	}
}
