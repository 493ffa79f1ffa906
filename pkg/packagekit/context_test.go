package packagekit

import (
	"context"
	"testing"

	"github.com/kolide/kit/ulid"
	"github.com/stretchr/testify/require"
)

func TestContextError(t *testing.T) {
	t.Parallel()

	_, err := GetFromContext(context.Background(), ContextProductCodeKey)
	require.Error(t, err)

	// setting on a bare context must not panic
	setInContext(context.Background(), ContextProductCodeKey, "x")
}

func TestContextBlanks(t *testing.T) {
	t.Parallel()

	ctx := InitContext(context.Background())

	actual, err := GetFromContext(ctx, ContextProductCodeKey)
	require.NoError(t, err)
	require.Empty(t, actual)
}

func TestContext(t *testing.T) {
	t.Parallel()

	ctx := InitContext(context.Background())

	var contextPairs = []struct {
		name string
		key  contextKey
		val  string
	}{
		{
			name: "product code",
			key:  ContextProductCodeKey,
			val:  ulid.New(),
		},
		{
			name: "upgrade code",
			key:  ContextUpgradeCodeKey,
			val:  ulid.New(),
		},
		{
			name: "product version",
			key:  ContextProductVersionKey,
			val:  ulid.New(),
		},
	}

	for _, pair := range contextPairs {
		setInContext(ctx, pair.key, pair.val)
	}

	for _, pair := range contextPairs {
		pair := pair
		t.Run(pair.name, func(t *testing.T) {
			t.Parallel()
			actual, err := GetFromContext(ctx, pair.key)
			require.NoError(t, err)
			require.Equal(t, pair.val, actual)
		})
	}
}
