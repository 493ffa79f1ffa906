package packagekit

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Some build details are computed deep inside the packers but are
// useful to callers (eg: to print the product code after a build).
// They travel back through a map stored in the context.

type contextKey string

const (
	ContextProductCodeKey    contextKey = "ProductCode"
	ContextUpgradeCodeKey    contextKey = "UpgradeCode"
	ContextProductVersionKey contextKey = "ProductVersion"
	ContextCabinetCountKey   contextKey = "CabinetCount"

	buildInfoKey contextKey = "packagekit-build-info"
)

type buildInfo struct {
	sync.Mutex
	values map[contextKey]string
}

// InitContext returns a context able to carry build details.
func InitContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, buildInfoKey, &buildInfo{values: make(map[contextKey]string)})
}

// GetFromContext returns a detail recorded by a packer. Unset keys are
// blank, a context without InitContext is an error.
func GetFromContext(ctx context.Context, key contextKey) (string, error) {
	info, ok := ctx.Value(buildInfoKey).(*buildInfo)
	if !ok {
		return "", errors.New("context was not initialized for build info")
	}

	info.Lock()
	defer info.Unlock()
	return info.values[key], nil
}

// setInContext is a noop on contexts without InitContext.
func setInContext(ctx context.Context, key contextKey, val string) {
	info, ok := ctx.Value(buildInfoKey).(*buildInfo)
	if !ok {
		return
	}

	info.Lock()
	defer info.Unlock()
	info.values[key] = val
}
