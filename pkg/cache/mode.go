package cache

import "context"

// ExecutionMode distinguishes request-time serving from build-time
// pre-rendering.
type ExecutionMode int

const (
	ModeRuntime ExecutionMode = iota
	ModeStatic
)

func (m ExecutionMode) String() string {
	if m == ModeStatic {
		return "static"
	}
	return "runtime"
}

// ModeGuard rejects reads with ErrStaticReadDisallowed while the process is
// pre-rendering. Writes, deletes and listing pass through.
type ModeGuard struct {
	Store
	mode ExecutionMode
}

func NewModeGuard(store Store, mode ExecutionMode) *ModeGuard {
	return &ModeGuard{Store: store, mode: mode}
}

func (g *ModeGuard) Get(ctx context.Context, key string) ([]byte, error) {
	if g.mode == ModeStatic {
		return nil, ErrStaticReadDisallowed
	}
	return g.Store.Get(ctx, key)
}
