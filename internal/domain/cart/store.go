package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNoSnapshot is returned by Store.Load when nothing is stored for a key.
var ErrNoSnapshot = errors.New("cart snapshot not found")

// Store persists cart lines between engine lifetimes, e.g. across process
// restarts or session re-creation. Persistence is optional: an engine works
// without one.
type Store interface {
	Load(ctx context.Context, key string) ([]Line, error)
	Save(ctx context.Context, key string, lines []Line) error
	Delete(ctx context.Context, key string) error
}
