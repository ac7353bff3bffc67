package ports

import (
	"context"

	"gaussapprox/domain/artifact"
)

// ArtifactStore persists named arrays. Keys are slash separated paths
// relative to the store root without extension, e.g. "T7/tau3/X_mean".
type ArtifactStore interface {
	Save(ctx context.Context, key string, arr artifact.Array) error
	Load(ctx context.Context, key string) (artifact.Array, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
