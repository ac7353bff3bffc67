package ports

import (
	"context"

	"gaussapprox/domain/climate"
)

// ResultSink receives one summary row per (T, tau, percent). Implementations
// must be safe for concurrent use; horizons may be computed in parallel.
type ResultSink interface {
	Record(ctx context.Context, result climate.Result) error
}
