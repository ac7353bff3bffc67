package app

import (
	"context"
	"path"
	"strings"

	"gaussapprox/domain/artifact"
	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"
	"gaussapprox/internal/logger"
	"gaussapprox/ports"
)

// ImportArtifacts rebuilds result rows from an existing artifact tree, for
// example one written by an earlier run, and records them to sink. It
// returns the imported results in tree order.
func ImportArtifacts(ctx context.Context, store ports.ArtifactStore, sink ports.ResultSink, runID string, log logger.Logger) ([]climate.Result, error) {
	if log == nil {
		log = logger.NewNop()
	}
	keys, err := store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var results []climate.Result
	sigmaAA := map[int]float64{}
	for _, key := range keys {
		if !strings.HasSuffix(key, "/norm_ratio") {
			continue
		}
		dir := path.Dir(key)
		k, err := climate.ParsePercentDir(dir)
		if err != nil {
			log.Warn("skipping unrecognised artifact", "key", key)
			continue
		}

		r := climate.Result{RunID: runID, T: k.T, Tau: k.Tau, Percent: k.Percent}
		if r.NormRatio, err = loadScalar(ctx, store, key); err != nil {
			return nil, err
		}
		if r.Threshold, err = loadScalar(ctx, store, path.Join(dir, "threshold")); err != nil {
			return nil, err
		}
		y, err := store.Load(ctx, path.Join(dir, "Y"))
		if err != nil {
			return nil, err
		}
		if y.Dtype != artifact.Bool {
			return nil, errors.InvalidInput(path.Join(dir, "Y") + " is not a boolean mask")
		}
		r.Samples = len(y.Bool)
		for _, hit := range y.Bool {
			if hit {
				r.Exceedances++
			}
		}

		s, ok := sigmaAA[k.T]
		if !ok {
			if s, err = loadScalar(ctx, store, path.Join(k.HorizonDir(), "Sigma_AA")); err != nil {
				return nil, err
			}
			sigmaAA[k.T] = s
		}
		r.SigmaAA = s

		if sink != nil {
			if err := sink.Record(ctx, r); err != nil {
				return nil, errors.Wrap(err, "record imported result")
			}
		}
		results = append(results, r)
	}
	log.Info("artifacts imported", "results", len(results), "run_id", runID)
	return results, nil
}

func loadScalar(ctx context.Context, store ports.ArtifactStore, key string) (float64, error) {
	arr, err := store.Load(ctx, key)
	if err != nil {
		return 0, err
	}
	if arr.Dtype != artifact.Float64 || len(arr.Float) != 1 {
		return 0, errors.ShapeMismatch("%s holds %d values, expected one float", key, arr.Len())
	}
	return arr.Float[0], nil
}
