// Package composite runs the composite sweep: for every horizon T, lag tau
// and tail percentage it compares the empirical extreme-event composite of a
// standardized field with its Gaussian-approximation prediction.
package composite

import (
	"context"
	"math"
	"path"

	"gaussapprox/domain/artifact"
	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"
	"gaussapprox/internal/gaussian"
	"gaussapprox/internal/labels"
	"gaussapprox/internal/logger"
	"gaussapprox/internal/reshape"
	"gaussapprox/ports"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// Engine owns one sweep. It is not reusable across different sources.
type Engine struct {
	source ports.Source
	store  ports.ArtifactStore
	sink   ports.ResultSink
	log    logger.Logger
	opts   Options

	shape    []int
	reshaper *reshape.Reshaper
}

// NewEngine wires an engine. sink may be nil.
func NewEngine(source ports.Source, store ports.ArtifactStore, sink ports.ResultSink, log logger.Logger, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		source: source,
		store:  store,
		sink:   sink,
		log:    log.With("run_id", opts.RunID),
		opts:   opts,
		shape:  source.SpatialShape(),
	}, nil
}

// RunID identifies the results produced by this engine.
func (e *Engine) RunID() string {
	return e.opts.RunID
}

// Reshaper returns the mask built by Prepare, or nil before it ran.
func (e *Engine) Reshaper() *reshape.Reshaper {
	return e.reshaper
}

// Prepare is the initialization phase. It builds the design matrix of the
// first (T, tau) pair and fixes the reshaper from its non-zero standard
// deviations. Every later reshape assumes this coordinate layout.
func (e *Engine) Prepare(ctx context.Context) error {
	if e.reshaper != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	T, tau := e.opts.Ts[0], e.opts.Taus[0]
	design, err := e.source.Design(e.opts.Window, T, tau)
	if err != nil {
		return errors.Wrapf(err, "design matrix for T=%d tau=%d", T, tau)
	}
	if err := e.checkSpatial(design); err != nil {
		return err
	}
	_, std, err := columnMoments(design.Values, design.Samples(), design.Spatial)
	if err != nil {
		return err
	}

	r := reshape.FromStd(std)
	if r.Active() == 0 {
		return errors.Degenerate("all %d grid points have zero variance at T=%d tau=%d", r.Size(), T, tau)
	}
	e.reshaper = r
	e.log.Info("reshaper initialized", "T", T, "tau", tau, "active", r.Active(), "size", r.Size())
	return nil
}

// Run executes the whole sweep and returns the results in sweep order
// (T, then tau, then percent as configured). The first failure aborts the
// run; artifacts written by completed steps stay on disk.
func (e *Engine) Run(ctx context.Context) ([]climate.Result, error) {
	if err := e.Prepare(ctx); err != nil {
		return nil, err
	}

	lat, lon := e.source.Grid()
	if err := e.save(ctx, "lon", artifact.Vector(lon)); err != nil {
		return nil, err
	}
	if err := e.save(ctx, "lat", artifact.Vector(lat)); err != nil {
		return nil, err
	}

	perHorizon := make([][]climate.Result, len(e.opts.Ts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, T := range e.opts.Ts {
		g.Go(func() error {
			res, err := e.runHorizon(gctx, T)
			if err != nil {
				return errors.Wrapf(err, "horizon T=%d", T)
			}
			perHorizon[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []climate.Result
	for _, res := range perHorizon {
		results = append(results, res...)
	}
	e.log.Info("sweep complete", "results", len(results))
	return results, nil
}

func (e *Engine) runHorizon(ctx context.Context, T int) ([]climate.Result, error) {
	log := e.log.With("T", T)
	log.Info("horizon")
	key := climate.Key{T: T}

	target, err := e.source.Target(e.opts.Window, T)
	if err != nil {
		return nil, errors.Wrap(err, "scalar index")
	}
	if target.Years < 1 || target.Days < 1 || len(target.Values) != target.Samples() {
		return nil, errors.ShapeMismatch("A holds %d values for %d years x %d days", len(target.Values), target.Years, target.Days)
	}
	log.Debug("index dims", "years", target.Years, "days", target.Days)
	if err := e.save(ctx, path.Join(key.HorizonDir(), "A"), artifact.Shaped([]int{target.Years, target.Days}, target.Values)); err != nil {
		return nil, err
	}

	sigmaAA, err := stats.PopulationVariance(target.Values)
	if err != nil {
		return nil, errors.Degenerate("variance of A: %v", err)
	}
	switch {
	case math.IsNaN(sigmaAA) || sigmaAA < 0:
		return nil, errors.InternalError("population variance of A is " + formatFloat(sigmaAA))
	case sigmaAA == 0:
		return nil, errors.Degenerate("A is constant (Sigma_AA = 0) at T=%d", T)
	}
	log.Debug("index moments", "Sigma_AA", sigmaAA)
	if shape, err := gaussian.Normality(target.Values); err == nil {
		log.Info("index shape",
			"skewness", shape.Skewness,
			"excess_kurtosis", shape.ExcessKurtosis,
			"jarque_bera_p", shape.PValue)
		if !shape.Normal(0.01) {
			log.Warn("index is not Gaussian; expect larger composite errors", "jarque_bera", shape.JarqueBera)
		}
	}
	if err := e.save(ctx, path.Join(key.HorizonDir(), "Sigma_AA"), artifact.Scalar(sigmaAA)); err != nil {
		return nil, err
	}

	var results []climate.Result
	for _, tau := range e.opts.Taus {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := e.runLag(ctx, log, climate.Key{T: T, Tau: tau}, target, sigmaAA)
		if err != nil {
			return nil, errors.Wrapf(err, "lag tau=%d", tau)
		}
		results = append(results, res...)
	}
	return results, nil
}

func (e *Engine) runLag(ctx context.Context, log logger.Logger, key climate.Key, target *climate.Target, sigmaAA float64) ([]climate.Result, error) {
	log = log.With("tau", key.Tau)
	log.Info("lag")

	design, err := e.source.Design(e.opts.Window, key.T, key.Tau)
	if err != nil {
		return nil, errors.Wrap(err, "design matrix")
	}
	if err := e.checkSpatial(design); err != nil {
		return nil, err
	}
	n := design.Samples()
	if n != target.Samples() {
		return nil, errors.ShapeMismatch("design matrix has %d samples but A has %d", n, target.Samples())
	}
	log.Debug("design shape", "samples", n, "spatial", design.Spatial)

	mean, std, err := columnMoments(design.Values, n, design.Spatial)
	if err != nil {
		return nil, err
	}
	// Mean and std go to disk on the full grid, before compaction.
	if err := e.save(ctx, path.Join(key.LagDir(), "X_mean"), artifact.Shaped(e.shape, mean)); err != nil {
		return nil, err
	}
	if err := e.save(ctx, path.Join(key.LagDir(), "X_std"), artifact.Shaped(e.shape, std)); err != nil {
		return nil, err
	}

	x, err := e.reshaper.Reshape(design.Values)
	if err != nil {
		return nil, err
	}
	mean, err = e.reshaper.Reshape(mean)
	if err != nil {
		return nil, err
	}
	std, err = e.reshaper.Reshape(std)
	if err != nil {
		return nil, err
	}
	q := e.reshaper.Active()
	log.Debug("reshaped", "samples", n, "active", q)

	if err := standardize(x, mean, std, e.reshaper.Coordinate); err != nil {
		return nil, err
	}

	sigmaXA := crossCovariance(x, n, q, target.Values)
	if err := e.saveGrid(ctx, path.Join(key.LagDir(), "Sigma_XA"), sigmaXA); err != nil {
		return nil, err
	}

	results := make([]climate.Result, 0, len(e.opts.Percents))
	for _, percent := range e.opts.Percents {
		key.Percent = percent
		res, err := e.runPercent(ctx, log, key, target, x, q, sigmaXA, sigmaAA)
		if err != nil {
			return nil, errors.Wrapf(err, "percent=%s", climate.FormatPercent(percent))
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) runPercent(ctx context.Context, log logger.Logger, key climate.Key, target *climate.Target,
	x []float64, q int, sigmaXA []float64, sigmaAA float64) (climate.Result, error) {
	log = log.With("percent", key.Percent)
	log.Info("composite")
	dir := key.PercentDir()

	mask, threshold, err := labels.OverThreshold(target.Values, key.Percent)
	if err != nil {
		return climate.Result{}, err
	}
	if err := e.save(ctx, path.Join(dir, "Y"), artifact.Mask([]int{target.Years, target.Days}, mask)); err != nil {
		return climate.Result{}, err
	}
	if err := e.save(ctx, path.Join(dir, "threshold"), artifact.Vector([]float64{threshold})); err != nil {
		return climate.Result{}, err
	}

	heat, count := selectRows(x, q, mask)
	if count == 0 {
		return climate.Result{}, errors.Degenerate("no sample exceeds threshold %g", threshold)
	}
	comp, compStd, err := columnMoments(heat, count, q)
	if err != nil {
		return climate.Result{}, err
	}
	log.Debug("empirical composite", "exceedances", count, "active", q)
	if err := e.saveGrid(ctx, path.Join(dir, "X_comp"), comp); err != nil {
		return climate.Result{}, err
	}
	if err := e.saveGrid(ctx, path.Join(dir, "X_comp_std"), compStd); err != nil {
		return climate.Result{}, err
	}

	compGA, err := gaussian.Composite(sigmaXA, threshold, sigmaAA)
	if err != nil {
		return climate.Result{}, err
	}
	if err := e.saveGrid(ctx, path.Join(dir, "X_comp_GA"), compGA); err != nil {
		return climate.Result{}, err
	}

	ratio, err := gaussian.NormRatio(compGA, comp)
	if err != nil {
		return climate.Result{}, err
	}
	log.Info("composite error", "norm_ratio", ratio)
	if err := e.save(ctx, path.Join(dir, "norm_ratio"), artifact.Vector([]float64{ratio})); err != nil {
		return climate.Result{}, err
	}

	result := climate.Result{
		RunID:       e.opts.RunID,
		T:           key.T,
		Tau:         key.Tau,
		Percent:     key.Percent,
		Threshold:   threshold,
		Exceedances: count,
		Samples:     target.Samples(),
		SigmaAA:     sigmaAA,
		NormRatio:   ratio,
	}
	if e.sink != nil {
		if err := e.sink.Record(ctx, result); err != nil {
			return climate.Result{}, errors.Wrap(err, "record result")
		}
	}
	return result, nil
}

func (e *Engine) checkSpatial(design *climate.Design) error {
	size := artifact.Size(e.shape)
	if design.Spatial < 1 || design.Spatial != size {
		return errors.ShapeMismatch("design matrix has %d grid points, grid shape %v has %d", design.Spatial, e.shape, size)
	}
	if e.reshaper != nil && design.Spatial != e.reshaper.Size() {
		return errors.ShapeMismatch("design matrix has %d grid points, reshaper was built on %d", design.Spatial, e.reshaper.Size())
	}
	if len(design.Values) != design.Samples()*design.Spatial {
		return errors.ShapeMismatch("design matrix holds %d values, expected %d", len(design.Values), design.Samples()*design.Spatial)
	}
	return nil
}

// saveGrid expands active coordinates back to the full grid before saving.
func (e *Engine) saveGrid(ctx context.Context, key string, active []float64) error {
	full, err := e.reshaper.InverseReshape(active, 1)
	if err != nil {
		return err
	}
	return e.save(ctx, key, artifact.Shaped(e.shape, full))
}

func (e *Engine) save(ctx context.Context, key string, arr artifact.Array) error {
	if err := e.store.Save(ctx, key, arr); err != nil {
		if errors.HasCode(err, errors.CodeWriteFailure) {
			return err
		}
		return errors.WriteFailure(key, err)
	}
	return nil
}
