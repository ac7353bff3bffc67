package app

import (
	"context"
	"time"

	"gaussapprox/adapters/excel"
	"gaussapprox/domain/climate"
	"gaussapprox/internal/composite"
	"gaussapprox/internal/errors"
	"gaussapprox/internal/logger"
	"gaussapprox/ports"
)

// CompositeService runs sweeps and publishes their summaries.
type CompositeService struct {
	store ports.ArtifactStore
	sink  ports.ResultSink
	log   logger.Logger
}

// SweepRequest defines one sweep.
type SweepRequest struct {
	Source  ports.Source
	Options composite.Options
	// ReportFile, when set, receives an xlsx summary of the results.
	ReportFile string
}

// SweepResult is the outcome of a completed sweep.
type SweepResult struct {
	RunID   string
	Results []climate.Result
	Runtime time.Duration
}

// NewCompositeService creates the service. sink may be nil.
func NewCompositeService(store ports.ArtifactStore, sink ports.ResultSink, log logger.Logger) *CompositeService {
	if log == nil {
		log = logger.NewNop()
	}
	return &CompositeService{store: store, sink: sink, log: log}
}

// RunSweep executes the sweep and writes the optional report.
func (s *CompositeService) RunSweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	start := time.Now()

	engine, err := composite.NewEngine(req.Source, s.store, s.sink, s.log, req.Options)
	if err != nil {
		return nil, err
	}
	s.log.Info("sweep starting",
		"run_id", engine.RunID(),
		"Ts", req.Options.Ts,
		"taus", len(req.Options.Taus),
		"percents", req.Options.Percents,
		"workers", req.Options.Workers)

	results, err := engine.Run(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "sweep %s failed", engine.RunID())
	}

	if req.ReportFile != "" {
		if err := excel.WriteSummary(req.ReportFile, results); err != nil {
			return nil, err
		}
		s.log.Info("summary written", "path", req.ReportFile)
	}

	out := &SweepResult{RunID: engine.RunID(), Results: results, Runtime: time.Since(start)}
	s.log.Info("sweep finished", "run_id", out.RunID, "results", len(results), "runtime", out.Runtime)
	return out, nil
}
