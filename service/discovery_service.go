package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"hydra/core"

	"go.uber.org/zap"
)

// ============================================================================
// Options
// ============================================================================

// Option configures a DiscoveryService.
type Option func(*DiscoveryService)

// WithObserver sets the observer notified of run progress.
func WithObserver(observer core.Observer) Option {
	return func(s *DiscoveryService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithVisualizer renders every discovered model after discovery.
func WithVisualizer(visualizer core.Visualizer) Option {
	return func(s *DiscoveryService) {
		s.visualizer = visualizer
	}
}

// WithContinueOnError sets the default failure policy of Run.
func WithContinueOnError(on bool) Option {
	return func(s *DiscoveryService) {
		s.continueOnError = on
	}
}

// RunOption overrides service defaults for a single run.
type RunOption func(*runSettings)

type runSettings struct {
	continueOnError bool
	fingerprint     string
}

// ContinueOnError overrides the failure policy for one run.
func ContinueOnError(on bool) RunOption {
	return func(r *runSettings) {
		r.continueOnError = on
	}
}

// Fingerprint records the fingerprint of the input log on the report.
func Fingerprint(fp string) RunOption {
	return func(r *runSettings) {
		r.fingerprint = fp
	}
}

// ============================================================================
// DiscoveryService
// ============================================================================

// DiscoveryService runs object-wise discovery over an event log: it builds the
// universal event-object relation once, then partitions and discovers one
// model per object type.
//
// Object types are processed sequentially. Calls into the discoverer and the
// visualizer are serialized across concurrent runs.
type DiscoveryService struct {
	discoverer      *core.SubModelDiscoverer
	visualizer      core.Visualizer
	observer        core.Observer
	logger          *zap.SugaredLogger
	continueOnError bool

	mu sync.Mutex
}

// NewDiscoveryService creates a service around the given discoverer.
// Panics if discoverer or logger is nil.
func NewDiscoveryService(discoverer core.Discoverer, logger *zap.SugaredLogger, opts ...Option) *DiscoveryService {
	if discoverer == nil {
		panic("discoverer is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	s := &DiscoveryService{
		discoverer: core.NewSubModelDiscoverer(discoverer),
		observer:   core.NopObserver{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run discovers one model per object type of log.
//
// By default the first failing object type aborts the run and its
// *core.DiscoveryError is returned. With ContinueOnError the failure is
// recorded in Report.Failures, the type keeps its relation count with a nil
// model, and the run goes on. A cancelled context stops the run before the
// next object type.
func (s *DiscoveryService) Run(ctx context.Context, log *core.Log, opts ...RunOption) (*core.Report, error) {
	if log == nil {
		return nil, core.ErrNilLog
	}
	settings := runSettings{continueOnError: s.continueOnError}
	for _, opt := range opts {
		opt(&settings)
	}

	start := time.Now()
	report := core.NewReport()
	report.LogFingerprint = settings.fingerprint

	relation, total := core.ExtractUniversalRelation(log)
	report.TotalCount = total
	report.UnresolvedRefs = core.CountUnresolved(relation)
	s.observer.RelationExtracted(total, report.UnresolvedRefs)

	for _, objectType := range log.ObjectTypes() {
		if err := ctx.Err(); err != nil {
			s.observer.RunAborted(err)
			return nil, err
		}

		sub, count := core.PartitionByObjectType(log, relation, objectType)
		s.observer.PartitionBuilt(objectType, len(sub.Events), len(sub.Objects), count)

		result := core.TypeResult{
			ObjectType:    objectType,
			RelationCount: count,
			EventCount:    len(sub.Events),
			ObjectCount:   len(sub.Objects),
		}

		model, err := s.processType(ctx, objectType, sub)
		result.Model = model
		if err != nil {
			s.observer.TypeFailed(objectType, err)
			if !settings.continueOnError {
				s.observer.RunAborted(err)
				return nil, err
			}
			report.Failures = append(report.Failures, failureOf(objectType, err))
		}

		report.Results = append(report.Results, result)
	}

	report.Duration = time.Since(start)
	s.observer.RunCompleted(report)
	return report, nil
}

// processType discovers and optionally visualizes one sub-log. A model is
// returned alongside a visualization error.
func (s *DiscoveryService) processType(ctx context.Context, objectType string, sub *core.Log) (core.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	model, err := s.discoverer.Discover(ctx, objectType, sub)
	if err != nil {
		return nil, err
	}
	s.observer.ModelDiscovered(objectType, time.Since(start))

	if s.visualizer != nil {
		if err := core.Visualize(ctx, s.visualizer, objectType, model); err != nil {
			return model, err
		}
	}
	return model, nil
}

func failureOf(objectType string, err error) core.TypeFailure {
	f := core.TypeFailure{ObjectType: objectType, Stage: core.StageDiscover, Error: err.Error()}
	var de *core.DiscoveryError
	if errors.As(err, &de) {
		f.Stage = de.Stage
		f.Error = de.Err.Error()
	}
	return f
}
