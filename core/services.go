package core

import (
	"context"
)

// ============================================================================
// Collaborator Interfaces
// ============================================================================
//
// Discovery and visualization are collaborators of the partitioning core.
// The core hands them a well-formed sub-log or model and never looks inside
// what they return.

// Model is the opaque result of a discovery call.
type Model interface{}

// Discoverer turns a sub-log into a behavioral model.
// Implementations are treated as blocking and non-reentrant.
type Discoverer interface {
	Discover(ctx context.Context, subLog *Log) (Model, error)
}

// Visualizer renders a discovered model. Its only output the core consumes is
// the error.
type Visualizer interface {
	Visualize(ctx context.Context, objectType string, model Model) error
}

// DiscovererFunc adapts a plain function to the Discoverer interface.
type DiscovererFunc func(ctx context.Context, subLog *Log) (Model, error)

// Discover calls f(ctx, subLog).
func (f DiscovererFunc) Discover(ctx context.Context, subLog *Log) (Model, error) {
	return f(ctx, subLog)
}

// ============================================================================
// SubModelDiscoverer
// ============================================================================

// SubModelDiscoverer passes a sub-log straight to the injected discovery
// service. It performs no retry and no recovery; a failure comes back as a
// *DiscoveryError carrying the object type.
type SubModelDiscoverer struct {
	discoverer Discoverer
}

// NewSubModelDiscoverer wraps a discovery service.
func NewSubModelDiscoverer(d Discoverer) *SubModelDiscoverer {
	if d == nil {
		panic("discoverer is required")
	}
	return &SubModelDiscoverer{discoverer: d}
}

// Discover returns the model produced by the discovery service unchanged.
func (s *SubModelDiscoverer) Discover(ctx context.Context, objectType string, subLog *Log) (Model, error) {
	model, err := s.discoverer.Discover(ctx, subLog)
	if err != nil {
		return nil, &DiscoveryError{ObjectType: objectType, Stage: StageDiscover, Err: err}
	}
	return model, nil
}

// Visualize forwards a model to a visualizer, wrapping its failure the same
// way discovery failures are wrapped.
func Visualize(ctx context.Context, v Visualizer, objectType string, model Model) error {
	if err := v.Visualize(ctx, objectType, model); err != nil {
		return &DiscoveryError{ObjectType: objectType, Stage: StageVisualize, Err: err}
	}
	return nil
}
