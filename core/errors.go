package core

import (
	"errors"
	"fmt"
)

// Error constants
var (
	// ErrDiscoveryFailed is matched by every *DiscoveryError
	ErrDiscoveryFailed = errors.New("discovery failed")

	// ErrNilLog is returned when a run is started without a log
	ErrNilLog = errors.New("log is nil")
)

// Stages of per-type processing that can fail.
const (
	StageDiscover  = "discover"
	StageVisualize = "visualize"
)

// DiscoveryError reports a failed discovery or visualization call for one
// object type.
type DiscoveryError struct {
	ObjectType string
	Stage      string
	Err        error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s failed for object type %q: %v", e.Stage, e.ObjectType, e.Err)
}

// Unwrap returns the underlying service error.
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDiscoveryFailed) hold for every DiscoveryError.
func (e *DiscoveryError) Is(target error) bool {
	return target == ErrDiscoveryFailed
}
