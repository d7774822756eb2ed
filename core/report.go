package core

import (
	"time"

	"github.com/google/uuid"
)

// TypeResult is the outcome of discovery for one object type.
type TypeResult struct {
	ObjectType    string `json:"object_type" yaml:"object_type"`
	RelationCount int    `json:"relation_count" yaml:"relation_count"`
	EventCount    int    `json:"event_count" yaml:"event_count"`
	ObjectCount   int    `json:"object_count" yaml:"object_count"`
	Model         Model  `json:"model" yaml:"model"`
}

// TypeFailure records a per-type failure when a run continues past errors.
type TypeFailure struct {
	ObjectType string `json:"object_type" yaml:"object_type"`
	Stage      string `json:"stage" yaml:"stage"`
	Error      string `json:"error" yaml:"error"`
}

// Report aggregates one discovery run. Results hold one entry per distinct
// object type, in the order the types first appear in the object table.
type Report struct {
	RunID          string        `json:"run_id" yaml:"run_id"`
	LogFingerprint string        `json:"log_fingerprint,omitempty" yaml:"log_fingerprint,omitempty"`
	CreatedAt      time.Time     `json:"created_at" yaml:"created_at"`
	Duration       time.Duration `json:"duration_ns" yaml:"duration_ns"`
	TotalCount     int           `json:"total_count" yaml:"total_count"`
	UnresolvedRefs int           `json:"unresolved_refs" yaml:"unresolved_refs"`
	Results        []TypeResult  `json:"results" yaml:"results"`
	Failures       []TypeFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// NewReport creates an empty report with a generated run ID.
func NewReport() *Report {
	return &Report{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Results:   []TypeResult{},
	}
}

// ObjectTypes returns the object types of the report in enumeration order.
func (r *Report) ObjectTypes() []string {
	types := make([]string, len(r.Results))
	for i, res := range r.Results {
		types[i] = res.ObjectType
	}
	return types
}

// Counts returns object type -> relation count.
func (r *Report) Counts() map[string]int {
	m := make(map[string]int, len(r.Results))
	for _, res := range r.Results {
		m[res.ObjectType] = res.RelationCount
	}
	return m
}

// Models returns object type -> discovered model.
func (r *Report) Models() map[string]Model {
	m := make(map[string]Model, len(r.Results))
	for _, res := range r.Results {
		m[res.ObjectType] = res.Model
	}
	return m
}

// Result looks up the result for one object type.
func (r *Report) Result(objectType string) (TypeResult, bool) {
	for _, res := range r.Results {
		if res.ObjectType == objectType {
			return res, true
		}
	}
	return TypeResult{}, false
}
