package core

import (
	"time"
)

// Event is one row of the event table of an object-centric event log.
// Only ID is interpreted by the partitioning core; the rest is carried through.
type Event struct {
	ID         string                 `json:"id" msgpack:"id"`
	Activity   string                 `json:"type" msgpack:"type"`
	Timestamp  time.Time              `json:"time" msgpack:"time"`
	Attributes map[string]interface{} `json:"attributes,omitempty" msgpack:"attributes,omitempty"`
}

// Object is one row of the object table. Every object has exactly one type.
type Object struct {
	ID         string                 `json:"id" msgpack:"id"`
	Type       string                 `json:"type" msgpack:"type"`
	Attributes map[string]interface{} `json:"attributes,omitempty" msgpack:"attributes,omitempty"`
}

// Relation links an event to an object it involved. Rows are not unique.
type Relation struct {
	EventID   string `json:"event_id" msgpack:"event_id"`
	ObjectID  string `json:"object_id" msgpack:"object_id"`
	Qualifier string `json:"qualifier,omitempty" msgpack:"qualifier,omitempty"`
}

// Log is an object-centric event log held as three normalized tables.
// A sub-log produced by PartitionByObjectType has the same shape.
type Log struct {
	Events    []Event    `json:"events" msgpack:"events"`
	Objects   []Object   `json:"objects" msgpack:"objects"`
	Relations []Relation `json:"relations" msgpack:"relations"`
}

// ObjectTypes returns the distinct object types of the object table in
// first-seen order.
func (l *Log) ObjectTypes() []string {
	seen := make(map[string]struct{}, 8)
	var types []string
	for _, o := range l.Objects {
		if _, ok := seen[o.Type]; ok {
			continue
		}
		seen[o.Type] = struct{}{}
		types = append(types, o.Type)
	}
	return types
}

// IsEmpty reports whether the log has no events.
func (l *Log) IsEmpty() bool {
	return l == nil || len(l.Events) == 0
}
