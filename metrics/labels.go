package metrics

import "sync"

// MaxObjectTypeLabels bounds the distinct object_type label values. Object
// types come from submitted logs, so later types share OtherObjectType.
const MaxObjectTypeLabels = 100

// OtherObjectType labels object types beyond MaxObjectTypeLabels
const OtherObjectType = "other"

var objectTypeLabels = newLabelSet(MaxObjectTypeLabels)

// ObjectTypeLabel returns the label value to record for an object type
func ObjectTypeLabel(objectType string) string {
	return objectTypeLabels.label(objectType)
}

// labelSet admits the first limit distinct values and folds the rest
type labelSet struct {
	mu    sync.Mutex
	limit int
	seen  map[string]struct{}
}

func newLabelSet(limit int) *labelSet {
	return &labelSet{limit: limit, seen: make(map[string]struct{}, limit)}
}

func (s *labelSet) label(value string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[value]; ok {
		return value
	}
	if len(s.seen) >= s.limit {
		return OtherObjectType
	}
	s.seen[value] = struct{}{}
	return value
}
