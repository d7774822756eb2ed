package core

// PartitionByObjectType derives the sub-log of the events relevant to one
// object type.
//
// An event is relevant when at least one universal relation entry links it to
// an object of objectType. The sub-log keeps every relation row of a relevant
// event, including links to objects of other types, and every object those rows
// reference. Row order of all three tables is preserved. The returned count is
// the number of relation rows in the sub-log.
//
// The input log and relation are only read; all returned slices are new.
func PartitionByObjectType(log *Log, relation []UniversalRelationEntry, objectType string) (*Log, int) {
	relevant := make(map[string]struct{})
	for _, e := range relation {
		if e.Resolved && e.ObjectType == objectType {
			relevant[e.EventID] = struct{}{}
		}
	}

	sub := &Log{
		Events:    make([]Event, 0, len(relevant)),
		Objects:   []Object{},
		Relations: []Relation{},
	}

	for _, ev := range log.Events {
		if _, ok := relevant[ev.ID]; ok {
			sub.Events = append(sub.Events, ev)
		}
	}

	related := make(map[string]struct{})
	for _, r := range log.Relations {
		if _, ok := relevant[r.EventID]; ok {
			sub.Relations = append(sub.Relations, r)
			related[r.ObjectID] = struct{}{}
		}
	}

	for _, o := range log.Objects {
		if _, ok := related[o.ID]; ok {
			sub.Objects = append(sub.Objects, o)
		}
	}

	return sub, len(sub.Relations)
}
