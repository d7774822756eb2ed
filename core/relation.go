package core

// UniversalRelationEntry is one event-object link with the object type
// resolved through the object table. Resolved is false when the object ID is
// missing from the object table; ObjectType is empty in that case.
type UniversalRelationEntry struct {
	EventID    string `json:"event_id"`
	ObjectID   string `json:"object_id"`
	ObjectType string `json:"object_type,omitempty"`
	Resolved   bool   `json:"resolved"`
}

// ExtractUniversalRelation builds the universal event-object relation of a log.
//
// Relation rows are grouped by event ID: groups appear in the order their
// event ID is first seen in the relation table and rows keep their original
// order inside a group. Exactly one entry is emitted per relation row, so the
// returned count always equals len(log.Relations).
func ExtractUniversalRelation(log *Log) ([]UniversalRelationEntry, int) {
	objectTypes := make(map[string]string, len(log.Objects))
	for _, o := range log.Objects {
		objectTypes[o.ID] = o.Type
	}

	var order []string
	groups := make(map[string][]string)
	for _, r := range log.Relations {
		if _, ok := groups[r.EventID]; !ok {
			order = append(order, r.EventID)
		}
		groups[r.EventID] = append(groups[r.EventID], r.ObjectID)
	}

	relation := make([]UniversalRelationEntry, 0, len(log.Relations))
	for _, eid := range order {
		for _, oid := range groups[eid] {
			otype, ok := objectTypes[oid]
			relation = append(relation, UniversalRelationEntry{
				EventID:    eid,
				ObjectID:   oid,
				ObjectType: otype,
				Resolved:   ok,
			})
		}
	}

	return relation, len(relation)
}

// CountUnresolved returns the number of entries whose object is not in the
// object table.
func CountUnresolved(relation []UniversalRelationEntry) int {
	n := 0
	for _, e := range relation {
		if !e.Resolved {
			n++
		}
	}
	return n
}
