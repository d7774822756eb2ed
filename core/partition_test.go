package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventIDs(events []Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

func objectIDs(objects []Object) []string {
	ids := make([]string, len(objects))
	for i, o := range objects {
		ids[i] = o.ID
	}
	return ids
}

func TestPartitionByObjectType_Scenario(t *testing.T) {
	log := scenarioLog()
	relation, _ := ExtractUniversalRelation(log)

	tests := []struct {
		objectType string
		wantEvents []string
		wantObjs   []string
		wantRels   []Relation
		wantCount  int
	}{
		{
			objectType: "order",
			wantEvents: []string{"e1"},
			wantObjs:   []string{"o1", "o2"},
			wantRels:   []Relation{{EventID: "e1", ObjectID: "o1"}, {EventID: "e1", ObjectID: "o2"}},
			wantCount:  2,
		},
		{
			objectType: "item",
			wantEvents: []string{"e1", "e2"},
			wantObjs:   []string{"o1", "o2"},
			wantRels:   log.Relations,
			wantCount:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.objectType, func(t *testing.T) {
			sub, count := PartitionByObjectType(log, relation, tt.objectType)
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.wantEvents, eventIDs(sub.Events))
			assert.Equal(t, tt.wantObjs, objectIDs(sub.Objects))
			assert.Equal(t, tt.wantRels, sub.Relations)
		})
	}
}

func TestPartitionByObjectType_UnknownTypeIsEmpty(t *testing.T) {
	log := scenarioLog()
	relation, _ := ExtractUniversalRelation(log)

	sub, count := PartitionByObjectType(log, relation, "invoice")
	assert.Equal(t, 0, count)
	assert.Empty(t, sub.Events)
	assert.Empty(t, sub.Objects)
	assert.Empty(t, sub.Relations)
}

func TestPartitionByObjectType_UnresolvedNeverSelects(t *testing.T) {
	log := &Log{
		Events:    []Event{{ID: "e1"}, {ID: "e2"}},
		Objects:   []Object{{ID: "o1", Type: "order"}},
		Relations: []Relation{{EventID: "e1", ObjectID: "o1"}, {EventID: "e2", ObjectID: "ghost"}},
	}
	relation, _ := ExtractUniversalRelation(log)

	// An object type equal to the absent marker must not pick up the ghost row
	sub, count := PartitionByObjectType(log, relation, "")
	assert.Equal(t, 0, count)
	assert.Empty(t, sub.Events)

	sub, count = PartitionByObjectType(log, relation, "order")
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"e1"}, eventIDs(sub.Events))
}

func TestPartitionByObjectType_DoesNotMutateInput(t *testing.T) {
	log := scenarioLog()
	relation, _ := ExtractUniversalRelation(log)

	sub, _ := PartitionByObjectType(log, relation, "order")
	sub.Events[0].ID = "mutated"
	sub.Relations[0].ObjectID = "mutated"

	assert.Equal(t, scenarioLog(), log)
}

// randomLog builds a deterministic log with several types, duplicate relations
// and a dangling reference
func randomLog(events, objects int) *Log {
	types := []string{"order", "item", "package", "customer"}
	log := &Log{}
	for i := 0; i < objects; i++ {
		log.Objects = append(log.Objects, Object{ID: fmt.Sprintf("o%d", i), Type: types[(i*7)%len(types)]})
	}
	for i := 0; i < events; i++ {
		eid := fmt.Sprintf("e%d", i)
		log.Events = append(log.Events, Event{ID: eid, Activity: fmt.Sprintf("act%d", i%5)})
		for k := 0; k < 1+i%3; k++ {
			log.Relations = append(log.Relations, Relation{EventID: eid, ObjectID: fmt.Sprintf("o%d", (i*3+k*5)%objects)})
		}
		if i%11 == 0 {
			log.Relations = append(log.Relations, Relation{EventID: eid, ObjectID: fmt.Sprintf("o%d", i%objects)})
		}
	}
	log.Relations = append(log.Relations, Relation{EventID: "e0", ObjectID: "dangling"})
	return log
}

func TestPartitionProperties(t *testing.T) {
	log := randomLog(60, 17)
	relation, total := ExtractUniversalRelation(log)

	t.Run("count conservation", func(t *testing.T) {
		assert.Equal(t, len(log.Relations), total)
		assert.Equal(t, len(relation), total)
	})

	for _, objectType := range log.ObjectTypes() {
		sub, count := PartitionByObjectType(log, relation, objectType)

		t.Run(objectType+"/completeness", func(t *testing.T) {
			typed := make(map[string]string, len(log.Objects))
			for _, o := range log.Objects {
				typed[o.ID] = o.Type
			}
			inSub := make(map[Relation]int)
			for _, r := range sub.Relations {
				inSub[r]++
			}
			for _, r := range log.Relations {
				if typed[r.ObjectID] == objectType {
					assert.Positive(t, inSub[r], "relation %v missing from sub-log", r)
				}
			}
		})

		t.Run(objectType+"/self-consistency", func(t *testing.T) {
			assert.Equal(t, len(sub.Relations), count)
			relEvents := make(map[string]bool)
			relObjects := make(map[string]bool)
			for _, r := range sub.Relations {
				relEvents[r.EventID] = true
				relObjects[r.ObjectID] = true
			}
			for _, e := range sub.Events {
				assert.True(t, relEvents[e.ID], "orphan event %s", e.ID)
			}
			for _, o := range sub.Objects {
				assert.True(t, relObjects[o.ID], "orphan object %s", o.ID)
			}
		})

		t.Run(objectType+"/idempotence", func(t *testing.T) {
			relation2, total2 := ExtractUniversalRelation(log)
			require.Equal(t, total, total2)
			sub2, count2 := PartitionByObjectType(log, relation2, objectType)
			assert.Equal(t, count, count2)
			assert.Equal(t, sub, sub2)
		})
	}
}
