package discovery

import (
	"context"
	"testing"
	"time"

	"hydra/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

// orderLog has one order and two items; e4 ties with e2 on timestamp
func orderLog() *core.Log {
	return &core.Log{
		Events: []core.Event{
			{ID: "e1", Activity: "create", Timestamp: at(1)},
			{ID: "e2", Activity: "pick", Timestamp: at(2)},
			{ID: "e3", Activity: "ship", Timestamp: at(3)},
			{ID: "e4", Activity: "pick", Timestamp: at(2)},
		},
		Objects: []core.Object{
			{ID: "o1", Type: "order"},
			{ID: "i1", Type: "item"},
			{ID: "i2", Type: "item"},
		},
		Relations: []core.Relation{
			{EventID: "e1", ObjectID: "o1"},
			{EventID: "e1", ObjectID: "i1"},
			{EventID: "e1", ObjectID: "i2"},
			{EventID: "e2", ObjectID: "i1"},
			{EventID: "e2", ObjectID: "i1"},
			{EventID: "e4", ObjectID: "i2"},
			{EventID: "e3", ObjectID: "o1"},
			{EventID: "e3", ObjectID: "i1"},
			{EventID: "e3", ObjectID: "i2"},
			{EventID: "e9", ObjectID: "o1"},
		},
	}
}

func discover(t *testing.T, d *OCDFGDiscoverer, log *core.Log) *OCDFG {
	t.Helper()
	model, err := d.Discover(context.Background(), log)
	require.NoError(t, err)
	g, ok := model.(*OCDFG)
	require.True(t, ok, "expected *OCDFG, got %T", model)
	return g
}

func TestOCDFGDiscoverer_Discover(t *testing.T) {
	g := discover(t, NewOCDFGDiscoverer(1, nil), orderLog())

	assert.Equal(t, map[string]int{"create": 1, "pick": 2, "ship": 1}, g.Activities)
	assert.Equal(t, []string{"item", "order"}, g.ObjectTypes)
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())

	order := g.Perspectives["order"]
	require.NotNil(t, order)
	assert.Equal(t, 1, order.Objects)
	assert.Equal(t, []Edge{{Source: "create", Target: "ship", EventCouples: 1, Objects: 1}}, order.Edges)
	assert.Equal(t, map[string]int{"create": 1}, order.StartActivities)
	assert.Equal(t, map[string]int{"ship": 1}, order.EndActivities)

	item := g.Perspectives["item"]
	require.NotNil(t, item)
	assert.Equal(t, 2, item.Objects)
	assert.Equal(t, ActivityStats{Events: 1, Objects: 2}, item.Activities["create"])
	assert.Equal(t, ActivityStats{Events: 2, Objects: 2}, item.Activities["pick"])
	assert.Equal(t, []Edge{
		{Source: "create", Target: "pick", EventCouples: 2, Objects: 2},
		{Source: "pick", Target: "ship", EventCouples: 2, Objects: 2},
	}, item.Edges)
	assert.Equal(t, map[string]int{"create": 2}, item.StartActivities)
	assert.Equal(t, map[string]int{"ship": 2}, item.EndActivities)
}

func TestOCDFGDiscoverer_OrdersByTimestamp(t *testing.T) {
	log := &core.Log{
		Events: []core.Event{
			{ID: "late", Activity: "b", Timestamp: at(10)},
			{ID: "early", Activity: "a", Timestamp: at(1)},
		},
		Objects:   []core.Object{{ID: "x", Type: "thing"}},
		Relations: []core.Relation{{EventID: "late", ObjectID: "x"}, {EventID: "early", ObjectID: "x"}},
	}

	g := discover(t, NewOCDFGDiscoverer(0, nil), log)
	p := g.Perspectives["thing"]
	require.NotNil(t, p)
	assert.Equal(t, []Edge{{Source: "a", Target: "b", EventCouples: 1, Objects: 1}}, p.Edges)
	assert.Equal(t, map[string]int{"a": 1}, p.StartActivities)
}

func TestOCDFGDiscoverer_MinEdgeFrequency(t *testing.T) {
	g := discover(t, NewOCDFGDiscoverer(2, nil), orderLog())

	assert.Empty(t, g.Perspectives["order"].Edges)
	assert.Len(t, g.Perspectives["item"].Edges, 2)
	assert.Equal(t, 2, g.EdgeCount())
}

func TestOCDFGDiscoverer_EmptyLog(t *testing.T) {
	d := NewOCDFGDiscoverer(1, nil)

	for name, log := range map[string]*core.Log{"empty": {}, "nil": nil} {
		t.Run(name, func(t *testing.T) {
			g := discover(t, d, log)
			assert.Equal(t, 0, g.NodeCount())
			assert.Equal(t, 0, g.EdgeCount())
			assert.Empty(t, g.ObjectTypes)
		})
	}
}

func TestOCDFGDiscoverer_ObjectsWithoutEvents(t *testing.T) {
	log := &core.Log{
		Events:  []core.Event{{ID: "e1", Activity: "create", Timestamp: at(1)}},
		Objects: []core.Object{{ID: "o1", Type: "order"}, {ID: "idle", Type: "customer"}},
		Relations: []core.Relation{
			{EventID: "e1", ObjectID: "o1"},
		},
	}

	g := discover(t, NewOCDFGDiscoverer(1, nil), log)
	assert.Equal(t, []string{"order"}, g.ObjectTypes)
	assert.NotContains(t, g.Perspectives, "customer")
}

func TestOCDFGDiscoverer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOCDFGDiscoverer(1, nil).Discover(ctx, orderLog())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOCDFGDiscoverer_SubLogFromPartition(t *testing.T) {
	log := orderLog()
	relation, _ := core.ExtractUniversalRelation(log)
	sub, _ := core.PartitionByObjectType(log, relation, "order")

	g := discover(t, NewOCDFGDiscoverer(1, nil), sub)

	// the order partition keeps the items linked to order events
	assert.Equal(t, []string{"item", "order"}, g.ObjectTypes)
	assert.NotContains(t, g.Activities, "pick")
}
