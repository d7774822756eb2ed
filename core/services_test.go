package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hydra/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubVisualizer struct {
	err   error
	calls []string
}

func (v *stubVisualizer) Visualize(_ context.Context, objectType string, _ Model) error {
	v.calls = append(v.calls, objectType)
	return v.err
}

func TestSubModelDiscoverer_PassThrough(t *testing.T) {
	model := map[string]int{"nodes": 2}
	var seen *Log
	d := NewSubModelDiscoverer(DiscovererFunc(func(_ context.Context, sub *Log) (Model, error) {
		seen = sub
		return model, nil
	}))

	sub := scenarioLog()
	got, err := d.Discover(context.Background(), "order", sub)
	require.NoError(t, err)
	assert.Equal(t, model, got)
	assert.Same(t, sub, seen, "sub-log must reach the service unchanged")
}

func TestSubModelDiscoverer_WrapsFailure(t *testing.T) {
	cause := errors.New("boom")
	d := NewSubModelDiscoverer(DiscovererFunc(func(context.Context, *Log) (Model, error) {
		return nil, cause
	}))

	_, err := d.Discover(context.Background(), "item", &Log{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDiscoveryFailed)
	assert.ErrorIs(t, err, cause)

	var de *DiscoveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "item", de.ObjectType)
	assert.Equal(t, StageDiscover, de.Stage)
	assert.Contains(t, err.Error(), `"item"`)
}

func TestNewSubModelDiscoverer_NilPanics(t *testing.T) {
	assert.PanicsWithValue(t, "discoverer is required", func() {
		NewSubModelDiscoverer(nil)
	})
}

func TestVisualize(t *testing.T) {
	v := &stubVisualizer{}
	require.NoError(t, Visualize(context.Background(), v, "order", nil))
	assert.Equal(t, []string{"order"}, v.calls)

	v.err = errors.New("render failed")
	err := Visualize(context.Background(), v, "item", nil)
	var de *DiscoveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, StageVisualize, de.Stage)
	assert.Equal(t, "item", de.ObjectType)
}

func TestLogObserver(t *testing.T) {
	zcore, logs := observer.New(zap.DebugLevel)
	obs := NewLogObserver(zap.New(zcore).Sugar())

	obs.RelationExtracted(5, 1)
	obs.PartitionBuilt("order", 1, 2, 3)
	obs.ModelDiscovered("order", time.Millisecond)
	report := NewReport()
	report.Results = []TypeResult{{ObjectType: "order", RelationCount: 3}}
	obs.RunCompleted(report)

	assert.Equal(t, 1, logs.FilterMessage("Relations reference objects missing from the object table").Len())

	built := logs.FilterMessage("Sub-log built").All()
	require.Len(t, built, 1)
	assert.Equal(t, "order", built[0].ContextMap()["object_type"])
	assert.EqualValues(t, 3, built[0].ContextMap()["relation_count"])

	assert.Equal(t, 1, logs.FilterMessage("Summary").Len())
}

func TestMultiObserver(t *testing.T) {
	zcore1, logs1 := observer.New(zap.InfoLevel)
	zcore2, logs2 := observer.New(zap.InfoLevel)
	multi := MultiObserver{
		NewLogObserver(zap.New(zcore1).Sugar()),
		NopObserver{},
		NewLogObserver(zap.New(zcore2).Sugar()),
	}

	multi.TypeFailed("order", errors.New("x"))
	multi.RunAborted(errors.New("x"))

	assert.Equal(t, 2, logs1.Len())
	assert.Equal(t, 2, logs2.Len())
}

func TestMetricsObserver_BoundsObjectTypeSeries(t *testing.T) {
	var o MetricsObserver
	for i := 0; i < 2*metrics.MaxObjectTypeLabels; i++ {
		o.PartitionBuilt(fmt.Sprintf("type-%d", i), 1, 1, i)
	}
	assert.LessOrEqual(t, testutil.CollectAndCount(metrics.PartitionRelations), metrics.MaxObjectTypeLabels+1)
}
