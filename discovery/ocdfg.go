// Package discovery provides the default discovery and visualization
// services used by hydra: an object-centric directly-follows graph (OC-DFG)
// discoverer and a Graphviz DOT renderer.
package discovery

import (
	"context"
	"sort"
	"time"

	"hydra/core"

	"go.uber.org/zap"
)

// ActivityStats counts how often an activity occurs for one object type.
type ActivityStats struct {
	Events  int `json:"events" yaml:"events"`
	Objects int `json:"objects" yaml:"objects"`
}

// Edge is a directly-follows relation between two activities for one object
// type. EventCouples counts distinct (source event, target event) pairs,
// Objects counts distinct objects whose lifecycle contains the step.
type Edge struct {
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	EventCouples int    `json:"event_couples" yaml:"event_couples"`
	Objects      int    `json:"objects" yaml:"objects"`
}

// Perspective is the part of the graph contributed by one object type.
type Perspective struct {
	Objects         int                      `json:"objects" yaml:"objects"`
	Activities      map[string]ActivityStats `json:"activities" yaml:"activities"`
	Edges           []Edge                   `json:"edges" yaml:"edges"`
	StartActivities map[string]int           `json:"start_activities" yaml:"start_activities"`
	EndActivities   map[string]int           `json:"end_activities" yaml:"end_activities"`
}

// OCDFG is an object-centric directly-follows graph.
type OCDFG struct {
	Activities   map[string]int          `json:"activities" yaml:"activities"`
	ObjectTypes  []string                `json:"object_types" yaml:"object_types"`
	Perspectives map[string]*Perspective `json:"perspectives" yaml:"perspectives"`
}

// NodeCount returns the number of distinct activities.
func (g *OCDFG) NodeCount() int {
	return len(g.Activities)
}

// EdgeCount returns the number of edges over all perspectives.
func (g *OCDFG) EdgeCount() int {
	n := 0
	for _, p := range g.Perspectives {
		n += len(p.Edges)
	}
	return n
}

// OCDFGDiscoverer discovers an OCDFG from a log.
type OCDFGDiscoverer struct {
	minEdgeFrequency int
	logger           *zap.SugaredLogger
}

// NewOCDFGDiscoverer creates a discoverer. Edges with fewer than
// minEdgeFrequency event couples are left out; values below 1 keep every edge.
func NewOCDFGDiscoverer(minEdgeFrequency int, logger *zap.SugaredLogger) *OCDFGDiscoverer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if minEdgeFrequency < 1 {
		minEdgeFrequency = 1
	}
	return &OCDFGDiscoverer{minEdgeFrequency: minEdgeFrequency, logger: logger}
}

type step struct{ source, target string }

// accumulator collects the distinct sets behind one perspective
type accumulator struct {
	objects         int
	activityEvents  map[string]map[int]struct{}
	activityObjects map[string]map[string]struct{}
	couples         map[step]map[[2]int]struct{}
	stepObjects     map[step]map[string]struct{}
	starts          map[string]int
	ends            map[string]int
}

func newAccumulator() *accumulator {
	return &accumulator{
		activityEvents:  make(map[string]map[int]struct{}),
		activityObjects: make(map[string]map[string]struct{}),
		couples:         make(map[step]map[[2]int]struct{}),
		stepObjects:     make(map[step]map[string]struct{}),
		starts:          make(map[string]int),
		ends:            make(map[string]int),
	}
}

// Discover builds the graph. Each object's lifecycle is the sequence of its
// events ordered by timestamp, ties broken by event table order. An empty log
// gives an empty graph.
func (d *OCDFGDiscoverer) Discover(ctx context.Context, log *core.Log) (core.Model, error) {
	start := time.Now()
	g := &OCDFG{
		Activities:   make(map[string]int),
		ObjectTypes:  []string{},
		Perspectives: make(map[string]*Perspective),
	}
	if log == nil {
		return g, nil
	}

	position := make(map[string]int, len(log.Events))
	for i, ev := range log.Events {
		position[ev.ID] = i
		g.Activities[ev.Activity]++
	}

	// object ID -> event positions; relations to unknown events are skipped
	// and repeated (event, object) rows count once
	lifecycles := make(map[string][]int)
	linked := make(map[[2]string]struct{})
	for _, r := range log.Relations {
		pos, ok := position[r.EventID]
		if !ok {
			continue
		}
		key := [2]string{r.EventID, r.ObjectID}
		if _, dup := linked[key]; dup {
			continue
		}
		linked[key] = struct{}{}
		lifecycles[r.ObjectID] = append(lifecycles[r.ObjectID], pos)
	}

	accs := make(map[string]*accumulator)
	for _, obj := range log.Objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events, ok := lifecycles[obj.ID]
		if !ok {
			continue
		}
		delete(lifecycles, obj.ID) // duplicate object rows count once

		acc, ok := accs[obj.Type]
		if !ok {
			acc = newAccumulator()
			accs[obj.Type] = acc
		}
		acc.add(log.Events, obj.ID, sortLifecycle(log.Events, events))
	}

	for objectType, acc := range accs {
		g.ObjectTypes = append(g.ObjectTypes, objectType)
		g.Perspectives[objectType] = acc.perspective(d.minEdgeFrequency)
	}
	sort.Strings(g.ObjectTypes)

	d.logger.Debugw("OC-DFG discovered",
		"events", len(log.Events),
		"activities", g.NodeCount(),
		"edges", g.EdgeCount(),
		"elapsed", time.Since(start))
	return g, nil
}

func sortLifecycle(events []core.Event, positions []int) []int {
	sort.SliceStable(positions, func(i, j int) bool {
		a, b := events[positions[i]], events[positions[j]]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return positions[i] < positions[j]
	})
	return positions
}

func (a *accumulator) add(events []core.Event, objectID string, lifecycle []int) {
	a.objects++
	a.starts[events[lifecycle[0]].Activity]++
	a.ends[events[lifecycle[len(lifecycle)-1]].Activity]++

	for i, pos := range lifecycle {
		act := events[pos].Activity
		addTo(a.activityEvents, act, pos)
		addTo(a.activityObjects, act, objectID)
		if i == 0 {
			continue
		}
		prev := lifecycle[i-1]
		s := step{source: events[prev].Activity, target: act}
		addTo(a.couples, s, [2]int{prev, pos})
		addTo(a.stepObjects, s, objectID)
	}
}

func addTo[K comparable, V comparable](sets map[K]map[V]struct{}, key K, value V) {
	set, ok := sets[key]
	if !ok {
		set = make(map[V]struct{})
		sets[key] = set
	}
	set[value] = struct{}{}
}

func (a *accumulator) perspective(minEdgeFrequency int) *Perspective {
	p := &Perspective{
		Objects:         a.objects,
		Activities:      make(map[string]ActivityStats, len(a.activityEvents)),
		Edges:           []Edge{},
		StartActivities: a.starts,
		EndActivities:   a.ends,
	}
	for act, evs := range a.activityEvents {
		p.Activities[act] = ActivityStats{Events: len(evs), Objects: len(a.activityObjects[act])}
	}
	for s, couples := range a.couples {
		if len(couples) < minEdgeFrequency {
			continue
		}
		p.Edges = append(p.Edges, Edge{
			Source:       s.source,
			Target:       s.target,
			EventCouples: len(couples),
			Objects:      len(a.stepObjects[s]),
		})
	}
	sort.Slice(p.Edges, func(i, j int) bool {
		if p.Edges[i].Source != p.Edges[j].Source {
			return p.Edges[i].Source < p.Edges[j].Source
		}
		return p.Edges[i].Target < p.Edges[j].Target
	})
	return p
}
