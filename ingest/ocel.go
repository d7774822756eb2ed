// Package ingest reads and writes object-centric event logs in the OCEL 2.0
// JSON layout and its msgpack encoding.
package ingest

import (
	"sort"
	"time"

	"hydra/core"
)

// document mirrors the OCEL 2.0 JSON layout. The msgpack encoding uses the
// same field names.
type document struct {
	ObjectTypes []typeDecl  `json:"objectTypes" msgpack:"objectTypes"`
	EventTypes  []typeDecl  `json:"eventTypes" msgpack:"eventTypes"`
	Objects     []objectDoc `json:"objects" msgpack:"objects"`
	Events      []eventDoc  `json:"events" msgpack:"events"`
}

type typeDecl struct {
	Name       string          `json:"name" msgpack:"name"`
	Attributes []attributeDecl `json:"attributes" msgpack:"attributes"`
}

type attributeDecl struct {
	Name string `json:"name" msgpack:"name"`
	Type string `json:"type" msgpack:"type"`
}

type attributeValue struct {
	Name  string      `json:"name" msgpack:"name"`
	Value interface{} `json:"value" msgpack:"value"`
	Time  *time.Time  `json:"time,omitempty" msgpack:"time,omitempty"`
}

type relationship struct {
	ObjectID  string `json:"objectId" msgpack:"objectId"`
	Qualifier string `json:"qualifier" msgpack:"qualifier"`
}

type objectDoc struct {
	ID            string           `json:"id" msgpack:"id"`
	Type          string           `json:"type" msgpack:"type"`
	Attributes    []attributeValue `json:"attributes,omitempty" msgpack:"attributes,omitempty"`
	Relationships []relationship   `json:"relationships,omitempty" msgpack:"relationships,omitempty"`
}

type eventDoc struct {
	ID            string           `json:"id" msgpack:"id"`
	Type          string           `json:"type" msgpack:"type"`
	Time          time.Time        `json:"time" msgpack:"time"`
	Attributes    []attributeValue `json:"attributes,omitempty" msgpack:"attributes,omitempty"`
	Relationships []relationship   `json:"relationships,omitempty" msgpack:"relationships,omitempty"`
}

// toLog flattens a document into the three tables. Event relationships become
// relation rows in event order, then relationship order. Object-to-object
// relationships have no table and are dropped.
func (d *document) toLog() *core.Log {
	log := &core.Log{
		Events:    make([]core.Event, 0, len(d.Events)),
		Objects:   make([]core.Object, 0, len(d.Objects)),
		Relations: []core.Relation{},
	}

	for _, o := range d.Objects {
		log.Objects = append(log.Objects, core.Object{
			ID:         o.ID,
			Type:       o.Type,
			Attributes: attributeMap(o.Attributes),
		})
	}

	for _, e := range d.Events {
		log.Events = append(log.Events, core.Event{
			ID:         e.ID,
			Activity:   e.Type,
			Timestamp:  e.Time.UTC(),
			Attributes: attributeMap(e.Attributes),
		})
		for _, r := range e.Relationships {
			log.Relations = append(log.Relations, core.Relation{
				EventID:   e.ID,
				ObjectID:  r.ObjectID,
				Qualifier: r.Qualifier,
			})
		}
	}

	return log
}

// attributeMap keeps the last value of each attribute. OCEL object attributes
// are time-versioned; rows are expected in time order.
func attributeMap(values []attributeValue) map[string]interface{} {
	if len(values) == 0 {
		return nil
	}
	m := make(map[string]interface{}, len(values))
	for _, v := range values {
		m[v.Name] = v.Value
	}
	return m
}

// fromLog builds a document from the tables. Relations are attached to their
// event; rows whose event is not in the event table cannot be represented.
func fromLog(log *core.Log) *document {
	d := &document{
		ObjectTypes: []typeDecl{},
		EventTypes:  []typeDecl{},
		Objects:     make([]objectDoc, 0, len(log.Objects)),
		Events:      make([]eventDoc, 0, len(log.Events)),
	}

	for _, t := range log.ObjectTypes() {
		d.ObjectTypes = append(d.ObjectTypes, typeDecl{Name: t, Attributes: []attributeDecl{}})
	}

	seenActivity := make(map[string]struct{})
	for _, e := range log.Events {
		if _, ok := seenActivity[e.Activity]; ok {
			continue
		}
		seenActivity[e.Activity] = struct{}{}
		d.EventTypes = append(d.EventTypes, typeDecl{Name: e.Activity, Attributes: []attributeDecl{}})
	}

	for _, o := range log.Objects {
		d.Objects = append(d.Objects, objectDoc{
			ID:         o.ID,
			Type:       o.Type,
			Attributes: attributeList(o.Attributes),
		})
	}

	byEvent := make(map[string][]relationship)
	for _, r := range log.Relations {
		byEvent[r.EventID] = append(byEvent[r.EventID], relationship{ObjectID: r.ObjectID, Qualifier: r.Qualifier})
	}
	for _, e := range log.Events {
		d.Events = append(d.Events, eventDoc{
			ID:            e.ID,
			Type:          e.Activity,
			Time:          e.Timestamp,
			Attributes:    attributeList(e.Attributes),
			Relationships: byEvent[e.ID],
		})
		delete(byEvent, e.ID) // repeated event IDs carry their relations once
	}

	return d
}

func attributeList(m map[string]interface{}) []attributeValue {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]attributeValue, 0, len(names))
	for _, name := range names {
		values = append(values, attributeValue{Name: name, Value: m[name]})
	}
	return values
}
