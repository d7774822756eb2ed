// Package core defines the object-centric event log model and the
// object-type-wise partitioning core of hydra.
//
// # Overview
//
// An object-centric event log (OCEL) is held as three tables: events, objects
// and event-object relations. The core:
//   - builds the universal event-object relation (ExtractUniversalRelation)
//   - derives one consistent sub-log per object type (PartitionByObjectType)
//   - hands each sub-log to an injected Discoverer through SubModelDiscoverer
//
// The orchestration of a whole run lives in the service package; this package
// holds the pure table operations and the collaborator interfaces.
//
// # Partitioning policy
//
// A sub-log for object type T keeps every event linked to at least one object
// of type T, every relation row of those events (also rows pointing at objects
// of other types) and every object those rows reference. Relations whose
// object is missing from the object table are counted in the universal
// relation but never select an event.
//
// # Observation
//
// Progress is reported to an Observer. NopObserver keeps the core silent;
// LogObserver and MetricsObserver forward to zap and Prometheus.
package core
