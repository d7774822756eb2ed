package core

import (
	"time"

	"hydra/metrics"

	"go.uber.org/zap"
)

// Observer receives progress of a discovery run. It is purely observational:
// nothing an observer does changes the result of the run.
type Observer interface {
	RelationExtracted(total, unresolved int)
	PartitionBuilt(objectType string, events, objects, relations int)
	ModelDiscovered(objectType string, elapsed time.Duration)
	TypeFailed(objectType string, err error)
	RunCompleted(report *Report)
	RunAborted(err error)
}

// NopObserver discards every notification.
type NopObserver struct{}

func (NopObserver) RelationExtracted(int, int)            {}
func (NopObserver) PartitionBuilt(string, int, int, int)  {}
func (NopObserver) ModelDiscovered(string, time.Duration) {}
func (NopObserver) TypeFailed(string, error)              {}
func (NopObserver) RunCompleted(*Report)                  {}
func (NopObserver) RunAborted(error)                      {}

// LogObserver writes run progress as structured log lines.
type LogObserver struct {
	logger *zap.SugaredLogger
}

// NewLogObserver creates an observer logging through the given logger.
func NewLogObserver(logger *zap.SugaredLogger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) RelationExtracted(total, unresolved int) {
	o.logger.Infow("Universal event-object relation extracted",
		"relation_count", total,
		"unresolved", unresolved)
	if unresolved > 0 {
		o.logger.Warnw("Relations reference objects missing from the object table",
			"unresolved", unresolved)
	}
}

func (o *LogObserver) PartitionBuilt(objectType string, events, objects, relations int) {
	o.logger.Infow("Sub-log built",
		"object_type", objectType,
		"events", events,
		"objects", objects,
		"relation_count", relations)
}

func (o *LogObserver) ModelDiscovered(objectType string, elapsed time.Duration) {
	o.logger.Debugw("Model discovered",
		"object_type", objectType,
		"elapsed", elapsed)
}

func (o *LogObserver) TypeFailed(objectType string, err error) {
	o.logger.Errorw("Object type processing failed",
		"object_type", objectType,
		"error", err)
}

func (o *LogObserver) RunCompleted(report *Report) {
	for _, res := range report.Results {
		o.logger.Infow("Summary",
			"object_type", res.ObjectType,
			"relation_count", res.RelationCount)
	}
	o.logger.Infow("Discovery run completed",
		"run_id", report.RunID,
		"total_count", report.TotalCount,
		"object_types", len(report.Results),
		"failures", len(report.Failures),
		"duration", report.Duration)
}

func (o *LogObserver) RunAborted(err error) {
	o.logger.Errorw("Discovery run aborted", "error", err)
}

// MetricsObserver records run progress as Prometheus metrics. Object type
// labels are bounded by metrics.ObjectTypeLabel.
type MetricsObserver struct{}

func (MetricsObserver) RelationExtracted(total, unresolved int) {
	metrics.UniversalRelationSize.Set(float64(total))
	metrics.UnresolvedRelations.Add(float64(unresolved))
}

func (MetricsObserver) PartitionBuilt(objectType string, _, _, relations int) {
	metrics.PartitionRelations.WithLabelValues(metrics.ObjectTypeLabel(objectType)).Set(float64(relations))
}

func (MetricsObserver) ModelDiscovered(objectType string, elapsed time.Duration) {
	metrics.DiscoveryDuration.WithLabelValues(metrics.ObjectTypeLabel(objectType)).Observe(elapsed.Seconds())
}

func (MetricsObserver) TypeFailed(objectType string, _ error) {
	metrics.TypeFailures.WithLabelValues(metrics.ObjectTypeLabel(objectType)).Inc()
}

func (MetricsObserver) RunCompleted(report *Report) {
	status := "success"
	if len(report.Failures) > 0 {
		status = "partial"
	}
	metrics.DiscoveryRuns.WithLabelValues(status).Inc()
}

func (MetricsObserver) RunAborted(error) {
	metrics.DiscoveryRuns.WithLabelValues("failed").Inc()
}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) RelationExtracted(total, unresolved int) {
	for _, o := range m {
		o.RelationExtracted(total, unresolved)
	}
}

func (m MultiObserver) PartitionBuilt(objectType string, events, objects, relations int) {
	for _, o := range m {
		o.PartitionBuilt(objectType, events, objects, relations)
	}
}

func (m MultiObserver) ModelDiscovered(objectType string, elapsed time.Duration) {
	for _, o := range m {
		o.ModelDiscovered(objectType, elapsed)
	}
}

func (m MultiObserver) TypeFailed(objectType string, err error) {
	for _, o := range m {
		o.TypeFailed(objectType, err)
	}
}

func (m MultiObserver) RunCompleted(report *Report) {
	for _, o := range m {
		o.RunCompleted(report)
	}
}

func (m MultiObserver) RunAborted(err error) {
	for _, o := range m {
		o.RunAborted(err)
	}
}
