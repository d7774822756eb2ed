package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hydra/core"
	"hydra/metrics"
)

// ReportStorage persists discovery reports
type ReportStorage interface {
	SaveReport(ctx context.Context, report *core.Report) error
	GetReport(ctx context.Context, id string) (*core.Report, error)
	ListReports(ctx context.Context, limit int) ([]ReportSummary, error)
}

// ReportSummary is one row of the report listing
type ReportSummary struct {
	ID             string    `json:"id" yaml:"id"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	LogFingerprint string    `json:"log_fingerprint" yaml:"log_fingerprint"`
	TotalCount     int       `json:"total_count" yaml:"total_count"`
	ObjectTypes    int       `json:"object_types" yaml:"object_types"`
	Failures       int       `json:"failures" yaml:"failures"`
	DurationMs     int64     `json:"duration_ms" yaml:"duration_ms"`
}

// SaveReport stores a report and its per-type results in one transaction
func (s *SQLite) SaveReport(ctx context.Context, report *core.Report) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("%w: missing run ID", ErrInvalidReport)
	}

	var failures []byte
	if len(report.Failures) > 0 {
		var err error
		if failures, err = json.Marshal(report.Failures); err != nil {
			return fmt.Errorf("failed to marshal failures: %w", err)
		}
	}

	models := make([][]byte, len(report.Results))
	for i, res := range report.Results {
		data, err := json.Marshal(res.Model)
		if err != nil {
			return fmt.Errorf("%w: model of %q is not serializable: %v", ErrInvalidReport, res.ObjectType, err)
		}
		models[i] = data
	}

	err := s.WithTransaction(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reports (id, created_at, log_fingerprint, total_count, unresolved_refs, duration_ms, failures)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			report.RunID,
			report.CreatedAt.UTC().Format(timeLayout),
			report.LogFingerprint,
			report.TotalCount,
			report.UnresolvedRefs,
			report.Duration.Milliseconds(),
			nullableString(failures),
		)
		if err != nil {
			return fmt.Errorf("failed to insert report: %w", err)
		}

		for i, res := range report.Results {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO report_results (report_id, position, object_type, relation_count, event_count, object_count, model_json)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				report.RunID, i, res.ObjectType, res.RelationCount, res.EventCount, res.ObjectCount, string(models[i]),
			)
			if err != nil {
				return fmt.Errorf("failed to insert result for %q: %w", res.ObjectType, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.ReportsStored.Inc()
	s.Logger.Debugw("Report stored", "run_id", report.RunID, "object_types", len(report.Results))
	return nil
}

// GetReport loads a report by run ID. Models come back as generic JSON values.
func (s *SQLite) GetReport(ctx context.Context, id string) (*core.Report, error) {
	var (
		createdAt  string
		durationMs int64
		failures   sql.NullString
	)
	report := &core.Report{RunID: id, Results: []core.TypeResult{}}

	err := s.ReadDB.QueryRowContext(ctx, `
		SELECT created_at, log_fingerprint, total_count, unresolved_refs, duration_ms, failures
		FROM reports WHERE id = ?`, id,
	).Scan(&createdAt, &report.LogFingerprint, &report.TotalCount, &report.UnresolvedRefs, &durationMs, &failures)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	if report.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	report.Duration = time.Duration(durationMs) * time.Millisecond
	if failures.Valid && failures.String != "" {
		if err := json.Unmarshal([]byte(failures.String), &report.Failures); err != nil {
			return nil, fmt.Errorf("failed to unmarshal failures: %w", err)
		}
	}

	rows, err := s.ReadDB.QueryContext(ctx, `
		SELECT object_type, relation_count, event_count, object_count, model_json
		FROM report_results WHERE report_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query report results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			res       core.TypeResult
			modelJSON sql.NullString
		)
		if err := rows.Scan(&res.ObjectType, &res.RelationCount, &res.EventCount, &res.ObjectCount, &modelJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report result: %w", err)
		}
		if modelJSON.Valid && modelJSON.String != "" {
			var model interface{}
			if err := json.Unmarshal([]byte(modelJSON.String), &model); err != nil {
				return nil, fmt.Errorf("failed to unmarshal model of %q: %w", res.ObjectType, err)
			}
			res.Model = model
		}
		report.Results = append(report.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report results: %w", err)
	}

	return report, nil
}

// ListReports returns the most recent reports first
func (s *SQLite) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.ReadDB.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.log_fingerprint, r.total_count, r.duration_ms, r.failures,
			(SELECT COUNT(*) FROM report_results rr WHERE rr.report_id = r.id)
		FROM reports r
		ORDER BY r.created_at DESC, r.id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	summaries := []ReportSummary{}
	for rows.Next() {
		var (
			sum       ReportSummary
			createdAt string
			failures  sql.NullString
		)
		if err := rows.Scan(&sum.ID, &createdAt, &sum.LogFingerprint, &sum.TotalCount, &sum.DurationMs, &failures, &sum.ObjectTypes); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if failures.Valid && failures.String != "" {
			var fs []core.TypeFailure
			if err := json.Unmarshal([]byte(failures.String), &fs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal failures of report %s: %w", sum.ID, err)
			}
			sum.Failures = len(fs)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func nullableString(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}
