package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"hydra/core"
	"hydra/ingest"
	"hydra/service"
	"hydra/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// defaultReportLimit is the page size of GET /api/v1/reports
const defaultReportLimit = 50

// cacheHeader tells clients whether a discovery answer came from the cache
const cacheHeader = "X-Hydra-Cache"

// listReportsQuery holds validated query parameters of the report listing
type listReportsQuery struct {
	Limit int `validate:"min=1,max=1000"`
}

// discover decodes the request body as an event log and runs discovery on it.
//
// Status codes: 400 malformed log or query, 413 body over api.max_body_size,
// 422 a discovery or visualization call failed and the run aborted.
func (a *API) discover(w http.ResponseWriter, r *http.Request) {
	continueOnError := a.config.Discovery.ContinueOnError
	if v := r.URL.Query().Get("continue_on_error"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "continue_on_error must be a boolean", err, a.logger)
			return
		}
		continueOnError = parsed
	}

	body := http.MaxBytesReader(w, r.Body, a.config.API.MaxBodySize)
	log, err := ingest.Decode(body, formatFromContentType(r.Header.Get("Content-Type")), ingest.Options{
		ValidateSchema: a.config.Input.ValidateSchema,
		MaxSize:        a.config.API.MaxBodySize,
	})
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, ingest.ErrTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", err, a.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid event log: "+err.Error(), err, a.logger)
		return
	}

	fingerprint := ingest.Fingerprint(log)
	key := core.GetReportCacheKey(fingerprint, a.config.Discovery.MinEdgeFrequency, continueOnError)
	if a.cache != nil {
		if report, ok := a.cache.Get(r.Context(), key); ok {
			w.Header().Set(cacheHeader, "hit")
			a.respondJSON(w, report, http.StatusOK)
			return
		}
	}

	report, err := a.service.Run(r.Context(), log,
		service.ContinueOnError(continueOnError),
		service.Fingerprint(fingerprint))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrDiscoveryFailed):
			writeError(w, http.StatusUnprocessableEntity, err.Error(), err, a.logger)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "discovery cancelled", err, a.logger)
		default:
			writeError(w, http.StatusInternalServerError, "discovery failed", err, a.logger)
		}
		return
	}

	if a.cache != nil {
		a.cache.Set(r.Context(), key, report)
	}
	if a.reports != nil {
		// a stored report is a convenience; the caller still gets the result
		if err := a.reports.SaveReport(r.Context(), report); err != nil {
			a.logger.Warnw("Failed to store report", "run_id", report.RunID, "error", err)
		}
	}

	w.Header().Set(cacheHeader, "miss")
	a.respondJSON(w, report, http.StatusOK)
}

// listReports returns summaries of stored reports, newest first
func (a *API) listReports(w http.ResponseWriter, r *http.Request) {
	if a.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report storage not enabled", nil, a.logger)
		return
	}

	query := listReportsQuery{Limit: defaultReportLimit}
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer", err, a.logger)
			return
		}
		query.Limit = parsed
	}
	if err := a.validate.Struct(query); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000", err, a.logger)
		return
	}

	summaries, err := a.reports.ListReports(r.Context(), query.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reports", err, a.logger)
		return
	}
	a.respondJSON(w, summaries, http.StatusOK)
}

// getReport returns one stored report by run ID
func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	if a.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report storage not enabled", nil, a.logger)
		return
	}

	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid report ID", err, a.logger)
		return
	}

	report, err := a.reports.GetReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "report not found", err, a.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get report", err, a.logger)
		return
	}
	a.respondJSON(w, report, http.StatusOK)
}

// healthChecker is implemented by storage backends that can report liveness
type healthChecker interface {
	HealthCheck() error
}

func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if hc, ok := a.reports.(healthChecker); ok {
		if err := hc.HealthCheck(); err != nil {
			a.logger.Warnw("Storage health check failed", "error", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	a.respondJSON(w, map[string]string{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	}, code)
}
