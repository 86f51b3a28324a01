package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bhanukaranwal/Satyashield/internal/api/response"
	"github.com/bhanukaranwal/Satyashield/internal/engine"
	"github.com/bhanukaranwal/Satyashield/internal/store"
	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

const (
	defaultWaitTimeout = 30 * time.Second
	maxWaitTimeout     = 5 * time.Minute
)

// AnalysisService defines the engine surface the handlers depend on.
type AnalysisService interface {
	Submit(ctx context.Context, sub engine.Submission) (string, error)
	BatchSubmit(ctx context.Context, subs []engine.Submission) ([]string, error)
	GetStatus(id string) (string, error)
	GetResult(id string) (*models.AnalysisRecord, error)
	WaitForCompletion(ctx context.Context, id string, timeout time.Duration) (*models.AnalysisRecord, error)
	QueueDepths() map[models.Priority]int
	Metrics() engine.Metrics
}

// RecordArchive is the optional fallback for records the engine already
// cleaned up. A nil archive disables the fallback.
type RecordArchive interface {
	GetRecord(ctx context.Context, id string) (*models.AnalysisRecord, error)
}

// RecordLister pages through archived records, newest first.
type RecordLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.AnalysisRecord, error)
}

// StatusMirror is the read side of the cached status mirror. It answers
// status polls for ids the engine no longer tracks (or not at all when nil).
type StatusMirror interface {
	GetAnalysisStatus(ctx context.Context, analysisID string) (string, bool, error)
}

type submitRequest struct {
	FileRef     string `json:"file_ref"`
	FileKind    string `json:"file_kind"`
	Priority    string `json:"priority"`
	SubmittedBy string `json:"submitted_by"`
}

// toSubmission validates the request shape. Tier and kind validity is the
// engine's call; only structural requirements are checked here.
func (req *submitRequest) toSubmission() (engine.Submission, string) {
	if req.FileRef == "" {
		return engine.Submission{}, "file_ref is required"
	}
	if req.SubmittedBy == "" {
		return engine.Submission{}, "submitted_by is required"
	}
	if req.Priority == "" {
		req.Priority = "normal"
	}
	priority, ok := models.ParsePriority(req.Priority)
	if !ok {
		return engine.Submission{}, "priority must be one of normal, high, critical"
	}
	return engine.Submission{
		FileRef:     req.FileRef,
		FileKind:    models.FileKind(req.FileKind),
		SubmittedBy: req.SubmittedBy,
		Priority:    priority,
	}, ""
}

// NewSubmitHandler returns an http.HandlerFunc for POST /api/v1/analyses.
// The call may block while the target tier's queue is full; the request
// context bounds that wait.
func NewSubmitHandler(svc AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		sub, msg := req.toSubmission()
		if msg != "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
			return
		}

		id, err := svc.Submit(r.Context(), sub)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		response.Accepted(w, map[string]string{
			"analysis_id": id,
			"status":      models.StatusQueued,
		})
	}
}

// NewBatchSubmitHandler returns an http.HandlerFunc for POST
// /api/v1/analyses/batch. The batch is not atomic: ids assigned before a
// failing element are returned alongside the error details.
func NewBatchSubmitHandler(svc AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Analyses []submitRequest `json:"analyses"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if len(req.Analyses) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "analyses must not be empty", nil)
			return
		}

		subs := make([]engine.Submission, 0, len(req.Analyses))
		for i, item := range req.Analyses {
			sub, msg := item.toSubmission()
			if msg != "" {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", msg,
					map[string]int{"index": i})
				return
			}
			subs = append(subs, sub)
		}

		ids, err := svc.BatchSubmit(r.Context(), subs)
		if err != nil {
			// Earlier elements may already be queued; report what succeeded.
			response.Error(w, statusForEngineError(err), codeForEngineError(err), err.Error(),
				map[string]any{"accepted_ids": ids})
			return
		}

		response.Accepted(w, map[string]any{"analysis_ids": ids})
	}
}

// NewStatusHandler returns an http.HandlerFunc for
// GET /api/v1/analyses/{analysisID}/status. When the engine no longer tracks
// the id, a configured mirror answers from its cached status.
func NewStatusHandler(svc AnalysisService, mirror StatusMirror) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "analysisID")
		status, err := svc.GetStatus(id)
		if errors.Is(err, engine.ErrNotFound) && mirror != nil {
			// Mirror read failures degrade to not-found rather than 500.
			if cached, found, mErr := mirror.GetAnalysisStatus(r.Context(), id); mErr == nil && found {
				status, err = cached, nil
			}
		}
		if err != nil {
			writeEngineError(w, err)
			return
		}
		response.JSON(w, map[string]string{
			"analysis_id": id,
			"status":      status,
		})
	}
}

// NewResultHandler returns an http.HandlerFunc for
// GET /api/v1/analyses/{analysisID}. When the engine no longer tracks the id
// and an archive is configured, the archived terminal record is served.
func NewResultHandler(svc AnalysisService, archive RecordArchive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "analysisID")
		rec, err := svc.GetResult(id)
		if errors.Is(err, engine.ErrNotFound) && archive != nil {
			rec, err = archive.GetRecord(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				err = engine.ErrNotFound
			}
		}
		if err != nil {
			writeEngineError(w, err)
			return
		}
		response.JSON(w, rec)
	}
}

// NewWaitHandler returns an http.HandlerFunc for
// GET /api/v1/analyses/{analysisID}/wait?timeout=30s.
func NewWaitHandler(svc AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "analysisID")

		timeout := defaultWaitTimeout
		if raw := r.URL.Query().Get("timeout"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"timeout must be a positive duration like 30s", nil)
				return
			}
			timeout = d
		}
		if timeout > maxWaitTimeout {
			timeout = maxWaitTimeout
		}

		rec, err := svc.WaitForCompletion(r.Context(), id, timeout)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		response.JSON(w, rec)
	}
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// NewRecentAnalysesHandler returns an http.HandlerFunc for
// GET /api/v1/analyses?limit=50, listing archived records newest first.
func NewRecentAnalysesHandler(lister RecordLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be a positive integer", nil)
				return
			}
			limit = n
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}

		recs, err := lister.ListRecent(r.Context(), limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list analyses", nil)
			return
		}
		response.JSON(w, map[string]any{"analyses": recs})
	}
}

// NewQueueDepthsHandler returns an http.HandlerFunc for GET /api/v1/queues.
func NewQueueDepthsHandler(svc AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		depths := make(map[string]int, 3)
		for tier, depth := range svc.QueueDepths() {
			depths[tier.String()] = depth
		}
		response.JSON(w, depths)
	}
}

// NewMetricsHandler returns an http.HandlerFunc for GET /api/v1/metrics.
func NewMetricsHandler(svc AnalysisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, svc.Metrics())
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	response.Error(w, statusForEngineError(err), codeForEngineError(err), err.Error(), nil)
}

func statusForEngineError(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownFileKind), errors.Is(err, engine.ErrUnknownPriority):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrWaitTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, engine.ErrShuttingDown):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// The submission was abandoned while blocked on a full queue, either
		// by the request deadline or by the client hanging up.
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func codeForEngineError(err error) string {
	switch {
	case errors.Is(err, engine.ErrUnknownFileKind), errors.Is(err, engine.ErrUnknownPriority):
		return "VALIDATION_ERROR"
	case errors.Is(err, engine.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, engine.ErrWaitTimeout):
		return "WAIT_TIMEOUT"
	case errors.Is(err, engine.ErrShuttingDown):
		return "SHUTTING_DOWN"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "QUEUE_BACKPRESSURE"
	default:
		return "INTERNAL_ERROR"
	}
}
