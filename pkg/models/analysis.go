// Package models contains shared data models used across the SatyaShield codebase.
package models

import "time"

// FileKind is the closed set of media types the engine accepts.
type FileKind string

const (
	FileKindVideo FileKind = "video"
	FileKindImage FileKind = "image"
	FileKindAudio FileKind = "audio"
)

// Valid reports whether k is one of the supported media types.
func (k FileKind) Valid() bool {
	switch k {
	case FileKindVideo, FileKindImage, FileKindAudio:
		return true
	}
	return false
}

// Priority is the closed set of scheduling tiers. Each tier has its own
// bounded queue and dedicated workers; there is no cross-tier preemption.
type Priority int

const (
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// Tiers lists all priorities from highest to lowest. Workers are started in
// this order.
var Tiers = []Priority{PriorityCritical, PriorityHigh, PriorityNormal}

// Valid reports whether p is one of the defined tiers.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return "unknown"
}

// ParsePriority maps a tier name to its Priority. The boolean is false for
// anything outside the closed set; callers must reject, never coerce.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "normal":
		return PriorityNormal, true
	case "high":
		return PriorityHigh, true
	case "critical":
		return PriorityCritical, true
	}
	return 0, false
}

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// AnalysisRequest describes one submitted analysis job. It is immutable once
// created: the queue owns it until a worker dequeues it, then the worker owns
// it for the duration of the job.
type AnalysisRequest struct {
	AnalysisID  string   `json:"analysis_id"`
	FileRef     string   `json:"file_ref"`
	FileKind    FileKind `json:"file_kind"`
	SubmittedBy string   `json:"submitted_by"`
	Priority    Priority `json:"priority"`
}

// Detection is the payload produced by a Detector for a completed analysis.
type Detection struct {
	Verdict      string            `json:"verdict"`
	Deepfake     bool              `json:"deepfake"`
	Confidence   float64           `json:"confidence"`
	OverallScore float64           `json:"overall_score"`
	Anomalies    []string          `json:"anomalies,omitempty"`
	Diagnostics  map[string]string `json:"diagnostics,omitempty"`
}

// AnalysisRecord tracks one analysis job through its lifecycle. Status moves
// monotonically queued → processing → completed|failed; completed and failed
// are terminal. Result is set only on completion, ErrorMessage only on
// failure. Records are mutated exclusively by the worker executing the job.
type AnalysisRecord struct {
	ID                string     `json:"id"`
	FileKind          FileKind   `json:"file_kind"`
	Priority          Priority   `json:"priority"`
	SubmittedBy       string     `json:"submitted_by"`
	Status            string     `json:"status"`
	Result            *Detection `json:"result,omitempty"`
	ErrorMessage      *string    `json:"error_message,omitempty"`
	ProcessingSeconds float64    `json:"processing_seconds"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the record reached a terminal state.
func (r *AnalysisRecord) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Clone returns a deep copy so readers never observe a partially written
// record while the owning worker updates the original.
func (r *AnalysisRecord) Clone() *AnalysisRecord {
	out := *r
	if r.Result != nil {
		res := *r.Result
		res.Anomalies = append([]string(nil), r.Result.Anomalies...)
		if r.Result.Diagnostics != nil {
			res.Diagnostics = make(map[string]string, len(r.Result.Diagnostics))
			for k, v := range r.Result.Diagnostics {
				res.Diagnostics[k] = v
			}
		}
		out.Result = &res
	}
	if r.ErrorMessage != nil {
		msg := *r.ErrorMessage
		out.ErrorMessage = &msg
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		out.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
