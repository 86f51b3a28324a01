// Package remote implements models.Detector against an HTTP inference
// server (e.g. a model-serving sidecar exposing POST /v1/analyze).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bhanukaranwal/Satyashield/internal/config"
	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

// Sentinel errors for inference-server failures.
var (
	ErrDetectorUnavailable = errors.New("detector unavailable")
	ErrInferenceTimeout    = errors.New("detector inference timeout")
	ErrInvalidResponse     = errors.New("detector returned invalid response")
)

// Detector calls a remote inference server over HTTP.
type Detector struct {
	baseURL string
	client  *http.Client
}

// NewDetector creates a remote detector from config.
func NewDetector(cfg config.RemoteDetectorConfig) *Detector {
	return &Detector{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (d *Detector) Name() string { return "remote" }

type analyzeRequest struct {
	FileRef  string `json:"file_ref"`
	FileKind string `json:"file_kind"`
}

type analyzeResponse struct {
	Verdict      string            `json:"verdict"`
	Deepfake     bool              `json:"deepfake"`
	Confidence   float64           `json:"confidence"`
	OverallScore float64           `json:"overall_score"`
	Anomalies    []string          `json:"anomalies"`
	Diagnostics  map[string]string `json:"diagnostics"`
}

func (d *Detector) Analyze(ctx context.Context, fileRef string, kind models.FileKind) (models.Detection, error) {
	body, err := json.Marshal(analyzeRequest{FileRef: fileRef, FileKind: string(kind)})
	if err != nil {
		return models.Detection{}, fmt.Errorf("encoding analyze request: %w", err)
	}

	u := d.baseURL + "/v1/analyze"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return models.Detection{}, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return models.Detection{}, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Detection{}, fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Detection{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if out.Verdict == "" {
		return models.Detection{}, fmt.Errorf("%w: missing verdict", ErrInvalidResponse)
	}

	return models.Detection{
		Verdict:      out.Verdict,
		Deepfake:     out.Deepfake,
		Confidence:   out.Confidence,
		OverallScore: out.OverallScore,
		Anomalies:    out.Anomalies,
		Diagnostics:  out.Diagnostics,
	}, nil
}

// classifyError maps transport errors onto the sentinel taxonomy.
func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
}

var _ models.Detector = (*Detector)(nil)
