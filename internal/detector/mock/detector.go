package mock

import (
	"context"
	"time"

	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

// Detector satisfies models.Detector for testing and development.
type Detector struct {
	Name_       string
	AnalyzeFunc func(ctx context.Context, fileRef string, kind models.FileKind) (models.Detection, error)
}

func (d *Detector) Name() string { return d.Name_ }

func (d *Detector) Analyze(ctx context.Context, fileRef string, kind models.FileKind) (models.Detection, error) {
	if d.AnalyzeFunc != nil {
		return d.AnalyzeFunc(ctx, fileRef, kind)
	}
	return models.Detection{}, nil
}

// NewDetector returns a Detector with a deterministic authentic verdict.
func NewDetector() *Detector {
	return &Detector{
		Name_: "mock",
		AnalyzeFunc: func(_ context.Context, fileRef string, kind models.FileKind) (models.Detection, error) {
			return models.Detection{
				Verdict:      "authentic",
				Deepfake:     false,
				Confidence:   0.12,
				OverallScore: 12,
				Diagnostics: map[string]string{
					"model":     "mock-v1",
					"file_kind": string(kind),
					"file_ref":  fileRef,
				},
			}, nil
		},
	}
}

// NewFailingDetector returns a Detector that always returns the given error.
func NewFailingDetector(err error) *Detector {
	return &Detector{
		Name_: "mock-failing",
		AnalyzeFunc: func(_ context.Context, _ string, _ models.FileKind) (models.Detection, error) {
			return models.Detection{}, err
		},
	}
}

// NewSlowDetector returns a Detector that sleeps for delay before delegating
// to the default analysis.
func NewSlowDetector(delay time.Duration) *Detector {
	inner := NewDetector()
	return &Detector{
		Name_: "mock-slow",
		AnalyzeFunc: func(ctx context.Context, fileRef string, kind models.FileKind) (models.Detection, error) {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return models.Detection{}, ctx.Err()
			}
			return inner.Analyze(ctx, fileRef, kind)
		},
	}
}

// NewBlockingDetector returns a Detector that holds each analysis until the
// caller closes release. It lets tests pin workers deliberately.
func NewBlockingDetector(release <-chan struct{}) *Detector {
	inner := NewDetector()
	return &Detector{
		Name_: "mock-blocking",
		AnalyzeFunc: func(ctx context.Context, fileRef string, kind models.FileKind) (models.Detection, error) {
			select {
			case <-release:
			case <-ctx.Done():
				return models.Detection{}, ctx.Err()
			}
			return inner.Analyze(ctx, fileRef, kind)
		},
	}
}

// Compile-time check that Detector implements models.Detector.
var _ models.Detector = (*Detector)(nil)
