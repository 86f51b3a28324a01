package store

import (
	"context"
	"errors"
	"time"

	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

var ErrNotFound = errors.New("record not found")

// Archive persists terminal analysis records so they outlive the in-memory
// result store's retention cleanup. All database operations go through here.
type Archive interface {
	Ping(ctx context.Context) error
	SaveRecord(ctx context.Context, rec *models.AnalysisRecord) error
	GetRecord(ctx context.Context, id string) (*models.AnalysisRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*models.AnalysisRecord, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
