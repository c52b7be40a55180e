package repository

import (
	"context"
	"errors"
	"time"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrGoalNotFound    = errors.New("goal not found")
	// ErrProfileConflict means concurrent writers kept winning the race for a profile.
	ErrProfileConflict = errors.New("profile modified concurrently")
)

// ProfileRepository persists user profiles and their goals.
type ProfileRepository interface {
	Create(ctx context.Context, p *models.UserProfile) error
	Get(ctx context.Context, id string) (*models.UserProfile, error)
	// Modify applies fn to the stored profile and saves the result atomically.
	// An error from fn aborts the write and is returned unchanged.
	Modify(ctx context.Context, id string, fn func(p *models.UserProfile) error) (*models.UserProfile, error)
	Delete(ctx context.Context, id string) error
}

// SnapshotPublisher pushes condition snapshots to an async transport.
type SnapshotPublisher interface {
	Publish(ctx context.Context, s *models.ConditionSnapshot) error
	PublishBatch(ctx context.Context, snaps []*models.ConditionSnapshot) error
	Close() error
}

// SnapshotStore persists condition snapshots as history.
type SnapshotStore interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, s *models.ConditionSnapshot) error
	StoreBatch(ctx context.Context, snaps []*models.ConditionSnapshot) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.ConditionSnapshot, error)
	Close() error
}

type Metrics interface {
	RecordClassification(symbol string, condition models.MarketCondition, mode models.ClassificationMode)
	RecordAllocation(risk models.RiskProfile, condition models.MarketCondition)
	RecordSourceError(source string)
	RecordSnapshotSent(backend, symbol string)
	RecordError(kind string)
	RecordLastQuote(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
