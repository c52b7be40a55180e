package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	"github.com/narayanprabad/InvestWise/pkg/util"
)

// ErrHistoryUnavailable is returned when no snapshot store is configured.
var ErrHistoryUnavailable = errors.New("condition history unavailable")

const defaultHistorySpan = 7 * 24 * time.Hour

// HistoryUseCase reads recorded condition snapshots.
type HistoryUseCase struct {
	store domrepo.SnapshotStore
	now   func() time.Time
}

// NewHistoryUseCase accepts a nil store; queries then fail with ErrHistoryUnavailable.
func NewHistoryUseCase(store domrepo.SnapshotStore) *HistoryUseCase {
	return &HistoryUseCase{store: store, now: time.Now}
}

// Query returns snapshots for symbol in [from, to], newest first. Zero bounds default
// to the last week.
func (uc *HistoryUseCase) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.ConditionSnapshot, error) {
	if uc.store == nil {
		return nil, ErrHistoryUnavailable
	}
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 500
	}
	from, to = util.NormalizeRange(from, to, uc.now().UTC(), defaultHistorySpan)
	return uc.store.Query(ctx, sym, from, to, limit)
}
