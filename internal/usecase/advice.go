package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	"github.com/narayanprabad/InvestWise/internal/services/allocation"
	applogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

// Conditioner is the part of MarketConditionUseCase the advice flow needs.
type Conditioner interface {
	Evaluate(ctx context.Context, p ConditionParams) (*models.MarketReport, error)
}

// AdviceUseCase turns a risk profile and a market condition into an allocation.
type AdviceUseCase struct {
	optimizer *allocation.Optimizer
	condition Conditioner
	profiles  domrepo.ProfileRepository
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
}

func NewAdviceUseCase(optimizer *allocation.Optimizer, condition Conditioner, profiles domrepo.ProfileRepository, metrics domrepo.Metrics, l *applogger.Logger) *AdviceUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &AdviceUseCase{
		optimizer: optimizer,
		condition: condition,
		profiles:  profiles,
		metrics:   metrics,
		l:         l,
		now:       time.Now,
	}
}

type AllocationParams struct {
	Risk string
	// Condition is classified live for Symbol when empty.
	Condition string
	Symbol    string
	Amount    decimal.Decimal
}

// Allocate returns the allocation for p.Risk under p.Condition, splitting Amount when positive.
func (uc *AdviceUseCase) Allocate(ctx context.Context, p AllocationParams) (*models.AllocationResult, error) {
	risk, err := models.ParseRiskProfile(p.Risk)
	if err != nil {
		return nil, err
	}
	if p.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidAmount, p.Amount)
	}

	res := &models.AllocationResult{Risk: risk}
	if p.Condition != "" {
		if res.Condition, err = models.ParseMarketCondition(p.Condition); err != nil {
			return nil, err
		}
	} else {
		report, err := uc.condition.Evaluate(ctx, ConditionParams{Symbol: p.Symbol})
		if err != nil {
			return nil, err
		}
		res.Condition = report.Classification.Condition
		res.Report = report
	}

	if res.Allocation, err = uc.optimizer.Allocate(risk, res.Condition); err != nil {
		return nil, err
	}
	if p.Amount.IsPositive() {
		amounts, err := res.Allocation.Split(p.Amount)
		if err != nil {
			return nil, err
		}
		res.Amounts = &amounts
	}

	uc.metrics.RecordAllocation(risk, res.Condition)
	return res, nil
}

// Advise builds advice for a stored profile against the live benchmark condition.
func (uc *AdviceUseCase) Advise(ctx context.Context, profileID string, amount decimal.Decimal) (*models.Advice, error) {
	p, err := uc.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	res, err := uc.Allocate(ctx, AllocationParams{Risk: string(p.Risk), Amount: amount})
	if err != nil {
		return nil, err
	}

	now := uc.now()
	adv := &models.Advice{
		ProfileID:  p.ID,
		Risk:       res.Risk,
		Condition:  res.Condition,
		Allocation: res.Allocation,
		Amounts:    res.Amounts,
		Report:     res.Report,
	}
	for _, g := range p.Goals {
		adv.Goals = append(adv.Goals, g.Progress(now))
	}
	uc.l.Debug("advice built",
		applogger.String("profile_id", p.ID),
		applogger.String("risk", string(res.Risk)),
		applogger.String("condition", string(res.Condition)))
	return adv, nil
}
