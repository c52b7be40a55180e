package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	"github.com/narayanprabad/InvestWise/pkg/util"
)

// ProfileUseCase manages user profiles and their goals.
type ProfileUseCase struct {
	repo  domrepo.ProfileRepository
	now   func() time.Time
	newID func() string
}

func NewProfileUseCase(repo domrepo.ProfileRepository) *ProfileUseCase {
	return &ProfileUseCase{repo: repo, now: time.Now, newID: uuid.NewString}
}

func (uc *ProfileUseCase) Create(ctx context.Context, name, risk string) (*models.UserProfile, error) {
	r, err := models.ParseRiskProfile(risk)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	p := &models.UserProfile{
		ID:        uc.newID(),
		Name:      strings.TrimSpace(name),
		Risk:      r,
		Goals:     []models.Goal{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *ProfileUseCase) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	return uc.repo.Get(ctx, id)
}

// Update changes name and risk. Empty values keep the stored ones.
func (uc *ProfileUseCase) Update(ctx context.Context, id, name, risk string) (*models.UserProfile, error) {
	var r models.RiskProfile
	if risk != "" {
		var err error
		if r, err = models.ParseRiskProfile(risk); err != nil {
			return nil, err
		}
	}
	name = strings.TrimSpace(name)
	now := uc.now().UTC()
	return uc.repo.Modify(ctx, id, func(p *models.UserProfile) error {
		if risk != "" {
			p.Risk = r
		}
		if name != "" {
			p.Name = name
		}
		p.UpdatedAt = now
		return nil
	})
}

func (uc *ProfileUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// GoalParams carries raw goal fields. Amounts are decimal strings, TargetDate is optional.
type GoalParams struct {
	Name          string
	TargetAmount  string
	CurrentAmount string
	TargetDate    string
}

func (uc *ProfileUseCase) AddGoal(ctx context.Context, profileID string, gp GoalParams) (*models.Goal, error) {
	g, err := uc.parseGoal(gp)
	if err != nil {
		return nil, err
	}
	g.ID = uc.newID()
	now := uc.now().UTC()
	_, err = uc.repo.Modify(ctx, profileID, func(p *models.UserProfile) error {
		p.Goals = append(p.Goals, g)
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (uc *ProfileUseCase) RemoveGoal(ctx context.Context, profileID, goalID string) error {
	now := uc.now().UTC()
	_, err := uc.repo.Modify(ctx, profileID, func(p *models.UserProfile) error {
		idx := -1
		for i, g := range p.Goals {
			if g.ID == goalID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", domrepo.ErrGoalNotFound, goalID)
		}
		p.Goals = append(p.Goals[:idx], p.Goals[idx+1:]...)
		p.UpdatedAt = now
		return nil
	})
	return err
}

func (uc *ProfileUseCase) parseGoal(gp GoalParams) (models.Goal, error) {
	g := models.Goal{Name: strings.TrimSpace(gp.Name)}
	target, err := decimal.NewFromString(strings.TrimSpace(gp.TargetAmount))
	if err != nil || !target.IsPositive() {
		return g, fmt.Errorf("%w: target %q", models.ErrInvalidAmount, gp.TargetAmount)
	}
	g.TargetAmount = target

	g.CurrentAmount = decimal.Zero
	if s := strings.TrimSpace(gp.CurrentAmount); s != "" {
		cur, err := decimal.NewFromString(s)
		if err != nil || cur.IsNegative() {
			return g, fmt.Errorf("%w: current %q", models.ErrInvalidAmount, gp.CurrentAmount)
		}
		g.CurrentAmount = cur
	}

	if s := strings.TrimSpace(gp.TargetDate); s != "" {
		t, ok := util.ParseTime(s)
		if !ok {
			return g, fmt.Errorf("%w: %q", models.ErrInvalidDate, gp.TargetDate)
		}
		g.TargetDate = &t
	}
	return g, nil
}
