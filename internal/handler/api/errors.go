package api

import (
	"errors"
	"net/http"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
	"github.com/narayanprabad/InvestWise/internal/repository"
	"github.com/narayanprabad/InvestWise/internal/usecase"
	xhttp "github.com/narayanprabad/InvestWise/pkg/http"
)

// toAppError maps domain errors onto HTTP statuses. Unknown errors stay unmapped and
// become a 500.
func toAppError(err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidRiskProfile):
		return xhttp.InvalidFieldError("risk", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidMarketCondition):
		return xhttp.InvalidFieldError("condition", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidSymbol):
		return xhttp.InvalidFieldError("symbol", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidHorizon):
		return xhttp.InvalidFieldError("horizon", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidAmount):
		return xhttp.InvalidFieldError("amount", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidDate):
		return xhttp.InvalidFieldError("target_date", err.Error()).WithError(err)
	case models.IsInvalidInput(err):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrProfileNotFound), errors.Is(err, domrepo.ErrGoalNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, repository.ErrProfileExists), errors.Is(err, domrepo.ErrProfileConflict):
		return xhttp.NewAppError("ERR_CONFLICT", "", err.Error(), http.StatusConflict).WithError(err)
	case errors.Is(err, usecase.ErrHistoryUnavailable), errors.Is(err, domsvc.ErrSourceUnavailable):
		return xhttp.NewAppError("ERR_UNAVAILABLE", "", err.Error(), http.StatusServiceUnavailable).WithError(err)
	}
	return err
}
