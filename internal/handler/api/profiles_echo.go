package api

import (
	"github.com/labstack/echo/v4"

	models "github.com/narayanprabad/InvestWise/internal/domain/models"
	"github.com/narayanprabad/InvestWise/internal/usecase"
	xhttp "github.com/narayanprabad/InvestWise/pkg/http"
	xlogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

// ProfilesEchoHandler exposes user profile and goal management.
type ProfilesEchoHandler struct {
	logger   *xlogger.Logger
	profiles *usecase.ProfileUseCase
}

func NewProfilesEchoHandler(logger *xlogger.Logger, profiles *usecase.ProfileUseCase) *ProfilesEchoHandler {
	return &ProfilesEchoHandler{logger: logger, profiles: profiles}
}

func (h *ProfilesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/profiles")
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/goals", h.AddGoal)
	g.DELETE("/:id/goals/:goal_id", h.RemoveGoal)
}

func (h *ProfilesEchoHandler) Create(c echo.Context) error {
	req := &models.ProfileRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.profiles.Create(c.Request().Context(), req.Name, req.Risk)
	if err != nil {
		return h.fail(c, "create profile", err)
	}
	return xhttp.CreatedResponse(c, p)
}

func (h *ProfilesEchoHandler) Get(c echo.Context) error {
	p, err := h.profiles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "get profile", err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *ProfilesEchoHandler) Update(c echo.Context) error {
	req := &models.ProfileRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.profiles.Update(c.Request().Context(), c.Param("id"), req.Name, req.Risk)
	if err != nil {
		return h.fail(c, "update profile", err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *ProfilesEchoHandler) Delete(c echo.Context) error {
	if err := h.profiles.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, "delete profile", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *ProfilesEchoHandler) AddGoal(c echo.Context) error {
	req := &models.GoalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	g, err := h.profiles.AddGoal(c.Request().Context(), c.Param("id"), usecase.GoalParams{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    req.TargetDate,
	})
	if err != nil {
		return h.fail(c, "add goal", err)
	}
	return xhttp.CreatedResponse(c, g)
}

func (h *ProfilesEchoHandler) RemoveGoal(c echo.Context) error {
	if err := h.profiles.RemoveGoal(c.Request().Context(), c.Param("id"), c.Param("goal_id")); err != nil {
		return h.fail(c, "remove goal", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *ProfilesEchoHandler) fail(c echo.Context, op string, err error) error {
	mapped := toAppError(err)
	if mapped == err {
		h.logger.Error(op+" failed", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, mapped)
}
