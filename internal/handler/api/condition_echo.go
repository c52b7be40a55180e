package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	models "github.com/narayanprabad/InvestWise/internal/domain/models"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
	"github.com/narayanprabad/InvestWise/internal/usecase"
	xhttp "github.com/narayanprabad/InvestWise/pkg/http"
	xlogger "github.com/narayanprabad/InvestWise/pkg/logger"
	"github.com/narayanprabad/InvestWise/pkg/util"
)

// ConditionEchoHandler serves market condition, allocation, advice, quote and history.
type ConditionEchoHandler struct {
	logger    *xlogger.Logger
	condition *usecase.MarketConditionUseCase
	advice    *usecase.AdviceUseCase
	history   *usecase.HistoryUseCase
	quotes    domsvc.QuoteSource
	// applied to the cacheable GET routes
	cacheMW []echo.MiddlewareFunc
}

func NewConditionEchoHandler(
	logger *xlogger.Logger,
	condition *usecase.MarketConditionUseCase,
	advice *usecase.AdviceUseCase,
	history *usecase.HistoryUseCase,
	quotes domsvc.QuoteSource,
	cacheMW ...echo.MiddlewareFunc,
) *ConditionEchoHandler {
	return &ConditionEchoHandler{
		logger:    logger,
		condition: condition,
		advice:    advice,
		history:   history,
		quotes:    quotes,
		cacheMW:   cacheMW,
	}
}

func (h *ConditionEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/condition", h.Condition, h.cacheMW...)
	g.GET("/quote", h.Quote, h.cacheMW...)
	g.GET("/allocation", h.Allocation)
	g.GET("/advice", h.Advice)
	g.GET("/history", h.History)
}

func (h *ConditionEchoHandler) Condition(c echo.Context) error {
	req := &models.ConditionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.condition.Evaluate(c.Request().Context(), usecase.ConditionParams{
		Symbol:      req.Symbol,
		HorizonDays: req.HorizonDays,
	})
	if err != nil {
		return h.fail(c, "condition", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ConditionEchoHandler) Allocation(c echo.Context) error {
	req := &models.AllocationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return h.fail(c, "allocation", err)
	}
	res, err := h.advice.Allocate(c.Request().Context(), usecase.AllocationParams{
		Risk:      req.Risk,
		Condition: req.Condition,
		Symbol:    req.Symbol,
		Amount:    amount,
	})
	if err != nil {
		return h.fail(c, "allocation", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ConditionEchoHandler) Advice(c echo.Context) error {
	req := &models.AdviceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return h.fail(c, "advice", err)
	}
	res, err := h.advice.Advise(c.Request().Context(), req.ProfileID, amount)
	if err != nil {
		return h.fail(c, "advice", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// parseAmount keeps the exact decimal the client sent. Empty means no amount.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", models.ErrInvalidAmount, s)
	}
	return d, nil
}

func (h *ConditionEchoHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym, err := usecase.NormalizeSymbol(req.Symbol)
	if err != nil {
		return h.fail(c, "quote", err)
	}
	q, err := h.quotes.Quote(c.Request().Context(), sym)
	if err != nil {
		return h.fail(c, "quote", err)
	}
	return xhttp.SuccessResponse(c, q)
}

func (h *ConditionEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, ok := parseOptionalTime(req.From)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.InvalidFieldError("from", "from must be RFC3339, a date or unix seconds"))
	}
	to, ok := parseOptionalTime(req.To)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.InvalidFieldError("to", "to must be RFC3339, a date or unix seconds"))
	}
	rows, err := h.history.Query(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		return h.fail(c, "history", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func parseOptionalTime(s string) (t time.Time, ok bool) {
	if s == "" {
		return t, true
	}
	return util.ParseTime(s)
}

func (h *ConditionEchoHandler) fail(c echo.Context, op string, err error) error {
	mapped := toAppError(err)
	if mapped == err {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, mapped)
}
