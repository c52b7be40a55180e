package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	"github.com/narayanprabad/InvestWise/internal/services/allocation"
	"github.com/narayanprabad/InvestWise/internal/services/analytics"
	"github.com/narayanprabad/InvestWise/internal/usecase"
	"github.com/narayanprabad/InvestWise/pkg/config"
	xhttp "github.com/narayanprabad/InvestWise/pkg/http"
	xlogger "github.com/narayanprabad/InvestWise/pkg/logger"
	"github.com/narayanprabad/InvestWise/pkg/metrics"
)

type stubQuotes map[string]models.Quote

func (s stubQuotes) Quote(_ context.Context, symbol string) (models.Quote, error) {
	q, ok := s[symbol]
	if !ok {
		return models.Quote{}, fmt.Errorf("%w: %s", models.ErrInvalidSymbol, symbol)
	}
	return q, nil
}

type stubTrend struct{}

func (stubTrend) Predict(_ context.Context, symbol string, _ int) (models.TrendPrediction, error) {
	return models.TrendPrediction{Symbol: symbol, Trend: models.TrendUp, Confidence: 0.9}, nil
}

type stubSentiment struct{}

func (stubSentiment) Analyze(_ context.Context, symbol string) (models.SentimentScore, error) {
	return models.SentimentScore{Symbol: symbol, Score: 2, Confidence: 0.8}, nil
}

type memProfiles struct {
	mu sync.Mutex
	m  map[string]models.UserProfile
}

func (r *memProfiles) Create(_ context.Context, p *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[p.ID] = *p
	return nil
}

func (r *memProfiles) Get(_ context.Context, id string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrProfileNotFound, id)
	}
	return &p, nil
}

func (r *memProfiles) Modify(_ context.Context, id string, fn func(*models.UserProfile) error) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrProfileNotFound, id)
	}
	p.Goals = append([]models.Goal(nil), p.Goals...)
	if err := fn(&p); err != nil {
		return nil, err
	}
	r.m[id] = p
	out := p
	return &out, nil
}

func (r *memProfiles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[id]; !ok {
		return domrepo.ErrProfileNotFound
	}
	delete(r.m, id)
	return nil
}

type testAPI struct {
	e   *echo.Echo
	hub *StreamHub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	quotes := stubQuotes{
		"^VIX": {Symbol: "^VIX", Price: 13},
		"SPY":  {Symbol: "SPY", Price: 540, ChangePercent: 1.4},
	}
	l := xlogger.Nop()
	cond := usecase.NewMarketConditionUseCase(config.Default(), usecase.Sources{
		Quotes:    quotes,
		Trend:     stubTrend{},
		Sentiment: stubSentiment{},
	}, analytics.NewClassifier(), metrics.Nop{}, l)
	opt, err := allocation.NewOptimizer()
	require.NoError(t, err)
	repo := &memProfiles{m: map[string]models.UserProfile{}}

	hub := NewStreamHub(l, nil)
	cond.Subscribe(hub)
	t.Cleanup(hub.Close)

	e := echo.New()
	xhttp.Handlers{
		NewConditionEchoHandler(l, cond, usecase.NewAdviceUseCase(opt, cond, repo, metrics.Nop{}, l), usecase.NewHistoryUseCase(nil), quotes),
		NewProfilesEchoHandler(l, usecase.NewProfileUseCase(repo)),
		hub,
	}.RegisterRoutes(e)
	return &testAPI{e: e, hub: hub}
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (a *testAPI) do(t *testing.T, method, target, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func TestConditionEndpoint(t *testing.T) {
	a := newTestAPI(t)

	code, env := a.do(t, http.MethodGet, "/api/condition?symbol=spy", "")
	require.Equal(t, http.StatusOK, code)
	var r models.MarketReport
	require.NoError(t, json.Unmarshal(env.Data, &r))
	assert.Equal(t, "SPY", r.Symbol)
	assert.Equal(t, 30, r.HorizonDays)
	assert.Equal(t, models.Bullish, r.Classification.Condition)
	assert.Equal(t, models.ModeWeighted, r.Classification.Mode)

	code, _ = a.do(t, http.MethodGet, "/api/condition?symbol=NOPE", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodGet, "/api/condition?horizon=400", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAllocationEndpoint(t *testing.T) {
	a := newTestAPI(t)

	code, env := a.do(t, http.MethodGet, "/api/allocation?risk=moderate&condition=bearish&amount=1000", "")
	require.Equal(t, http.StatusOK, code)
	var res models.AllocationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.AssetAllocation{Equity: 35, Debt: 38, Gold: 17, Cash: 10}, res.Allocation)
	require.NotNil(t, res.Amounts)
	assert.Equal(t, "350", res.Amounts.Equity.String())

	code, _ = a.do(t, http.MethodGet, "/api/allocation?risk=bold&condition=neutral", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodGet, "/api/allocation?condition=neutral", "")
	assert.Equal(t, http.StatusBadRequest, code)

	// beyond float64 precision
	code, env = a.do(t, http.MethodGet, "/api/allocation?risk=moderate&condition=bearish&amount=12345678901234567.89", "")
	require.Equal(t, http.StatusOK, code)
	res = models.AllocationResult{}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Amounts)
	assert.Equal(t, "12345678901234567.89", res.Amounts.Total.String())
	sum := res.Amounts.Equity.Add(res.Amounts.Debt).Add(res.Amounts.Gold).Add(res.Amounts.Cash)
	assert.True(t, sum.Equal(res.Amounts.Total))

	for _, amount := range []string{"lots", "-5", "1e"} {
		code, env = a.do(t, http.MethodGet, "/api/allocation?risk=moderate&condition=bearish&amount="+amount, "")
		assert.Equal(t, http.StatusBadRequest, code, amount)
	}
}

func TestQuoteAndHistoryEndpoints(t *testing.T) {
	a := newTestAPI(t)

	code, env := a.do(t, http.MethodGet, "/api/quote?symbol=SPY", "")
	require.Equal(t, http.StatusOK, code)
	var q models.Quote
	require.NoError(t, json.Unmarshal(env.Data, &q))
	assert.Equal(t, 540.0, q.Price)

	code, _ = a.do(t, http.MethodGet, "/api/history?symbol=SPY", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = a.do(t, http.MethodGet, "/api/history?symbol=SPY&from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProfileEndpoints(t *testing.T) {
	a := newTestAPI(t)

	code, env := a.do(t, http.MethodPost, "/api/profiles", `{"name":"Asha","risk":"aggressive"}`)
	require.Equal(t, http.StatusCreated, code)
	var p models.UserProfile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.NotEmpty(t, p.ID)

	code, _ = a.do(t, http.MethodPost, "/api/profiles", `{"name":"Ravi","risk":"reckless"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPost, "/api/profiles/"+p.ID+"/goals", `{"name":"Retire","target_amount":"1000000","current_amount":"250000"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = a.do(t, http.MethodPost, "/api/profiles/"+p.ID+"/goals", `{"name":"Boat","target_amount":"-3"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodGet, "/api/advice?profile_id="+p.ID+"&amount=two-thousand", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(t, http.MethodGet, "/api/advice?profile_id="+p.ID+"&amount=2000", "")
	require.Equal(t, http.StatusOK, code)
	var adv models.Advice
	require.NoError(t, json.Unmarshal(env.Data, &adv))
	assert.Equal(t, models.Aggressive, adv.Risk)
	assert.Equal(t, models.AssetAllocation{Equity: 80, Debt: 10, Gold: 7, Cash: 3}, adv.Allocation)
	require.Len(t, adv.Goals, 1)
	assert.Equal(t, "25", adv.Goals[0].Percent.String())

	code, _ = a.do(t, http.MethodDelete, "/api/profiles/"+p.ID, "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = a.do(t, http.MethodGet, "/api/profiles/"+p.ID, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.do(t, http.MethodGet, "/api/advice?profile_id="+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.do(t, http.MethodGet, "/api/advice?profile_id=not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStreamHubFiltersBySymbol(t *testing.T) {
	a := newTestAPI(t)
	srv := httptest.NewServer(a.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/condition?symbol=spy"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return a.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	a.hub.OnReport(&models.MarketReport{Symbol: "QQQ"})
	a.hub.OnReport(&models.MarketReport{Symbol: "SPY", Classification: models.Classification{Condition: models.Neutral}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var r models.MarketReport
	require.NoError(t, json.Unmarshal(b, &r))
	assert.Equal(t, "SPY", r.Symbol)
	assert.Equal(t, models.Neutral, r.Classification.Condition)

	a.hub.Close()
	assert.Equal(t, 0, a.hub.Len())
}

func TestStreamHubRejectsBadSymbol(t *testing.T) {
	a := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/ws/condition?symbol=a/b", nil)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
