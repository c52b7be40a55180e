package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
	"github.com/narayanprabad/InvestWise/pkg/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.MarketData.BaseURL = srv.URL + "/"
	cfg.MarketData.APIKey = "secret"
	cfg.MarketData.RetryBudget = 0
	cfg.MarketData.RequestsPerSec = 0
	fixed := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	return New(cfg, WithClock(func() time.Time { return fixed }))
}

func TestQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/quote/^VIX", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"symbol":"^VIX","price":18.2,"previous_close":17.5,"change_percent":4.0}`))
	})

	q, err := c.Quote(context.Background(), "^VIX")
	require.NoError(t, err)
	assert.Equal(t, 18.2, q.Price)
	assert.Equal(t, 4.0, q.ChangePercent)
	assert.Equal(t, time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC), q.Timestamp)
}

func TestQuoteDerivesChangePercent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"SPY","price":505,"previous_close":500}`))
	})

	q, err := c.Quote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, q.ChangePercent, 1e-9)
}

func TestQuoteErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/quote/NOPE":
			w.WriteHeader(http.StatusNotFound)
		case "/v1/quote/ZERO":
			_, _ = w.Write([]byte(`{"symbol":"ZERO","price":0}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})

	_, err := c.Quote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrInvalidSymbol)

	_, err = c.Quote(context.Background(), "ZERO")
	assert.ErrorIs(t, err, domsvc.ErrSourceUnavailable)

	_, err = c.Quote(context.Background(), "SPY")
	assert.ErrorIs(t, err, domsvc.ErrSourceUnavailable)
}

func TestHistorySortsAndFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/history/SPY", r.URL.Path)
		assert.Equal(t, "91", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(`{"symbol":"SPY","points":[
			{"t":"2025-01-03T00:00:00Z","close":102},
			{"t":"2025-01-01T00:00:00Z","close":100},
			{"t":"2025-01-02T00:00:00Z","close":0}
		]}`))
	})

	pts, err := c.History(context.Background(), "SPY", 91)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, 100.0, pts[0].Close)
	assert.Equal(t, 102.0, pts[1].Close)
}

func TestHeadlines(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{"symbol":"SPY","headlines":[
			{"title":"Stocks rally","published_at":"2025-01-03T10:00:00Z"},
			{"title":"  "},
			{"title":"Fed holds rates"},
			{"title":"Extra"}
		]}`))
	})

	hs, err := c.Headlines(context.Background(), "SPY", 2)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, "Stocks rally", hs[0].Title)
	assert.Equal(t, "Fed holds rates", hs[1].Title)
}
