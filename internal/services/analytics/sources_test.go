package analytics

import (
	"context"
	"encoding/json"
	"errors"
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

type fakeHistory struct {
	closes    []float64
	err       error
	requested int
}

func (f *fakeHistory) History(_ context.Context, _ string, days int) ([]models.PricePoint, error) {
	f.requested = days
	if f.err != nil {
		return nil, f.err
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PricePoint, len(f.closes))
	for i, c := range f.closes {
		out[i] = models.PricePoint{Time: start.AddDate(0, 0, i), Close: c}
	}
	return out, nil
}

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestRegressionTrendUp(t *testing.T) {
	h := &fakeHistory{closes: series(30, func(i int) float64 { return 100 + float64(i) })}
	f := NewRegressionTrendForecaster(h, WithLookbackDays(182))

	got, err := f.Predict(context.Background(), "SPY", 10)
	require.NoError(t, err)
	assert.Equal(t, 182, h.requested)
	assert.Equal(t, models.TrendUp, got.Trend)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	require.Len(t, got.Series, 10)
	assert.InDelta(t, 130.0, got.Series[0], 1e-6)
	assert.InDelta(t, 139.0, got.Series[9], 1e-6)
	assert.Equal(t, "linear_regression", got.Model)
}

func TestRegressionTrendDown(t *testing.T) {
	h := &fakeHistory{closes: series(40, func(i int) float64 { return 200 - 0.5*float64(i) })}
	got, err := NewRegressionTrendForecaster(h).Predict(context.Background(), "SPY", 30)
	require.NoError(t, err)
	assert.Equal(t, models.TrendDown, got.Trend)
	assert.Greater(t, got.Confidence, 0.99)
}

func TestRegressionTrendFlatIsSideways(t *testing.T) {
	h := &fakeHistory{closes: series(20, func(i int) float64 { return 100 })}
	got, err := NewRegressionTrendForecaster(h).Predict(context.Background(), "SPY", 5)
	require.NoError(t, err)
	assert.Equal(t, models.TrendSideways, got.Trend)
	assert.GreaterOrEqual(t, got.Confidence, 0.0)
	assert.LessOrEqual(t, got.Confidence, 1.0)
}

func TestRegressionTrendNeedsHistory(t *testing.T) {
	_, err := NewRegressionTrendForecaster(&fakeHistory{closes: []float64{1, 2, 3}}).Predict(context.Background(), "SPY", 5)
	assert.ErrorIs(t, err, domsvc.ErrSourceUnavailable)

	boom := errors.New("gateway down")
	_, err = NewRegressionTrendForecaster(&fakeHistory{err: boom}).Predict(context.Background(), "SPY", 5)
	assert.ErrorIs(t, err, boom)
}

type fakeNews struct {
	titles []string
	err    error
}

func (f fakeNews) Headlines(_ context.Context, _ string, count int) ([]models.Headline, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Headline, 0, len(f.titles))
	for _, t := range f.titles {
		out = append(out, models.Headline{Title: t})
	}
	return out, nil
}

func TestLexiconSentiment(t *testing.T) {
	a := NewLexiconSentimentAnalyzer(fakeNews{titles: []string{
		"Stocks rally on strong earnings", // 3 + 2
		"Markets surge to record high",    // 3 + 2 + 1
		"Board meets on Tuesday",          // no hits
	}})

	got, err := a.Analyze(context.Background(), "SPY")
	require.NoError(t, err)
	assert.InDelta(t, 11.0/5.0, got.Score, 1e-9)
	assert.InDelta(t, (2.0/3.0)*0.4, got.Confidence, 1e-9)
	assert.Equal(t, 3, got.Samples)
}

func TestLexiconSentimentNegation(t *testing.T) {
	a := NewLexiconSentimentAnalyzer(fakeNews{titles: []string{
		"Earnings not strong this quarter",
		"No growth expected, analysts say",
	}})
	got, err := a.Analyze(context.Background(), "SPY")
	require.NoError(t, err)
	assert.InDelta(t, -2.0, got.Score, 1e-9)
}

func TestLexiconSentimentFullConfidence(t *testing.T) {
	titles := make([]string, 6)
	for i := range titles {
		titles[i] = "Crash fears spread as recession looms"
	}
	got, err := NewLexiconSentimentAnalyzer(fakeNews{titles: titles}).Analyze(context.Background(), "SPY")
	require.NoError(t, err)
	assert.InDelta(t, -3.0, got.Score, 1e-9) // (-4 -2 -3) / 3
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestLexiconSentimentNoMatchesIsNeutralWithZeroConfidence(t *testing.T) {
	got, err := NewLexiconSentimentAnalyzer(fakeNews{titles: []string{"Company holds annual meeting"}}).Analyze(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Zero(t, got.Score)
	assert.Zero(t, got.Confidence)
}

func TestLexiconSentimentFallsBackToVader(t *testing.T) {
	got, err := NewLexiconSentimentAnalyzer(fakeNews{titles: []string{
		"Investors love the wonderful new product",
		"Board meets on Tuesday",
	}}).Analyze(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Greater(t, got.Score, 0.0)
	assert.LessOrEqual(t, got.Score, 5.0)
	assert.InDelta(t, 0.5*0.2, got.Confidence, 1e-9)

	got, err = NewLexiconSentimentAnalyzer(fakeNews{titles: []string{"Customers hate the awful, terrible redesign"}}).Analyze(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Less(t, got.Score, 0.0)
}

func TestLexiconSentimentFinanceTermsOverrideVader(t *testing.T) {
	// "love" alone would read positive; the finance lexicon owns "crash".
	got, err := NewLexiconSentimentAnalyzer(fakeNews{titles: []string{"Traders love the crash"}}).Analyze(context.Background(), "SPY")
	require.NoError(t, err)
	assert.InDelta(t, financeLexicon["crash"], got.Score, 1e-9)
}

func TestLexiconSentimentErrors(t *testing.T) {
	_, err := NewLexiconSentimentAnalyzer(fakeNews{}).Analyze(context.Background(), "SPY")
	assert.ErrorIs(t, err, domsvc.ErrSourceUnavailable)

	boom := errors.New("timeout")
	_, err = NewLexiconSentimentAnalyzer(fakeNews{err: boom}).Analyze(context.Background(), "SPY")
	assert.ErrorIs(t, err, boom)
}

func modelServiceConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Analytics.ModelServiceURL = url
	cfg.Analytics.Timeout = time.Second
	cfg.Analytics.RetryAttempts = 1
	return cfg
}

func TestHTTPTrendForecaster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trend/predict", r.URL.Path)
		var req trendReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "SPY", req.Symbol)
		assert.Equal(t, 30, req.HorizonDays)
		_, _ = w.Write([]byte(`{"trend":"Down","confidence":1.4,"series":[1,2],"model":"lstm"}`))
	}))
	defer srv.Close()

	got, err := NewHTTPTrendForecaster(NewHTTPServiceBase(modelServiceConfig(srv.URL))).Predict(context.Background(), "SPY", 30)
	require.NoError(t, err)
	assert.Equal(t, models.TrendDown, got.Trend)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, "lstm", got.Model)
}

func TestHTTPTrendForecasterRejectsUnknownTrend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"trend":"moon","confidence":0.9}`))
	}))
	defer srv.Close()

	_, err := NewHTTPTrendForecaster(NewHTTPServiceBase(modelServiceConfig(srv.URL))).Predict(context.Background(), "SPY", 30)
	assert.ErrorIs(t, err, domsvc.ErrSourceUnavailable)
}

func TestHTTPSentimentAnalyzer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sentiment/analyze", r.URL.Path)
		_, _ = w.Write([]byte(`{"score":-7.5,"confidence":0.6,"samples":12}`))
	}))
	defer srv.Close()

	got, err := NewHTTPSentimentAnalyzer(NewHTTPServiceBase(modelServiceConfig(srv.URL))).Analyze(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, -5.0, got.Score)
	assert.Equal(t, 0.6, got.Confidence)
	assert.Equal(t, 12, got.Samples)
}

func TestHTTPSourcesMapFailuresToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	base := NewHTTPServiceBase(modelServiceConfig(srv.URL))
	_, err := NewHTTPSentimentAnalyzer(base).Analyze(context.Background(), "SPY")
	assert.ErrorIs(t, err, domsvc.ErrSourceUnavailable)

	unconfigured := NewHTTPServiceBase(modelServiceConfig(""))
	assert.False(t, unconfigured.Enabled())
	_, err = NewHTTPTrendForecaster(unconfigured).Predict(context.Background(), "SPY", 30)
	assert.ErrorIs(t, err, domsvc.ErrSourceUnavailable)
}
