package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
	"github.com/narayanprabad/InvestWise/pkg/config"
	xhttp "github.com/narayanprabad/InvestWise/pkg/http"
)

// Client talks to the market data gateway. It implements QuoteSource, PriceHistorySource
// and NewsSource.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
	now     func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithClock overrides the timestamp source for quotes.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

func New(cfg *config.Config, opts ...Option) *Client {
	md := cfg.MarketData
	c := &Client{
		baseURL: strings.TrimRight(md.BaseURL, "/"),
		apiKey:  md.APIKey,
		http: xhttp.NewClient(
			xhttp.WithTimeout(md.Timeout),
			xhttp.WithRetry(md.RetryBudget),
			xhttp.WithRateLimit(md.RequestsPerSec, md.Burst),
		),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type quoteResp struct {
	Symbol        string   `json:"symbol"`
	Price         float64  `json:"price"`
	PreviousClose float64  `json:"previous_close"`
	ChangePercent *float64 `json:"change_percent"`
}

// Quote returns the latest price. A missing change_percent is derived from the previous close.
func (c *Client) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	var qr quoteResp
	if err := c.get(ctx, "/v1/quote/"+url.PathEscape(symbol), nil, &qr); err != nil {
		return models.Quote{}, c.mapErr("quote", symbol, err)
	}
	if qr.Price <= 0 {
		return models.Quote{}, fmt.Errorf("%w: quote %s: non-positive price %v", domsvc.ErrSourceUnavailable, symbol, qr.Price)
	}

	q := models.Quote{
		Symbol:        symbol,
		Price:         qr.Price,
		PreviousClose: qr.PreviousClose,
		Timestamp:     c.now().UTC(),
	}
	switch {
	case qr.ChangePercent != nil:
		q.ChangePercent = *qr.ChangePercent
	case qr.PreviousClose > 0:
		q.ChangePercent = (qr.Price - qr.PreviousClose) / qr.PreviousClose * 100
	}
	return q, nil
}

type historyResp struct {
	Symbol string              `json:"symbol"`
	Points []models.PricePoint `json:"points"`
}

// History returns daily closes for the last `days` calendar days, oldest first.
func (c *Client) History(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	if days <= 0 {
		days = 1
	}
	var hr historyResp
	q := map[string][]string{"days": {strconv.Itoa(days)}}
	if err := c.get(ctx, "/v1/history/"+url.PathEscape(symbol), q, &hr); err != nil {
		return nil, c.mapErr("history", symbol, err)
	}

	points := hr.Points[:0]
	for _, p := range hr.Points {
		if p.Close > 0 {
			points = append(points, p)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

type newsResp struct {
	Symbol    string            `json:"symbol"`
	Headlines []models.Headline `json:"headlines"`
}

// Headlines returns up to count recent headlines.
func (c *Client) Headlines(ctx context.Context, symbol string, count int) ([]models.Headline, error) {
	if count <= 0 {
		count = 10
	}
	var nr newsResp
	q := map[string][]string{"count": {strconv.Itoa(count)}}
	if err := c.get(ctx, "/v1/news/"+url.PathEscape(symbol), q, &nr); err != nil {
		return nil, c.mapErr("news", symbol, err)
	}
	out := make([]models.Headline, 0, len(nr.Headlines))
	for _, h := range nr.Headlines {
		if strings.TrimSpace(h.Title) != "" {
			out = append(out, h)
		}
	}
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers["X-API-Key"] = c.apiKey
	}
	return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		Headers:     headers,
		QueryParams: query,
	}, dest)
}

// mapErr turns a 404 into an invalid-symbol error and everything else into an unavailable source.
func (c *Client) mapErr(op, symbol string, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %q", models.ErrInvalidSymbol, op, symbol)
	}
	return fmt.Errorf("%w: %s %s: %v", domsvc.ErrSourceUnavailable, op, symbol, err)
}

var (
	_ domsvc.QuoteSource        = (*Client)(nil)
	_ domsvc.PriceHistorySource = (*Client)(nil)
	_ domsvc.NewsSource         = (*Client)(nil)
)
