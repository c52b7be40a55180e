package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/narayanprabad/InvestWise/pkg/config"
	xhttp "github.com/narayanprabad/InvestWise/pkg/http"
)

// HTTPServiceBase is the shared JSON POST client for the optional model service.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPServiceBase builds the client from analytics config. Transient failures are retried
// with exponential backoff inside the request timeout budget.
func NewHTTPServiceBase(cfg *config.Config) *HTTPServiceBase {
	timeout := cfg.Analytics.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	opts := []xhttp.ClientOption{xhttp.WithTimeout(timeout)}
	if cfg.Analytics.RetryAttempts > 1 {
		opts = append(opts, xhttp.WithRetry(time.Duration(cfg.Analytics.RetryAttempts)*timeout))
	}
	return &HTTPServiceBase{
		baseURL: strings.TrimRight(cfg.Analytics.ModelServiceURL, "/"),
		client:  xhttp.NewClient(opts...),
	}
}

// Enabled reports whether a model service URL is configured.
func (b *HTTPServiceBase) Enabled() bool { return b != nil && b.baseURL != "" }

// PostJSON posts payload to path under the base URL and decodes the JSON reply into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload, dest interface{}) error {
	if !b.Enabled() {
		return fmt.Errorf("model service url not configured")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}
