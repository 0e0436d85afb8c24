package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxRateResponseSize = 64 << 10

// ErrRateUnavailable is returned when the rate service has no rate for the request
var ErrRateUnavailable = errors.New("currency: rate unavailable")

// HTTPProviderConfig configures the remote rate service client
type HTTPProviderConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPProvider queries a remote rate service:
//
//	GET {base}/rates?tenant_id=..&from=USD&to=TRY&date=2024-03-31
//	{"from":"USD","to":"TRY","date":"2024-03-31","rate":"32.1234"}
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type rateResponse struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Date string          `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// NewHTTPProvider creates a client for the rate service at cfg.BaseURL
func NewHTTPProvider(cfg HTTPProviderConfig) (*HTTPProvider, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("currency: invalid base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// GetRate fetches the rate for one unit of from in to
func (p *HTTPProvider) GetRate(ctx context.Context, tenantID uuid.UUID, from, to valueobject.Currency, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	q := url.Values{}
	q.Set("tenant_id", tenantID.String())
	q.Set("from", from.String())
	q.Set("to", to.String())
	q.Set("date", asOf.Format(time.DateOnly))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/rates?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency: rate service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRateResponseSize))
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return decimal.Zero, fmt.Errorf("%w: %s/%s on %s", ErrRateUnavailable, from, to, asOf.Format(time.DateOnly))
	case resp.StatusCode >= 400:
		return decimal.Zero, fmt.Errorf("currency: rate service returned HTTP %d", resp.StatusCode)
	}

	var out rateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decimal.Zero, fmt.Errorf("currency: malformed rate response: %w", err)
	}
	if !out.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s", ErrRateUnavailable, out.Rate)
	}
	return valueobject.RoundExchangeRate(out.Rate), nil
}
