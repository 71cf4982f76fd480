package sheets

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

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"risklo/internal/domain"
)

// DefaultBaseURL is the Google Sheets REST endpoint.
const DefaultBaseURL = "https://sheets.googleapis.com"

// HTTPConfig configures HTTPProvider.
type HTTPConfig struct {
	BaseURL       string
	SpreadsheetID string
	APIKey        string

	RatePerSec float64 // <= 0 disables limiting
	Burst      int

	BreakerFailures uint32        // consecutive failures that open the breaker
	BreakerTimeout  time.Duration // open state duration

	Client *http.Client
}

// HTTPProvider reads sheets through the Sheets v4 values API.
type HTTPProvider struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

var _ Provider = (*HTTPProvider)(nil)

// NewHTTPProvider creates an HTTPProvider. Zero config fields take defaults.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "sheets",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A missing sheet is a caller error, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSheetNotFound)
		},
	})

	return &HTTPProvider{cfg: cfg, client: client, limiter: limiter, breaker: breaker}
}

// BreakerState reports the circuit breaker state name.
func (p *HTTPProvider) BreakerState() string {
	return p.breaker.State().String()
}

type spreadsheetMeta struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

type valueRange struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

// SheetNames fetches spreadsheet tab titles and filters them.
func (p *HTTPProvider) SheetNames(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s", p.cfg.BaseURL, url.PathEscape(p.cfg.SpreadsheetID))

	var meta spreadsheetMeta
	if err := p.get(ctx, endpoint, url.Values{"fields": {"sheets.properties.title"}}, &meta); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(meta.Sheets))
	for _, s := range meta.Sheets {
		names = append(names, s.Properties.Title)
	}
	return FilterSheetNames(names), nil
}

// Rows fetches columns A:Z of the named sheet.
func (p *HTTPProvider) Rows(ctx context.Context, name string) ([]domain.SheetRow, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		p.cfg.BaseURL, url.PathEscape(p.cfg.SpreadsheetID), url.PathEscape(sheetRange(name)))

	var vr valueRange
	if err := p.get(ctx, endpoint, nil, &vr); err != nil {
		return nil, err
	}

	rows := make([]domain.SheetRow, len(vr.Values))
	for i, v := range vr.Values {
		rows[i] = domain.SheetRow(v)
	}
	return rows, nil
}

// sheetRange builds a quoted A1 range; unquoted names like "Q1" parse as cells.
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'!A:Z"
}

func (p *HTTPProvider) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	if p.cfg.APIKey != "" {
		query.Set("key", p.cfg.APIKey)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.do(ctx, endpoint, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return err
}

func (p *HTTPProvider) do(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		// The values API answers 400 "Unable to parse range" for unknown tabs.
		return ErrSheetNotFound
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sheets api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode sheets response: %w", err)
	}
	return nil
}
