package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risklo/internal/domain"
)

func TestHTTPProvider_SheetNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-1", r.URL.Path)
		assert.Equal(t, "sheets.properties.title", r.URL.Query().Get("fields"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Write([]byte(`{"sheets":[
			{"properties":{"title":"Alpha"}},
			{"properties":{"title":"02.2025"}},
			{"properties":{"title":"Current results"}},
			{"properties":{"title":"Beta"}}
		]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, SpreadsheetID: "sheet-1", APIKey: "secret"})

	names, err := p.SheetNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, names)
}

func TestHTTPProvider_Rows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-1/values/'NQ Scalper'!A:Z", r.URL.Path)
		w.Write([]byte(`{"range":"NQ Scalper!A1:Z3","values":[["Date"],[],["01/06","","$100",-50.5]]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL + "/", SpreadsheetID: "sheet-1"})

	rows, err := p.Rows(context.Background(), "NQ Scalper")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Empty(t, rows[1])
	assert.Equal(t, domain.SheetRow{"01/06", "", "$100", -50.5}, rows[2])
}

func TestSheetRange(t *testing.T) {
	assert.Equal(t, "'Alpha'!A:Z", sheetRange("Alpha"))
	assert.Equal(t, "'A1'!A:Z", sheetRange("A1"))
	assert.Equal(t, "'Bob''s NQ'!A:Z", sheetRange("Bob's NQ"))
}

func TestHTTPProvider_RowsQuotesSheetName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-1/values/'Bob''s NQ'!A:Z", r.URL.Path)
		w.Write([]byte(`{"values":[["h"],["h"],["01/06","","-20"]]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, SpreadsheetID: "sheet-1"})

	rows, err := p.Rows(context.Background(), "Bob's NQ")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestHTTPProvider_NotFoundDoesNotTrip(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"Unable to parse range"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, SpreadsheetID: "s", BreakerFailures: 2})

	for i := 0; i < 4; i++ {
		_, err := p.Rows(context.Background(), "Gone")
		assert.ErrorIs(t, err, ErrSheetNotFound)
	}
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, "closed", p.BreakerState())
}

func TestHTTPProvider_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{
		BaseURL:         srv.URL,
		SpreadsheetID:   "s",
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	})

	for i := 0; i < 4; i++ {
		_, err := p.Rows(context.Background(), "Alpha")
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	}
	assert.Equal(t, int32(2), calls.Load(), "open breaker must short-circuit")
	assert.Equal(t, "open", p.BreakerState())
}

func TestHTTPProvider_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, SpreadsheetID: "s"})

	_, err := p.SheetNames(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "403"))
	assert.NotErrorIs(t, err, ErrSheetNotFound)
}

func TestHTTPProvider_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, SpreadsheetID: "s", RatePerSec: 0.001, Burst: 1})

	_, err := p.Rows(context.Background(), "Alpha")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Rows(ctx, "Alpha")
	assert.Error(t, err)
}
