package dues

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/lodgekeep/internal/billing"
	"github.com/lodgekeep/lodgekeep/internal/money"
	"github.com/lodgekeep/lodgekeep/internal/rbac"
)

type stubWarmer struct {
	scopes []string
	err    error
}

func (s *stubWarmer) WarmAsync(ctx context.Context, scope string) error {
	s.scopes = append(s.scopes, scope)
	return s.err
}

func newTestHandler(t *testing.T, source InvoiceSource, warmer DigestWarmer) http.Handler {
	t.Helper()
	svc := NewService(source, nil, time.Minute, nil)
	svc.clock = func() time.Time { return time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC) }

	h := NewHandler(nil, svc, rbac.Middleware{Gate: rbac.AllowAll{}}, money.NewFormatter("en", "USD"), warmer)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestSummaryEndpointFormatsTotals(t *testing.T) {
	inv := openInvoice(1, "1234.50", dateP(2024, 1, 8))
	inv.BuildingID = "bld-1"
	source := &stubInvoiceSource{invoices: []billing.Invoice{inv}}
	router := newTestHandler(t, source, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summary?building_id=bld-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Scope   string            `json:"scope"`
		Summary Buckets           `json:"summary"`
		Display map[string]string `json:"display"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "bld-1", body.Scope)
	require.Equal(t, 1, body.Summary.Overdue.Count)
	require.Equal(t, "USD 1,234.50", body.Display["overdue"])
	require.Equal(t, "USD 0.00", body.Display["pending"])
}

func TestRefreshEndpointEnqueuesScope(t *testing.T) {
	warmer := &stubWarmer{}
	router := newTestHandler(t, &stubInvoiceSource{}, warmer)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/summary/refresh?building_id=bld-2", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{"bld-2"}, warmer.scopes)

	// No building parameter warms the global digest.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/summary/refresh", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{"bld-2", "global"}, warmer.scopes)
}

func TestRefreshEndpointWithoutWarmer(t *testing.T) {
	router := newTestHandler(t, &stubInvoiceSource{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/summary/refresh", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
