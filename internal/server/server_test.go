package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/scheduler"
	"github.com/DChelin/Custom-Post-Type-Generate-HTML/internal/server"
)

type fakeHealth struct {
	ok     bool
	checks []scheduler.Status
}

func (f fakeHealth) Healthy() bool { return f.ok }
func (f fakeHealth) Snapshot() []scheduler.Status { return f.checks }

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		health     server.HealthReporter
		wantStatus int
		wantBody   string
	}{
		{"no monitor", nil, http.StatusOK, "ok"},
		{"healthy", fakeHealth{ok: true, checks: []scheduler.Status{{Name: "postgres", Healthy: true}}}, http.StatusOK, "ok"},
		{"degraded", fakeHealth{checks: []scheduler.Status{{Name: "postgres", Error: "refused"}}}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := server.New(":0", http.NotFoundHandler(), tt.health, zerolog.Nop())
			rec := serve(srv.Handler(), http.MethodGet, "/health")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body struct {
				Status string             `json:"status"`
				Checks []scheduler.Status `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body.Status)
		})
	}
}

func TestAdminRoute(t *testing.T) {
	var hits int
	admin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	})
	h := server.New(":0", admin, nil, zerolog.Nop()).Handler()

	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, server.AdminPath+"?page=export-to-html").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, server.AdminPath+"?page=export-to-html").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodDelete, server.AdminPath).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/admin/other.php").Code)
	assert.Equal(t, 2, hits)
}

func TestRequestID(t *testing.T) {
	h := server.New(":0", http.NotFoundHandler(), nil, zerolog.Nop()).Handler()

	minted := serve(h, http.MethodGet, "/health").Header().Get(server.RequestIDHeader)
	_, err := uuid.Parse(minted)
	assert.NoError(t, err, "minted id is a uuid")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.RequestIDHeader, "trace-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get(server.RequestIDHeader))
}

func TestRecoveryAndLogging(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := server.New(":0", panicky, nil, log).Handler()

	rec := serve(h, http.MethodGet, server.AdminPath+"?page=export-to-html")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"panic":"boom"`)
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"query":"page=export-to-html"`)
}
