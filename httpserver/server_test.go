package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fleetops/device-provisioning-backend/api/broker"
	"github.com/fleetops/device-provisioning-backend/geolocate"
	"github.com/fleetops/device-provisioning-backend/issuer"
	"github.com/fleetops/device-provisioning-backend/regions"
	"github.com/fleetops/device-provisioning-backend/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAllVerifier struct{}

func (allowAllVerifier) Verify(message, signatureB64 string) bool { return true }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler, err := broker.NewHandler(
		allowAllVerifier{},
		new(registry.MockRegistry),
		new(geolocate.MockLocator),
		regions.DefaultCatalog(),
		new(issuer.MockIssuer),
		"eu-west-2",
		log,
	)
	require.NoError(t, err)

	srv, err := New(&HTTPServerConfig{
		ListenAddr:    "127.0.0.1:0",
		Log:           log,
		DrainDuration: 10 * time.Millisecond,
	}, handler)
	require.NoError(t, err)
	return srv
}

func TestLiveness(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.getRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDrainCycle(t *testing.T) {
	srv := newTestServer(t)
	router := srv.getRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drain", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/undrain", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProvisionRouteMounted(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.getRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/provision", nil))
	// Empty body decodes to nothing; the broker answers with its own
	// error body rather than a router 404.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
