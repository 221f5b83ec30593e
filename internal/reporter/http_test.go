package reporter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmt-project/nmt/internal/auth"
	"github.com/nmt-project/nmt/internal/tracker"
)

func TestHealthzReportsOKStatus(t *testing.T) {
	tr := tracker.New(true)
	r := New(tr)
	router := r.Router(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestSummaryEndpointServesReport(t *testing.T) {
	tr := tracker.New(true)
	tr.Reserve(0x1000, 0x1000, "heap")

	r := New(tr)
	router := r.Router(nil)

	req := httptest.NewRequest(http.MethodGet, "/nmt/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "heap")
}

func TestDetailEndpointRequiresBearerToken(t *testing.T) {
	secret := []byte("test-secret")
	tr := tracker.New(true)
	r := New(tr)
	router := r.Router(auth.NewVerifier(secret))

	req := httptest.NewRequest(http.MethodGet, "/nmt/detail", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "test"})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/nmt/detail", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
