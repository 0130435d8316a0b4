package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpsGuard(t *testing.T) {
	t.Parallel()

	guard := OpsGuard(OpsGuardOptions{
		Enabled:      true,
		CIDRs:        "10.0.0.0/8",
		Token:        "secret",
		RealIPHeader: "X-Real-IP",
		Paths:        []string{"/debug/prometheus", "/importRuns"},
	})
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(path string, mutate func(*http.Request)) int {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.RemoteAddr = "192.168.1.5:1234"
		if mutate != nil {
			mutate(r)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("/health", nil))
	assert.Equal(t, http.StatusNotFound, serve("/debug/prometheus", nil))
	assert.Equal(t, http.StatusOK, serve("/debug/prometheus", func(r *http.Request) {
		r.Header.Set("X-Ops-Token", "secret")
	}))
	assert.Equal(t, http.StatusOK, serve("/importRuns", func(r *http.Request) {
		r.Header.Set("X-Real-IP", "10.1.2.3")
	}))
	assert.Equal(t, http.StatusNotFound, serve("/importRuns", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer wrong")
	}))
}

func TestOpsGuard_Disabled(t *testing.T) {
	t.Parallel()

	h := OpsGuard(OpsGuardOptions{Paths: []string{"/debug/prometheus"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpsGuard_BoundaryAndBasicAuth(t *testing.T) {
	t.Parallel()

	h := OpsGuard(OpsGuardOptions{
		Enabled:       true,
		BasicAuthUser: "ops",
		BasicAuthPass: "pw",
		Paths:         []string{"/importRuns"},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if mutate != nil {
			mutate(r)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve("/importRunsArchive", nil).Code)

	denied := serve("/importRuns/recent", nil)
	assert.Equal(t, http.StatusNotFound, denied.Code)
	assert.Contains(t, denied.Body.String(), "NOT_FOUND")

	assert.Equal(t, http.StatusOK, serve("/importRuns", func(r *http.Request) {
		r.SetBasicAuth("ops", "pw")
	}).Code)
	assert.Equal(t, http.StatusNotFound, serve("/importRuns", func(r *http.Request) {
		r.SetBasicAuth("ops", "nope")
	}).Code)
}
