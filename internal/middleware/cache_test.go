package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCached(t *testing.T) {
	calls := 0
	h := Cached(time.Minute, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"calls": %d}`, calls)
	})

	get := func(uri string) *httptest.ResponseRecorder {
		r, err := http.NewRequest(http.MethodGet, uri, nil)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	w := get("/v1/villages")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"calls": 1}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	// second hit is served from cache, headers included
	w = get("/v1/villages")
	assert.JSONEq(t, `{"calls": 1}`, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, 1, calls)

	// different uri is a different entry
	_ = get("/v1/villages/tuscany")
	assert.Equal(t, 2, calls)
}

func TestCached_failuresNotCached(t *testing.T) {
	calls := 0
	h := Cached(time.Minute, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	for i, want := range []int{http.StatusInternalServerError, http.StatusOK} {
		r, err := http.NewRequest(http.MethodGet, "/v1/villages", nil)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, want, w.Code, "request %d", i)
	}

	assert.Equal(t, 2, calls)
}
