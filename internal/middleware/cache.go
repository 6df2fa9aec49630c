// Package middleware contains http middleware.
package middleware

import (
	"net/http"
	"net/http/httptest"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	code   int
	header http.Header
	body   []byte
}

// Cached wraps a handler and serves its response from an in-memory cache for
// ttl. Used for static reference data endpoints.
func Cached(ttl time.Duration, handler func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	storage := gocache.New(ttl, ttl)

	return func(w http.ResponseWriter, r *http.Request) {
		if v, ok := storage.Get(r.RequestURI); ok {
			resp := v.(cachedResponse)
			for k, vv := range resp.header {
				w.Header()[k] = vv
			}
			w.WriteHeader(resp.code)
			_, _ = w.Write(resp.body)
			return
		}

		c := httptest.NewRecorder()
		handler(c, r)

		for k, v := range c.Header() {
			w.Header()[k] = v
		}

		w.WriteHeader(c.Code)
		content := c.Body.Bytes()

		// do not cache failures
		if c.Code < http.StatusBadRequest {
			storage.Set(r.RequestURI, cachedResponse{
				code:   c.Code,
				header: c.Header(),
				body:   content,
			}, ttl)
		}

		_, _ = w.Write(content)
	}
}
