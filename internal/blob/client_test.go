package blob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	aggregator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/blob-1":
			w.Write([]byte("blob content")) // nolint
		case "/v1/blob-gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer aggregator.Close()

	c := NewClient(aggregator.URL, aggregator.URL, 5*time.Second)

	body, err := c.Fetch(context.Background(), "blob-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob content"), body)

	_, err = c.Fetch(context.Background(), "blob-gone")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.Fetch(context.Background(), "blob-broken")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestClient_Put(t *testing.T) {
	publisher := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/store", r.URL.Path)
		assert.Equal(t, "register-digest", r.URL.Query().Get("registerDigest"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"newlyCreated": {"blobObject": {"blobId": "blob-1"}}}`)) // nolint
	}))
	defer publisher.Close()

	c := NewClient(publisher.URL, publisher.URL, 5*time.Second)

	blobID, err := c.Put(context.Background(), []byte("content"), "register-digest")
	require.NoError(t, err)
	assert.Equal(t, "blob-1", blobID)
}

func TestClient_Put_alreadyCertified(t *testing.T) {
	publisher := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"alreadyCertified": {"blobId": "blob-1"}}`)) // nolint
	}))
	defer publisher.Close()

	c := NewClient(publisher.URL, publisher.URL, 5*time.Second)

	blobID, err := c.Put(context.Background(), []byte("content"), "register-digest")
	require.NoError(t, err)
	assert.Equal(t, "blob-1", blobID)
}

func TestClient_Put_malformedResponse(t *testing.T) {
	publisher := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`)) // nolint
	}))
	defer publisher.Close()

	c := NewClient(publisher.URL, publisher.URL, 5*time.Second)

	_, err := c.Put(context.Background(), []byte("content"), "register-digest")
	require.Error(t, err)
}
