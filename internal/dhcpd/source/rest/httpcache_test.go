package rest

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryClient_CachesByMethodAndURL(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewQueryClient(16)

	_, err := client.JSON("GET", srv.URL, "", nil, true, time.Minute)
	require.NoError(t, err)
	_, err = client.JSON("GET", srv.URL, "different body entirely", nil, true, time.Minute)
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestQueryClient_ZeroExpirationDisablesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewQueryClient(16)

	_, err := client.JSON("GET", srv.URL, "", nil, true, 0)
	require.NoError(t, err)
	_, err = client.JSON("GET", srv.URL, "", nil, true, 0)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestQueryClient_PerQueryCacheTTLDiffers(t *testing.T) {
	var hitsA, hitsB int32
	srvA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hitsA, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srvA.Close()
	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hitsB, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srvB.Close()

	client := NewQueryClient(16)

	// Query A caches, query B doesn't: two calls to A should hit the
	// backend once, two calls to B should hit it twice.
	_, err := client.JSON("GET", srvA.URL, "", nil, true, time.Minute)
	require.NoError(t, err)
	_, err = client.JSON("GET", srvA.URL, "", nil, true, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hitsA))

	_, err = client.JSON("GET", srvB.URL, "", nil, true, 0)
	require.NoError(t, err)
	_, err = client.JSON("GET", srvB.URL, "", nil, true, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hitsB))
}
