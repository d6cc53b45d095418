package catalog

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bookiebuddy/internal/cache"
	"github.com/lepinkainen/bookiebuddy/internal/errors"
	"github.com/lepinkainen/bookiebuddy/internal/testutil"
)

// newIPv4TestServer starts a test server bound to IPv4 loopback to avoid IPv6 listener issues.
func newIPv4TestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)

	server := httptest.NewUnstartedServer(handler)
	server.Listener = listener
	server.Start()

	t.Cleanup(server.Close)
	return server
}

func setupCache(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	env := testutil.NewTestEnv(t)
	viper.Set("cache.dbfile", filepath.Join(env.RootDir(), "cache.db"))

	require.NoError(t, cache.ResetGlobalCache())
	t.Cleanup(func() { _ = cache.ResetGlobalCache() })
}

func duneResponse() SearchResponse {
	return SearchResponse{
		TotalItems: 1,
		Items: []Volume{{
			ID: "B1hSG45JCX4C",
			VolumeInfo: VolumeInfo{
				Title:         "Dune",
				Authors:       []string{"Frank Herbert"},
				PublishedDate: "1965-08-01",
				Categories:    []string{"Fiction"},
				ImageLinks:    &ImageLinks{Thumbnail: "http://books.google.com/dune.jpg"},
			},
		}},
	}
}

func TestSearchSendsExpectedParameters(t *testing.T) {
	setupCache(t)

	var got atomic.Value
	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.URL.Query())
		assert.Equal(t, "/volumes", r.URL.Path)
		_ = json.NewEncoder(w).Encode(duneResponse())
	}))

	client := NewClient(WithBaseURL(server.URL), WithAPIKey("secret"), WithRateLimit(0, 0))
	volumes, fromCache, err := client.Search(context.Background(), "  Dune ")
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, volumes, 1)
	assert.Equal(t, "Dune", volumes[0].VolumeInfo.Title)

	params := got.Load().(url.Values)
	assert.Equal(t, []string{"Dune"}, params["q"])
	assert.Equal(t, []string{"10"}, params["maxResults"])
	assert.Equal(t, []string{"books"}, params["printType"])
	assert.Equal(t, []string{"secret"}, params["key"])
}

func TestSearchBlankQueryMakesNoRequest(t *testing.T) {
	setupCache(t)

	var calls atomic.Int32
	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(0, 0))
	volumes, _, err := client.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, volumes)
	assert.NotNil(t, volumes)
	assert.Equal(t, int32(0), calls.Load())
}

func TestSearchCachesByLowercasedQuery(t *testing.T) {
	setupCache(t)

	var calls atomic.Int32
	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(duneResponse())
	}))

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(0, 0))
	_, _, err := client.Search(context.Background(), "Dune")
	require.NoError(t, err)

	volumes, fromCache, err := client.Search(context.Background(), "DUNE")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Len(t, volumes, 1)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, client.ClearCache())
	_, fromCache, err = client.Search(context.Background(), "dune")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearchWithoutItems(t *testing.T) {
	setupCache(t)

	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalItems":0}`))
	}))

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(0, 0))
	volumes, _, err := client.Search(context.Background(), "nothing matches")
	require.NoError(t, err)
	assert.Empty(t, volumes)
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		header      map[string]string
		isRateLimit bool
	}{
		{name: "server error", status: http.StatusInternalServerError},
		{name: "rate limited", status: http.StatusTooManyRequests, header: map[string]string{"Retry-After": "30"}, isRateLimit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCache(t)

			server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))

			client := NewClient(WithBaseURL(server.URL), WithRateLimit(0, 0))
			_, _, err := client.Search(context.Background(), "dune")
			require.Error(t, err)
			assert.Equal(t, tt.isRateLimit, errors.IsRateLimitError(err))
		})
	}
}

func TestVolume(t *testing.T) {
	setupCache(t)

	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/volumes/abc" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(duneResponse().Items[0])
	}))

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(0, 0))
	v, fromCache, err := client.Volume(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "Dune", v.VolumeInfo.Title)

	_, _, err = client.Volume(context.Background(), "missing")
	assert.Error(t, err)

	_, _, err = client.Volume(context.Background(), " ")
	assert.Error(t, err)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 30*time.Second, retryAfter("30"))
	assert.Equal(t, time.Duration(0), retryAfter(""))
	assert.Equal(t, time.Duration(0), retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
