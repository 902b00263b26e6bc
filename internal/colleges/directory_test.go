package colleges

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func TestDirectorySearchQueryParams(t *testing.T) {
	var gotName, gotCountry string
	var hasCountry bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotName = r.URL.Query().Get("name")
		gotCountry = r.URL.Query().Get("country")
		_, hasCountry = r.URL.Query()["country"]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"Delhi University","country":"India","state-province":null,"web_pages":["http://www.du.ac.in/"],"domains":["du.ac.in"],"alpha_two_code":"IN"}]`))
	}))
	defer srv.Close()

	d := NewDirectoryClient(srv.URL, 5*time.Second, 0, nil)

	got, err := d.Search(context.Background(), "delhi", "India")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "delhi", gotName)
	assert.Equal(t, "India", gotCountry)
	assert.Equal(t, "Delhi University", got[0].Name)
	assert.Nil(t, got[0].StateProvince)
	assert.Equal(t, []string{"http://www.du.ac.in/"}, got[0].WebPages)
	assert.Equal(t, "IN", got[0].AlphaTwoCode)

	_, err = d.Search(context.Background(), "delhi", "")
	require.NoError(t, err)
	assert.False(t, hasCountry)
}

func TestDirectorySearchUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"name":"Anna University","country":"India"}]`))
	}))
	defer srv.Close()

	cache := newMemoryCache()
	d := NewDirectoryClient(srv.URL, 5*time.Second, 0, nil)
	d.Cache = cache
	d.CacheTTL = 10 * time.Minute

	for i := 0; i < 3; i++ {
		got, err := d.Search(context.Background(), "Anna", "India")
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, 10*time.Minute, cache.ttls[cacheKey("anna", "india")])
}

func TestDirectorySearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDirectoryClient(srv.URL, 5*time.Second, 0, nil)
	_, err := d.Search(context.Background(), "anna", "")
	assert.Error(t, err)
}
