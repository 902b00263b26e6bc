package colleges

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/david/campus-events/internal/upstream"
	"github.com/sirupsen/logrus"
)

const DefaultDirectoryURL = "http://universities.hipolabs.com"

// University is one record from the public university directory. It has no
// identity beyond its name and is never persisted.
type University struct {
	Name          string   `json:"name"`
	Country       string   `json:"country"`
	StateProvince *string  `json:"state-province"`
	WebPages      []string `json:"web_pages"`
	Domains       []string `json:"domains"`
	AlphaTwoCode  string   `json:"alpha_two_code"`
}

// Cache stores raw directory responses. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type DirectoryClient struct {
	BaseURL  string
	Client   *upstream.Client
	Cache    Cache
	CacheTTL time.Duration
	Log      logrus.FieldLogger
}

func NewDirectoryClient(baseURL string, timeout time.Duration, maxRetries int, log logrus.FieldLogger) *DirectoryClient {
	if baseURL == "" {
		baseURL = DefaultDirectoryURL
	}
	return &DirectoryClient{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		Client:   upstream.New(timeout, maxRetries),
		CacheTTL: time.Hour,
		Log:      log,
	}
}

func cacheKey(name, country string) string {
	return "colleges:directory:" + strings.ToLower(strings.TrimSpace(name)) + ":" + strings.ToLower(strings.TrimSpace(country))
}

// Search looks up universities whose name contains name, optionally within
// one country.
func (d *DirectoryClient) Search(ctx context.Context, name, country string) ([]University, error) {
	key := cacheKey(name, country)
	if d.Cache != nil {
		raw, ok, err := d.Cache.Get(ctx, key)
		if err != nil && d.Log != nil {
			d.Log.WithError(err).WithField("key", key).Warn("directory cache read failed")
		}
		if ok {
			var cached []University
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	params := url.Values{}
	params.Set("name", name)
	if strings.TrimSpace(country) != "" {
		params.Set("country", country)
	}
	endpoint := d.BaseURL + "/search?" + params.Encode()

	resp, err := d.Client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("university directory search: %w", err)
	}
	defer resp.Body.Close()

	var out []University
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("university directory search: decode response: %w", err)
	}

	if d.Cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := d.Cache.Set(ctx, key, raw, d.CacheTTL); err != nil && d.Log != nil {
				d.Log.WithError(err).WithField("key", key).Warn("directory cache write failed")
			}
		}
	}
	return out, nil
}
