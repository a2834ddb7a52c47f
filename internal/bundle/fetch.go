package bundle

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/ServerwaveHost/wave-server-bundler/internal/cache"
)

// Fetcher retrieves a raw asset payload by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads assets over HTTP, consulting a byte cache first so a
// re-run after a failed build skips unchanged assets.
type HTTPFetcher struct {
	http  *resty.Client
	cache cache.ByteCache
}

// NewHTTPFetcher creates an asset downloader. A nil byte cache disables
// caching.
func NewHTTPFetcher(userAgent string, bc cache.ByteCache) *HTTPFetcher {
	client := resty.New()
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &HTTPFetcher{http: client, cache: bc}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		data, err := f.cache.GetBytes(ctx, url)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			return nil, fmt.Errorf("reading asset cache: %w", err)
		}
	}

	resp, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("server returned %s", resp.Status())
	}

	data := resp.Body()
	if f.cache != nil {
		// Cache write failures only cost a refetch later.
		_ = f.cache.SetBytes(ctx, url, data)
	}
	return data, nil
}
