// Package mcjars looks up concrete server-jar builds from the build index.
package mcjars

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

// DefaultBaseURL is the public build index.
const DefaultBaseURL = "https://mcjars.app/api/v2"

// ErrNoBuild signals that the index has no usable jar for the combination.
var ErrNoBuild = errors.New("no server jar available for this version/loader combination")

// ServerJarInfo describes the resolved jar build
type ServerJarInfo struct {
	JarURL  string `json:"jarUrl"`
	BuildID int    `json:"buildId"`
	JarSize int64  `json:"jarSize"`
}

// Client is the build-index API client
type Client struct {
	http *resty.Client
}

// NewClient creates a build-index client. Empty arguments fall back to the
// public index and the bundler's default User-Agent.
func NewClient(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().SetBaseURL(baseURL)
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &Client{http: client}
}

// FetchServerJar resolves the newest build for a loader+version pair. The
// index orders builds newest first, so builds[0] is taken.
func (c *Client) FetchServerJar(ctx context.Context, loaderName, version string) (*ServerJarInfo, error) {
	var result models.BuildsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/builds/%s/%s", strings.ToUpper(loaderName), version))
	if err != nil {
		return nil, fmt.Errorf("fetching server jar builds: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("build index returned %s", resp.Status())
	}

	if len(result.Builds) == 0 || result.Builds[0].JarURL == "" {
		return nil, ErrNoBuild
	}

	build := result.Builds[0]
	return &ServerJarInfo{
		JarURL:  build.JarURL,
		BuildID: build.ID,
		JarSize: build.JarSize,
	}, nil
}
