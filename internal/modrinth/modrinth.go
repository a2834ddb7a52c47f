// Package modrinth is the content API client: project search, version
// listings and the tag catalogs the UI filters on.
package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/go-resty/resty/v2"

	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
)

// DefaultBaseURL is the public Modrinth v2 API.
const DefaultBaseURL = "https://api.modrinth.com/v2"

// Geyser and Floodgate project ids, used for the optional Bedrock
// compatibility auto-include.
const (
	geyserProjectID    = "wKkoqHrH"
	floodgateProjectID = "bWrNNfkb"
)

// Client is the Modrinth API client
type Client struct {
	http *resty.Client
}

// NewClient creates a content API client. Empty arguments fall back to the
// public API and no User-Agent override.
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

// SearchOptions are the supported project search filters
type SearchOptions struct {
	Query      string
	Categories []string
	Facets     map[string][]string
	Loader     string
	Limit      int
	Offset     int
}

// allowedProjectTypes is the whitelist for project_type facet values; the
// bundler only deals in server-side content.
var allowedProjectTypes = map[string]bool{"modpack": true, "datapack": true, "mod": true}

// buildFacets assembles the facet query: an array of groups, OR'd within a
// group and AND'd across groups, each value a "field:value" string.
func buildFacets(opts SearchOptions) [][]string {
	var groups [][]string

	for _, field := range facetFields(opts.Facets) {
		group := make([]string, 0, len(opts.Facets[field]))
		for _, value := range opts.Facets[field] {
			if field == "project_type" && !allowedProjectTypes[value] {
				continue
			}
			group = append(group, fmt.Sprintf("%s:%s", field, value))
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}

	if len(opts.Categories) > 0 {
		group := make([]string, 0, len(opts.Categories))
		for _, category := range opts.Categories {
			group = append(group, "categories:"+category)
		}
		groups = append(groups, group)
	}

	if opts.Loader != "" {
		groups = append(groups, []string{"categories:" + opts.Loader})
	}

	// Client-side-only projects can never end up in a server bundle.
	groups = append(groups, []string{"server_side!=unsupported"})
	return groups
}

// Search runs a faceted project search.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*models.SearchResults, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	facets, err := json.Marshal(buildFacets(opts))
	if err != nil {
		return nil, fmt.Errorf("encoding facets: %w", err)
	}

	var result models.SearchResults
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":  opts.Query,
			"limit":  fmt.Sprint(limit),
			"offset": fmt.Sprint(opts.Offset),
			"facets": string(facets),
		}).
		SetResult(&result).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("searching projects: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("content API returned %s", resp.Status())
	}
	return &result, nil
}

// Projects fetches several projects by id in one call.
func (c *Client) Projects(ctx context.Context, ids []string) ([]models.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encoding project ids: %w", err)
	}

	var projects []models.Project
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ids", string(encoded)).
		SetResult(&projects).
		Get("/projects")
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("content API returned %s", resp.Status())
	}
	return projects, nil
}

// ProjectVersions lists every published version of a project.
func (c *Client) ProjectVersions(ctx context.Context, projectID string) ([]models.ProjectVersion, error) {
	var versions []models.ProjectVersion
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&versions).
		Get("/project/" + url.PathEscape(projectID) + "/version")
	if err != nil {
		return nil, fmt.Errorf("fetching project versions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("content API returned %s", resp.Status())
	}
	return versions, nil
}

// Categories lists the category tag catalog.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	resp, err := c.http.R().SetContext(ctx).SetResult(&categories).Get("/tag/category")
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("content API returned %s", resp.Status())
	}
	return categories, nil
}

// GameVersionFilter controls which release channels GameVersions keeps.
type GameVersionFilter struct {
	IncludeSnapshots bool
	IncludeBeta      bool
	IncludeAlpha     bool
}

// GameVersions lists game version strings, releases always included.
func (c *Client) GameVersions(ctx context.Context, filter GameVersionFilter) ([]string, error) {
	var all []models.GameVersion
	resp, err := c.http.R().SetContext(ctx).SetResult(&all).Get("/tag/game_version")
	if err != nil {
		return nil, fmt.Errorf("fetching game versions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("content API returned %s", resp.Status())
	}

	versions := make([]string, 0, len(all))
	for _, v := range all {
		switch v.VersionType {
		case "release":
		case "snapshot":
			if !filter.IncludeSnapshots {
				continue
			}
		case "beta":
			if !filter.IncludeBeta {
				continue
			}
		case "alpha":
			if !filter.IncludeAlpha {
				continue
			}
		default:
			continue
		}
		versions = append(versions, v.Version)
	}
	return versions, nil
}

// Loaders lists loader tags that can host modpacks or datapacks.
func (c *Client) Loaders(ctx context.Context) ([]models.Loader, error) {
	var all []models.Loader
	resp, err := c.http.R().SetContext(ctx).SetResult(&all).Get("/tag/loader")
	if err != nil {
		return nil, fmt.Errorf("fetching loaders: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("content API returned %s", resp.Status())
	}

	loaders := make([]models.Loader, 0, len(all))
	for _, l := range all {
		for _, pt := range l.SupportedProjectTypes {
			if pt == "modpack" || pt == "datapack" {
				loaders = append(loaders, l)
				break
			}
		}
	}
	return loaders, nil
}

// GeyserMods finds Geyser and Floodgate versions compatible with the chosen
// game version and loader, for the Bedrock auto-include option.
func (c *Client) GeyserMods(ctx context.Context, version, loader string) ([]models.ProjectVersion, error) {
	var mods []models.ProjectVersion
	for _, id := range []string{geyserProjectID, floodgateProjectID} {
		versions, err := c.ProjectVersions(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, v := range versions {
			if containsString(v.GameVersions, version) && containsString(v.Loaders, loader) {
				mods = append(mods, v)
				break
			}
		}
	}
	return mods, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// facetFields returns the facet map's keys in stable order.
func facetFields(facets map[string][]string) []string {
	fields := make([]string, 0, len(facets))
	for field := range facets {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
