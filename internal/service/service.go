// Package service wires the resolvers, clients and build pipeline into the
// operations the HTTP and CLI front-ends call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ServerwaveHost/wave-server-bundler/internal/bundle"
	"github.com/ServerwaveHost/wave-server-bundler/internal/cache"
	"github.com/ServerwaveHost/wave-server-bundler/internal/compat"
	"github.com/ServerwaveHost/wave-server-bundler/internal/gamerule"
	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
	"github.com/ServerwaveHost/wave-server-bundler/internal/modrinth"
	"github.com/ServerwaveHost/wave-server-bundler/internal/props"
	"github.com/ServerwaveHost/wave-server-bundler/internal/startup"
)

// ContentClient is the content-platform API surface the service needs.
type ContentClient interface {
	Search(ctx context.Context, opts modrinth.SearchOptions) (*models.SearchResults, error)
	Projects(ctx context.Context, ids []string) ([]models.Project, error)
	ProjectVersions(ctx context.Context, projectID string) ([]models.ProjectVersion, error)
	Categories(ctx context.Context) ([]models.Category, error)
	GameVersions(ctx context.Context, filter modrinth.GameVersionFilter) ([]string, error)
	Loaders(ctx context.Context) ([]models.Loader, error)
	GeyserMods(ctx context.Context, version, loader string) ([]models.ProjectVersion, error)
}

// RuleSource supplies the gamerule change history and metadata.
type RuleSource interface {
	GameRuleHistory(ctx context.Context) ([]models.GameRuleEvent, map[string]models.GameRuleMetadata, error)
}

// BundlerService provides the high-level bundler operations.
type BundlerService struct {
	content  ContentClient
	rules    RuleSource
	pipeline *bundle.Pipeline
	cache    cache.Cache
}

// NewBundlerService creates a new service instance.
func NewBundlerService(content ContentClient, rules RuleSource, pipeline *bundle.Pipeline, c cache.Cache) *BundlerService {
	return &BundlerService{
		content:  content,
		rules:    rules,
		pipeline: pipeline,
		cache:    c,
	}
}

// GetGameVersions returns game version strings, cached per filter.
func (s *BundlerService) GetGameVersions(ctx context.Context, filter modrinth.GameVersionFilter) ([]string, error) {
	cacheKey := fmt.Sprintf("game_versions:%t:%t:%t", filter.IncludeSnapshots, filter.IncludeBeta, filter.IncludeAlpha)

	var versions []string
	if err := s.cache.Get(ctx, cacheKey, &versions); err == nil {
		return versions, nil
	}

	versions, err := s.content.GameVersions(ctx, filter)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, cacheKey, versions)
	return versions, nil
}

// GetLoaders returns loader tags able to host server content, cached.
func (s *BundlerService) GetLoaders(ctx context.Context) ([]models.Loader, error) {
	var loaders []models.Loader
	if err := s.cache.Get(ctx, "loaders", &loaders); err == nil {
		return loaders, nil
	}

	loaders, err := s.content.Loaders(ctx)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, "loaders", loaders)
	return loaders, nil
}

// GetCategories returns the category tag catalog, cached.
func (s *BundlerService) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.cache.Get(ctx, "categories", &categories); err == nil {
		return categories, nil
	}

	categories, err := s.content.Categories(ctx)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, "categories", categories)
	return categories, nil
}

// Search runs a project search. Results are not cached; queries rarely
// repeat within a TTL window.
func (s *BundlerService) Search(ctx context.Context, opts modrinth.SearchOptions) (*models.SearchResults, error) {
	return s.content.Search(ctx, opts)
}

// GetProjects fetches several projects by id in one upstream call.
func (s *BundlerService) GetProjects(ctx context.Context, ids []string) ([]models.Project, error) {
	return s.content.Projects(ctx, ids)
}

// GetProjectVersions returns a project's published versions, cached.
func (s *BundlerService) GetProjectVersions(ctx context.Context, projectID string) ([]models.ProjectVersion, error) {
	cacheKey := "project_versions:" + projectID

	var versions []models.ProjectVersion
	if err := s.cache.Get(ctx, cacheKey, &versions); err == nil {
		return versions, nil
	}

	versions, err := s.content.ProjectVersions(ctx, projectID)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, cacheKey, versions)
	return versions, nil
}

// CompatibilityResult pairs the two resolver reports.
type CompatibilityResult struct {
	Versions compat.Report `json:"versions"`
	Loaders  compat.Report `json:"loaders"`
}

// CheckCompatibility runs both resolvers over the selection. Incompatibility
// is data, not an error.
func (s *BundlerService) CheckCompatibility(sel models.Selection) CompatibilityResult {
	return CompatibilityResult{
		Versions: compat.ResolveVersions(sel),
		Loaders:  compat.ResolveLoaders(sel),
	}
}

// GetProperties synthesizes the server.properties profile for a version,
// carrying over compatible prior overrides.
func (s *BundlerService) GetProperties(_ context.Context, version string, prior props.Profile) props.Profile {
	return props.Synthesize(version, prior)
}

// gameRuleHistory bundles the cached wiki scrape result.
type gameRuleHistory struct {
	Events   []models.GameRuleEvent             `json:"events"`
	Metadata map[string]models.GameRuleMetadata `json:"metadata"`
}

// GetGamerules resolves the gamerules active at a version, with metadata.
// The scraped history is cached; the page changes rarely.
func (s *BundlerService) GetGamerules(ctx context.Context, version string) ([]models.GameRuleMetadata, error) {
	if s.rules == nil {
		return nil, errors.New("gamerule history source not configured")
	}

	var history gameRuleHistory
	if err := s.cache.Get(ctx, "gamerule_history", &history); err != nil {
		events, metadata, err := s.rules.GameRuleHistory(ctx)
		if err != nil {
			return nil, err
		}
		history = gameRuleHistory{Events: events, Metadata: metadata}
		_ = s.cache.Set(ctx, "gamerule_history", history)
	}

	return gamerule.Resolve(history.Events, history.Metadata, version), nil
}

// BuildParams is a build order from a front-end.
type BuildParams struct {
	Selection     models.Selection       `json:"selection"`
	Version       string                 `json:"version"`
	Loader        string                 `json:"loader"`
	EULAAccepted  bool                   `json:"eula_accepted"`
	Properties    props.Profile          `json:"properties,omitempty"`
	StartScript   string                 `json:"start_script,omitempty"`
	UseAikarFlags bool                   `json:"use_aikar_flags"`
	RAMMb         int                    `json:"ram_mb"`
	Gamerules     []models.GameruleEntry `json:"gamerules,omitempty"`
	ProjectTitle  string                 `json:"project_title,omitempty"`
	IncludeGeyser bool                   `json:"include_geyser"`
}

// Build fills in derived configuration (properties profile, start script,
// Bedrock support mods) and runs the pipeline.
func (s *BundlerService) Build(ctx context.Context, params BuildParams, progress bundle.ProgressFunc) (*bundle.Result, error) {
	req := bundle.Request{
		Selection:    params.Selection,
		Version:      params.Version,
		Loader:       params.Loader,
		EULAAccepted: params.EULAAccepted,
		Properties:   params.Properties,
		StartScript:  params.StartScript,
		Gamerules:    params.Gamerules,
		ProjectTitle: params.ProjectTitle,
	}

	if req.Properties == nil {
		req.Properties = props.Synthesize(params.Version, nil)
	}
	if req.StartScript == "" {
		ramMb := params.RAMMb
		if ramMb <= 0 {
			ramMb = 4096
		}
		req.StartScript = startup.Script(startup.ScriptOptions{
			GameVersion: params.Version,
			RAMMb:       ramMb,
			AikarFlags:  params.UseAikarFlags,
		})
	}

	if params.IncludeGeyser {
		geyserMods, err := s.content.GeyserMods(ctx, params.Version, params.Loader)
		if err != nil {
			// Bedrock support is an extra; a lookup failure should not sink
			// the whole build.
			log.Printf("Warning: Geyser lookup failed: %v", err)
		} else {
			req.Selection.Mods = append(append([]models.ProjectVersion{}, req.Selection.Mods...), geyserMods...)
		}
	}

	return s.pipeline.Run(ctx, req, progress)
}
