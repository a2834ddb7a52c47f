// Package handlers contains the HTTP handlers for the bundler API.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ServerwaveHost/wave-server-bundler/internal/bundle"
	"github.com/ServerwaveHost/wave-server-bundler/internal/models"
	"github.com/ServerwaveHost/wave-server-bundler/internal/modrinth"
	"github.com/ServerwaveHost/wave-server-bundler/internal/props"
	"github.com/ServerwaveHost/wave-server-bundler/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	svc *service.BundlerService
}

// NewHandler creates a new handler instance
func NewHandler(svc *service.BundlerService) *Handler {
	return &Handler{svc: svc}
}

// APIResponse is the standard API response wrapper
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		},
	})
}

// GetGameVersions handles GET /tags/game_versions
// Query params: snapshots, beta, alpha
func (h *Handler) GetGameVersions(c *gin.Context) {
	filter := modrinth.GameVersionFilter{
		IncludeSnapshots: c.Query("snapshots") == "true",
		IncludeBeta:      c.Query("beta") == "true",
		IncludeAlpha:     c.Query("alpha") == "true",
	}

	versions, err := h.svc.GetGameVersions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadGateway, APIResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    versions,
	})
}

// GetLoaders handles GET /tags/loaders
func (h *Handler) GetLoaders(c *gin.Context) {
	loaders, err := h.svc.GetLoaders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, APIResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    loaders,
	})
}

// GetCategories handles GET /tags/categories
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.svc.GetCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, APIResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    categories,
	})
}

// Search handles GET /search
// Query params: q, project_type, loader, category (repeatable), limit, offset
func (h *Handler) Search(c *gin.Context) {
	opts := modrinth.SearchOptions{
		Query:      c.Query("q"),
		Categories: c.QueryArray("category"),
		Loader:     c.Query("loader"),
	}

	if projectType := c.Query("project_type"); projectType != "" {
		opts.Facets = map[string][]string{"project_type": {projectType}}
	}
	if version := c.Query("version"); version != "" {
		if opts.Facets == nil {
			opts.Facets = map[string][]string{}
		}
		opts.Facets["versions"] = []string{version}
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			opts.Limit = limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			opts.Offset = offset
		}
	}

	results, err := h.svc.Search(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusBadGateway, APIResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    results,
	})
}

// GetProjects handles GET /projects?ids=a,b,c
func (h *Handler) GetProjects(c *gin.Context) {
	ids := c.QueryArray("ids")
	if len(ids) == 1 && strings.Contains(ids[0], ",") {
		ids = strings.Split(ids[0], ",")
	}

	projects, err := h.svc.GetProjects(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusBadGateway, APIResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    projects,
	})
}

// GetProjectVersions handles GET /project/:id/versions
func (h *Handler) GetProjectVersions(c *gin.Context) {
	projectID := c.Param("id")

	versions, err := h.svc.GetProjectVersions(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusBadGateway, APIResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    versions,
	})
}

// CheckCompatibility handles POST /compatibility. An incompatible selection
// is a successful response carrying the reports, never an HTTP error.
func (h *Handler) CheckCompatibility(c *gin.Context) {
	var sel models.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "invalid selection payload",
		})
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    h.svc.CheckCompatibility(sel),
	})
}

// GetProperties handles GET /properties/:version. A prior profile may be
// POSTed in future; for GET the synthesized defaults are returned.
func (h *Handler) GetProperties(c *gin.Context) {
	version := c.Param("version")

	profile := h.svc.GetProperties(c.Request.Context(), version, nil)
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: gin.H{
			"version":    version,
			"properties": profile,
			"rendered":   props.Render(profile),
		},
	})
}

// SynthesizeProperties handles POST /properties/:version with a prior
// profile body, carrying compatible overrides into the target version.
func (h *Handler) SynthesizeProperties(c *gin.Context) {
	version := c.Param("version")

	var prior props.Profile
	if err := c.ShouldBindJSON(&prior); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "invalid properties payload",
		})
		return
	}

	profile := h.svc.GetProperties(c.Request.Context(), version, prior)
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: gin.H{
			"version":    version,
			"properties": profile,
			"rendered":   props.Render(profile),
		},
	})
}

// GetGamerules handles GET /gamerules/:version
func (h *Handler) GetGamerules(c *gin.Context) {
	version := c.Param("version")

	rules, err := h.svc.GetGamerules(c.Request.Context(), version)
	if err != nil {
		c.JSON(http.StatusBadGateway, APIResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    rules,
	})
}

// Build handles POST /build and streams the finished bundle as a zip
// attachment.
func (h *Handler) Build(c *gin.Context) {
	var params service.BuildParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "invalid build payload",
		})
		return
	}

	result, err := h.svc.Build(c.Request.Context(), params, nil)
	if err != nil {
		status := http.StatusInternalServerError

		var verr *bundle.ValidationError
		var rerr *bundle.ResolutionError
		switch {
		case errors.As(err, &verr):
			status = http.StatusBadRequest
		case errors.As(err, &rerr):
			status = http.StatusNotFound
		}

		c.JSON(status, APIResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Header("Content-Length", strconv.Itoa(len(result.Archive)))
	c.Data(http.StatusOK, "application/zip", result.Archive)
}
