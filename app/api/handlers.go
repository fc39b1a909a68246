package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/sanskrithi-site/app/content"
	"github.com/lysyi3m/sanskrithi-site/app/database"
	"github.com/lysyi3m/sanskrithi-site/app/session"
	"github.com/lysyi3m/sanskrithi-site/app/site"
	"github.com/lysyi3m/sanskrithi-site/app/store"
)

// listingWait bounds how long a one-shot listing request waits for its first snapshot
const listingWait = 10 * time.Second

func NewHandler(repo database.DocumentRepository, contentStore ContentStore,
	configCache *content.ConfigCache, sanitizer *content.Sanitizer,
	sessions SessionManager, images ImageProcessor,
	metricsHandler http.Handler, siteInfo SiteInfo) *Handler {
	return &Handler{
		repo:        repo,
		store:       contentStore,
		configCache: configCache,
		normalizer:  content.NewNormalizer(configCache),
		sanitizer:   sanitizer,
		generator:   content.NewGenerator(),
		sessions:    sessions,
		images:      images,
		metrics:     metricsHandler,
		site:        siteInfo,
	}
}

func (h *Handler) GetIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     h.site.Title,
		"version":     h.site.Version,
		"collections": content.CollectionNames(),
		"endpoints": map[string]string{
			"listing": "/api/collections/<name>?search=&category=&level=&limit=",
			"item":    "/api/collections/<name>/items/<id>",
			"stream":  "/api/collections/<name>/stream",
			"socket":  "/ws/collections/<name>",
			"routes":  "/api/routes",
			"feed":    "/blog/rss.xml",
			"health":  "/health",
		},
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	documents := make(map[string]int)
	for _, name := range content.CollectionNames() {
		if count, err := h.repo.Count(c.Request.Context(), name); err == nil {
			documents[name] = count
		}
	}
	health["documents"] = documents
	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": site.Routes()})
}

// ResolveRoute reports the route for a path and the guard decision for the caller
func (h *Handler) ResolveRoute(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		abortWithError(c, http.StatusBadRequest, "Missing path parameter", nil)
		return
	}

	resolution := site.Resolve(path, session.FromContext(c.Request.Context()))
	if !resolution.Found {
		c.JSON(http.StatusNotFound, resolution)
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// GetListing returns one filtered view of a collection
func (h *Handler) GetListing(c *gin.Context) {
	listing, ok := h.openListing(c.Request.Context(), c)
	if !ok {
		return
	}
	defer listing.Close()

	view, err := waitForView(c.Request.Context(), listing, listingWait)
	if err != nil {
		abortWithError(c, http.StatusGatewayTimeout, "Listing not ready", err)
		return
	}

	if view.Error != "" {
		c.JSON(http.StatusServiceUnavailable, view)
		return
	}

	c.Header("X-Collection-Version", strconv.FormatUint(view.Version, 10))
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetItem(c *gin.Context) {
	collection, ok := h.collection(c)
	if !ok {
		return
	}

	id := c.Param("id")
	doc, err := h.store.Get(c.Request.Context(), string(collection), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Item not found", nil)
			return
		}
		slog.Error("Database error", "operation", "get_item", "collection", collection, "id", id, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Database error", err)
		return
	}

	c.JSON(http.StatusOK, h.normalizer.Normalize(*doc))
}

func (h *Handler) GetBlogFeed(c *gin.Context) {
	config, err := h.configCache.GetConfig(content.Blogs)
	if err != nil {
		slog.Error("Collection configuration not found", "collection", content.Blogs, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	docs, err := h.store.List(c.Request.Context(), config.Query(0))
	if err != nil {
		slog.Error("Database error", "operation", "list_blogs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	records := h.normalizer.NormalizeAll(docs)

	rss, err := h.generator.Run(content.Channel{
		Title:       h.site.Title,
		Link:        h.site.BaseURL,
		Description: h.site.Description,
		Version:     h.site.Version,
	}, records)
	if err != nil {
		slog.Error("RSS generation error", "collection", content.Blogs, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(records)))

	c.String(http.StatusOK, rss)
}

// collection resolves the :name parameter, writing a 404 for unknown names
func (h *Handler) collection(c *gin.Context) (content.Collection, bool) {
	collection, err := content.ParseCollection(c.Param("name"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Collection not found", err)
		return "", false
	}
	return collection, true
}

// openListing subscribes a listing for the request's collection, limit and filters
func (h *Handler) openListing(ctx context.Context, c *gin.Context) (*content.Listing, bool) {
	collection, ok := h.collection(c)
	if !ok {
		return nil, false
	}

	config, err := h.configCache.GetConfig(collection)
	if err != nil {
		slog.Error("Collection configuration not found", "collection", collection, "error", err)
		abortWithError(c, http.StatusNotFound, "Collection configuration not found", err)
		return nil, false
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			abortWithError(c, http.StatusBadRequest, "Invalid limit parameter", err)
			return nil, false
		}
	}

	listing := content.NewListing(h.store, h.normalizer, config.Query(limit))
	listing.SetFilter(filterFromQuery(c))

	if err := listing.Open(ctx); err != nil {
		slog.Error("Failed to open listing", "collection", collection, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to open listing", err)
		return nil, false
	}

	return listing, true
}

func filterFromQuery(c *gin.Context) content.Filter {
	return content.Filter{
		Search:   c.Query("search"),
		Category: c.DefaultQuery("category", content.All),
		Level:    c.DefaultQuery("level", content.All),
	}
}

// waitForView blocks until the listing has left its loading state
func waitForView(ctx context.Context, listing *content.Listing, timeout time.Duration) (content.View, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		view := listing.View()
		if !view.Loading {
			return view, nil
		}

		select {
		case <-listing.Changes():
		case <-timer.C:
			return view, errors.New("timed out waiting for snapshot")
		case <-ctx.Done():
			return view, ctx.Err()
		}
	}
}

func statusForStoreError(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnknownCollection):
		return http.StatusNotFound
	case errors.Is(err, content.ErrTitleRequired):
		return http.StatusBadRequest
	case errors.Is(err, content.ErrDeleteNotConfirmed):
		return http.StatusPreconditionRequired
	default:
		return http.StatusInternalServerError
	}
}
