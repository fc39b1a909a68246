package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/sanskrithi-site/app/metrics"
	"github.com/lysyi3m/sanskrithi-site/app/session"
)

// SessionCookie carries the admin token for browser clients
const SessionCookie = "sanskrithi_session"

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, m *metrics.Metrics, debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health", "/metrics"},
	}))

	r.Use(gin.Recovery())

	if m != nil {
		r.Use(m.Middleware())
	}

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.Use(sessionMiddleware(handler.sessions))

	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/", handler.GetIndex)
	r.GET("/health", handler.GetHealth)
	if handler.metrics != nil {
		r.GET("/metrics", gin.WrapH(handler.metrics))
	}

	r.GET("/blog/rss.xml", handler.GetBlogFeed)
	r.GET("/ws/collections/:name", handler.ListingSocket)

	api := r.Group("/api")
	{
		api.GET("/routes", handler.GetRoutes)
		api.GET("/routes/resolve", handler.ResolveRoute)

		api.GET("/collections/:name", handler.GetListing)
		api.GET("/collections/:name/items/:id", handler.GetItem)
		api.GET("/collections/:name/stream", handler.StreamListing)

		api.POST("/admin/login", handler.Login)
		api.POST("/admin/logout", handler.Logout)

		admin := api.Group("/admin")
		admin.Use(requireSession())
		{
			admin.GET("/session", handler.GetSession)
			admin.POST("/collections/:name", handler.CreateItem)
			admin.PUT("/collections/:name/:id", handler.UpdateItem)
			admin.DELETE("/collections/:name/:id", handler.DeleteItem)
			admin.POST("/uploads", handler.UploadImage)
		}
	}

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// sessionMiddleware attaches the caller's session to the request context.
// Missing or invalid tokens yield an anonymous session.
func sessionMiddleware(sessions SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.Anonymous()

		if token := requestToken(c); token != "" {
			if authenticated, err := sessions.Authenticate(token); err == nil {
				s = authenticated
			}
		}

		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// requireSession guards admin endpoints
func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := session.Guard(session.FromContext(c.Request.Context()).Authenticated)
		if !decision.Allow {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "Authentication required",
				"redirect": decision.Redirect,
			})
			return
		}

		c.Next()
	}
}

// requestToken reads the token from Authorization: Bearer or the session cookie
func requestToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}

	return ""
}
