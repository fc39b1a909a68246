package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/sanskrithi-site/app/content"
	"github.com/lysyi3m/sanskrithi-site/app/database"
	"github.com/lysyi3m/sanskrithi-site/app/media"
	"github.com/lysyi3m/sanskrithi-site/app/session"
	"github.com/lysyi3m/sanskrithi-site/app/store"
)

type GeneratorInterface interface {
	Run(channel content.Channel, records []content.Record) (string, error)
}

var _ GeneratorInterface = (*content.Generator)(nil)

// ContentStore is the store surface used by handlers
type ContentStore interface {
	store.Subscriber
	store.Writer
	List(ctx context.Context, q store.Query) ([]database.Document, error)
}

var _ ContentStore = (*store.Store)(nil)

type SessionManager interface {
	Login(password, clientIP string) (session.Token, error)
	Authenticate(token string) (session.Session, error)
	Logout(token string) error
}

var _ SessionManager = (*session.Manager)(nil)

type ImageProcessor interface {
	MaxBytes() int64
	CheckSize(size int64) error
	Process(data []byte) (*media.Image, error)
}

var _ ImageProcessor = (*media.Processor)(nil)

// SiteInfo describes the site in feeds and the service index
type SiteInfo struct {
	Title       string
	Description string
	BaseURL     string
	Version     string
}

type Handler struct {
	repo        database.DocumentRepository
	store       ContentStore
	configCache *content.ConfigCache
	normalizer  *content.Normalizer
	sanitizer   *content.Sanitizer
	generator   GeneratorInterface
	sessions    SessionManager
	images      ImageProcessor
	metrics     http.Handler
	site        SiteInfo
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// listingAction is a filter change sent over the listing socket
type listingAction struct {
	Action string `json:"action"`
	Value  string `json:"value"`
}

func abortWithError(c *gin.Context, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}
