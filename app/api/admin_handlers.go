package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/sanskrithi-site/app/content"
	"github.com/lysyi3m/sanskrithi-site/app/media"
	"github.com/lysyi3m/sanskrithi-site/app/session"
)

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid login request", err)
		return
	}

	token, err := h.sessions.Login(req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrRateLimited):
			abortWithError(c, http.StatusTooManyRequests, "Too many login attempts", nil)
		case errors.Is(err, session.ErrInvalidCredentials):
			abortWithError(c, http.StatusUnauthorized, "Invalid credentials", nil)
		default:
			slog.Error("Login error", "error", err)
			abortWithError(c, http.StatusInternalServerError, "Login failed", err)
		}
		return
	}

	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, token.Value, maxAge, "/", "", c.Request.TLS != nil, true)

	c.JSON(http.StatusOK, token)
}

func (h *Handler) Logout(c *gin.Context) {
	token := requestToken(c)
	if token == "" {
		abortWithError(c, http.StatusUnauthorized, "No active session", nil)
		return
	}

	if err := h.sessions.Logout(token); err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session", err)
		return
	}

	c.SetCookie(SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, session.FromContext(c.Request.Context()))
}

func (h *Handler) CreateItem(c *gin.Context) {
	h.saveItem(c, "")
}

func (h *Handler) UpdateItem(c *gin.Context) {
	h.saveItem(c, c.Param("id"))
}

func (h *Handler) saveItem(c *gin.Context, id string) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid document", err)
		return
	}

	savedID, err := editor.Save(c.Request.Context(), id, fields)
	if err != nil {
		abortWithError(c, statusForStoreError(err), "Failed to save item", err)
		return
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"id": savedID})
}

// DeleteItem removes an item. The client must pass confirm=true.
func (h *Handler) DeleteItem(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}

	id := c.Param("id")
	confirmed := c.Query("confirm") == "true"

	if err := editor.Delete(c.Request.Context(), id, confirmed); err != nil {
		abortWithError(c, statusForStoreError(err), "Failed to delete item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// UploadImage checks the declared size before reading the file, then re-encodes
// the image as a data URL for the imageUrl field.
func (h *Handler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Missing image file", err)
		return
	}

	if err := h.images.CheckSize(fileHeader.Size); err != nil {
		abortWithError(c, http.StatusRequestEntityTooLarge, err.Error(), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Failed to read upload", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.images.MaxBytes()+1))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Failed to read upload", err)
		return
	}

	img, err := h.images.Process(data)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrTooLarge):
			abortWithError(c, http.StatusRequestEntityTooLarge, err.Error(), nil)
		case errors.Is(err, media.ErrNotAnImage):
			abortWithError(c, http.StatusUnsupportedMediaType, "Unsupported image", err)
		case errors.Is(err, media.ErrEmpty):
			abortWithError(c, http.StatusBadRequest, "Empty upload", err)
		default:
			slog.Error("Image processing error", "filename", fileHeader.Filename, "error", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to process image", err)
		}
		return
	}

	slog.Info("Image uploaded", "filename", fileHeader.Filename, "mime", img.MimeType, "width", img.Width, "height", img.Height)

	c.JSON(http.StatusOK, img)
}

func (h *Handler) editor(c *gin.Context) (*content.Editor, bool) {
	collection, ok := h.collection(c)
	if !ok {
		return nil, false
	}

	config, err := h.configCache.GetConfig(collection)
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Collection configuration not found", err)
		return nil, false
	}

	return content.NewEditor(h.store, config, h.sanitizer), true
}
