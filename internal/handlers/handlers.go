package handlers

import (
	"github.com/snapline/backend/internal/auth"
	"github.com/snapline/backend/internal/cache"
	"github.com/snapline/backend/internal/email"
	"github.com/snapline/backend/internal/storage"
	"github.com/snapline/backend/internal/websocket"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	authService *auth.Service
	uploader    storage.ImageUploader
	emailSender email.Sender
	redis       *cache.RedisClient
	wsHandler   *websocket.Handler

	cookieDomain string
	cookieSecure bool
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, uploader storage.ImageUploader) *Handlers {
	return &Handlers{
		authService:  authService,
		uploader:     uploader,
		cookieSecure: true,
	}
}

// SetWebSocketHandler sets the WebSocket handler for real-time notifications
func (h *Handlers) SetWebSocketHandler(ws *websocket.Handler) {
	h.wsHandler = ws
}

// SetEmailSender sets the transactional email sender
func (h *Handlers) SetEmailSender(sender email.Sender) {
	h.emailSender = sender
}

// SetRedisClient sets the cache client used for feed pages
func (h *Handlers) SetRedisClient(rc *cache.RedisClient) {
	h.redis = rc
}

// SetCookieConfig configures the session cookie scope. Secure defaults
// to true; local development turns it off.
func (h *Handlers) SetCookieConfig(domain string, secure bool) {
	h.cookieDomain = domain
	h.cookieSecure = secure
}
