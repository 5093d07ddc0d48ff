package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/snapline/backend/internal/database"
	"github.com/snapline/backend/internal/logger"
	"github.com/snapline/backend/internal/models"
	"github.com/snapline/backend/internal/util"
	"go.uber.org/zap"
)

// Handler handles WebSocket HTTP upgrade requests
type Handler struct {
	hub *Hub
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleWebSocket upgrades the HTTP connection. The client identifies
// itself with the userId query parameter; a handshake without it is
// rejected before the upgrade.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		util.RespondBadRequest(c, "userId query parameter is required")
		return
	}

	// Username is cosmetic in socket frames; missing accounts still
	// get tracked under their claimed ID.
	username := ""
	var user models.User
	if err := database.DB.Select("username").First(&user, "id = ?", userID).Error; err == nil {
		username = user.Username
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // TODO: restrict origins once the web client's domains are final
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, userID, username, uuid.New().String())
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	_ = client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to Snapline!",
		Data: map[string]interface{}{
			"user_id":     userID,
			"server_time": time.Now().UTC().UnixMilli(),
			"session_id":  client.ConnID,
		},
	}))

	go client.WritePump()
	client.ReadPump() // blocks until the client disconnects
}

// HandleMetrics returns WebSocket metrics (for monitoring)
func (h *Handler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket":    h.hub.GetMetrics(),
		"online_users": h.hub.GetOnlineUsers(),
		"timestamp":    time.Now().UTC(),
	})
}

// HandleOnlineStatus checks if specific users are online
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "user_ids is required")
		return
	}

	statuses := make(map[string]bool)
	for _, userID := range req.UserIDs {
		statuses[userID] = h.hub.IsUserOnline(userID)
	}

	util.RespondOK(c, "online status", gin.H{
		"statuses":  statuses,
		"timestamp": time.Now().UTC(),
	})
}

// NotifyDirectMessage pushes a new DM to the recipient's sockets.
func (h *Handler) NotifyDirectMessage(recipientID string, payload *DirectMessagePayload) {
	h.hub.SendToUser(recipientID, NewMessage(MessageTypeNewMessage, payload))
}

// NotifyLike tells a post author their post was liked.
func (h *Handler) NotifyLike(authorID string, payload *LikePayload) {
	h.hub.SendToUser(authorID, NewMessage(MessageTypePostLiked, payload))
}

// NotifyComment tells a post author about a new comment.
func (h *Handler) NotifyComment(authorID string, payload *CommentPayload) {
	h.hub.SendToUser(authorID, NewMessage(MessageTypeNewComment, payload))
}

// NotifyFollow tells a user they gained a follower.
func (h *Handler) NotifyFollow(followeeID string, payload *FollowPayload) {
	h.hub.SendToUser(followeeID, NewMessage(MessageTypeNewFollower, payload))
}

// Shutdown gracefully shuts down the WebSocket handler
func (h *Handler) Shutdown(ctx context.Context) error {
	return h.hub.Shutdown(ctx)
}

// GetHub returns the hub for external access
func (h *Handler) GetHub() *Hub {
	return h.hub
}
