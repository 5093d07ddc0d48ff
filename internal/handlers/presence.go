package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/snapline/backend/internal/util"
)

// GetOnlineUsers returns the current presence snapshot
// GET /api/v1/ws/online
func (h *Handlers) GetOnlineUsers(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	users := []string{}
	if h.wsHandler != nil {
		users = h.wsHandler.GetHub().GetOnlineUsers()
	}

	util.RespondOK(c, "online users", gin.H{"users": users})
}
