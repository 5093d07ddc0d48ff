package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/snapline/backend/internal/database"
	"github.com/snapline/backend/internal/models"
	"github.com/snapline/backend/internal/util"
	"github.com/snapline/backend/internal/websocket"
	"gorm.io/gorm"
)

// SendMessageRequest is the payload for a direct message
type SendMessageRequest struct {
	Body string `json:"body" binding:"required,min=1,max=5000"`
}

// SendMessage delivers a direct message to user :id, lazily creating
// the conversation. Conversation creation and message insert share a
// transaction so a failed send never leaves an empty thread.
// POST /api/v1/messages/send-message/user/:id
func (h *Handlers) SendMessage(c *gin.Context) {
	caller, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	receiverID := c.Param("id")

	if receiverID == caller.ID {
		util.RespondBadRequest(c, "you cannot message yourself")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", "message body is required")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		util.RespondValidationError(c, "body", "message body is required")
		return
	}

	var receiver models.User
	if err := database.DB.First(&receiver, "id = ?", receiverID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var message models.Message
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		userA, userB := models.NormalizePair(caller.ID, receiverID)

		var conversation models.Conversation
		err := tx.Where("user_a_id = ? AND user_b_id = ?", userA, userB).
			First(&conversation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			conversation = models.Conversation{UserAID: userA, UserBID: userB}
			if err := tx.Create(&conversation).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		message = models.Message{
			ConversationID: conversation.ID,
			SenderID:       caller.ID,
			ReceiverID:     receiverID,
			Body:           body,
		}
		return tx.Create(&message).Error
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if h.wsHandler != nil {
		h.wsHandler.NotifyDirectMessage(receiverID, &websocket.DirectMessagePayload{
			MessageID:      message.ID,
			ConversationID: message.ConversationID,
			SenderID:       caller.ID,
			SenderUsername: caller.Username,
			Body:           body,
		})
	}

	util.RespondCreated(c, "message sent", message)
}

// GetConversation returns the message history with user :id, oldest
// first. No conversation yet is an empty list, not an error.
// GET /api/v1/messages/conversation/user/:id
func (h *Handlers) GetConversation(c *gin.Context) {
	callerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	peerID := c.Param("id")

	var peer models.User
	if err := database.DB.First(&peer, "id = ?", peerID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	userA, userB := models.NormalizePair(callerID, peerID)

	var conversation models.Conversation
	err := database.DB.Where("user_a_id = ? AND user_b_id = ?", userA, userB).
		First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondOK(c, "conversation", gin.H{
			"conversation": nil,
			"messages":     []models.Message{},
		})
		return
	} else if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	var messages []models.Message
	if err := database.DB.Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	util.RespondOK(c, "conversation", gin.H{
		"conversation": conversation,
		"messages":     messages,
	})
}
