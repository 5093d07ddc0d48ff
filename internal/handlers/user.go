package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/snapline/backend/internal/auth"
	"github.com/snapline/backend/internal/database"
	"github.com/snapline/backend/internal/models"
	"github.com/snapline/backend/internal/util"
	"github.com/snapline/backend/internal/websocket"
	"gorm.io/gorm"
)

// suggestedUsersLimit caps the suggested-users response.
const suggestedUsersLimit = 20

// UpdateProfileRequest carries the editable profile fields. Multipart
// form so an avatar file can ride along.
type UpdateProfileRequest struct {
	DisplayName string `form:"display_name"`
	Bio         string `form:"bio"`
	Gender      string `form:"gender"`
}

// GetProfile returns a user's public profile with counts and posts
// GET /api/v1/users/:username
func (h *Handlers) GetProfile(c *gin.Context) {
	username := c.Param("username")

	user, err := h.authService.FindUserByHandle(username)
	if errors.Is(err, auth.ErrUserNotFound) {
		util.RespondNotFound(c, "user")
		return
	} else if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	var posts []models.Post
	if err := database.DB.Where("author_id = ?", user.ID).
		Order("created_at DESC").Find(&posts).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	profile := user.PublicProfile()
	profile["follower_count"] = user.FollowerCount
	profile["following_count"] = user.FollowingCount
	profile["post_count"] = len(posts)
	profile["posts"] = posts

	// Whether the caller already follows this profile
	if callerID, ok := c.Get(auth.ContextUserIDKey); ok {
		var count int64
		database.DB.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", callerID, user.ID).Count(&count)
		profile["is_following"] = count > 0
	}

	util.RespondOK(c, "profile", profile)
}

// UpdateProfile edits the caller's profile, optionally replacing the avatar
// PUT /api/v1/accounts/edit
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.Gender != "" && req.Gender != models.GenderMale && req.Gender != models.GenderFemale {
		util.RespondValidationError(c, "gender", "gender must be male or female")
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != "" {
		updates["display_name"] = req.DisplayName
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}
	if req.Gender != "" {
		updates["gender"] = req.Gender
	}

	if file, header, err := c.Request.FormFile("avatar"); err == nil {
		defer file.Close()
		result, err := h.uploader.UploadAvatar(c.Request.Context(), file, header, user.ID)
		if err != nil {
			util.RespondBadRequest(c, "avatar upload failed: "+err.Error())
			return
		}
		updates["avatar_url"] = result.URL
	}

	if len(updates) == 0 {
		util.RespondBadRequest(c, "nothing to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	util.RespondOK(c, "profile updated", user)
}

// SuggestedUsers returns people the caller does not follow yet
// GET /api/v1/accounts/suggested-users
func (h *Handlers) SuggestedUsers(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var users []models.User
	err := database.DB.
		Where("id <> ?", userID).
		Where("id NOT IN (?)", database.DB.Model(&models.Follow{}).
			Select("followee_id").Where("follower_id = ?", userID)).
		Order("follower_count DESC").
		Limit(suggestedUsersLimit).
		Find(&users).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	profiles := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].PublicProfile())
	}

	util.RespondOK(c, "suggested users", profiles)
}

// FollowUnfollow toggles the follow edge from the caller to :username.
// The row insert/delete and both counter updates run in one
// transaction, so the graph and the cached counts cannot diverge.
// PUT /api/v1/accounts/follow-unfollow/:username
func (h *Handlers) FollowUnfollow(c *gin.Context) {
	caller, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	username := c.Param("username")
	if strings.EqualFold(username, caller.Username) {
		util.RespondBadRequest(c, "you cannot follow yourself")
		return
	}

	target, err := h.authService.FindUserByHandle(username)
	if errors.Is(err, auth.ErrUserNotFound) {
		util.RespondNotFound(c, "user")
		return
	} else if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	var following bool
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Follow
		err := tx.Where("follower_id = ? AND followee_id = ?", caller.ID, target.ID).
			First(&existing).Error

		switch {
		case err == nil:
			// Unfollow
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", caller.ID).
				UpdateColumn("following_count", gorm.Expr("GREATEST(following_count - 1, 0)")).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
				UpdateColumn("follower_count", gorm.Expr("GREATEST(follower_count - 1, 0)")).Error; err != nil {
				return err
			}
			following = false
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			// Follow
			follow := models.Follow{FollowerID: caller.ID, FolloweeID: target.ID}
			if err := tx.Create(&follow).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", caller.ID).
				UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
				return err
			}
			following = true
			return nil

		default:
			return err
		}
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if following && h.wsHandler != nil {
		h.wsHandler.NotifyFollow(target.ID, &websocket.FollowPayload{
			FollowerID:       caller.ID,
			FollowerUsername: caller.Username,
		})
	}

	message := "unfollowed"
	if following {
		message = "followed"
	}

	util.RespondOK(c, message, gin.H{
		"following": following,
		"user_id":   target.ID,
	})
}
