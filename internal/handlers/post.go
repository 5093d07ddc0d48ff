package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/snapline/backend/internal/auth"
	"github.com/snapline/backend/internal/cache"
	"github.com/snapline/backend/internal/database"
	"github.com/snapline/backend/internal/logger"
	"github.com/snapline/backend/internal/metrics"
	"github.com/snapline/backend/internal/models"
	"github.com/snapline/backend/internal/util"
	"github.com/snapline/backend/internal/websocket"
	"gorm.io/gorm"
)

const (
	// maxPostImages caps how many images one post can carry.
	maxPostImages = 10

	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

// CommentRequest is the payload for adding a comment
type CommentRequest struct {
	Text string `json:"text" binding:"required,min=1,max=2000"`
}

// PostView is a feed entry: the post plus its author preview and the
// set of user IDs who liked it.
type PostView struct {
	models.Post
	LikedBy []string `json:"liked_by"`
}

// CreatePost creates a photo post from a multipart form with up to 10
// images. The image check runs before anything touches storage.
// POST /api/v1/posts/create-post
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		util.RespondBadRequest(c, "multipart form required")
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		util.RespondValidationError(c, "images", "at least one image is required")
		return
	}
	if len(files) > maxPostImages {
		util.RespondValidationError(c, "images", "a post can carry at most 10 images")
		return
	}

	caption := strings.TrimSpace(c.PostForm("caption"))

	urls := make([]string, 0, len(files))
	keys := make([]string, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			util.RespondBadRequest(c, "unreadable image: "+header.Filename)
			return
		}

		result, err := h.uploader.UploadPostImage(c.Request.Context(), file, header, user.ID)
		file.Close()
		if err != nil {
			// Orphaned uploads from this request get cleaned up
			for _, key := range keys {
				if delErr := h.uploader.DeleteFile(c.Request.Context(), key); delErr != nil {
					logger.WarnWithFields("Failed to delete orphaned upload "+key, delErr)
				}
			}
			util.RespondBadRequest(c, "image upload failed: "+err.Error())
			return
		}
		urls = append(urls, result.URL)
		keys = append(keys, result.Key)
	}

	post := models.Post{
		Caption:  caption,
		Images:   urls,
		AuthorID: user.ID,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if err := h.redis.InvalidateFeed(c.Request.Context()); err != nil {
		logger.WarnWithFields("Failed to invalidate feed cache", err)
	}

	post.Author = *user
	util.RespondCreated(c, "post created", post)
}

// GetAllPosts returns the global feed, newest first
// GET /api/v1/posts
func (h *Handlers) GetAllPosts(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultFeedLimit)))
	if limit < 1 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}

	cacheKey := cache.FeedKey(page, limit)
	var cached []PostView
	if hit, err := h.redis.GetJSON(c.Request.Context(), cacheKey, &cached); err != nil {
		logger.WarnWithFields("Feed cache read failed", err)
	} else if hit {
		metrics.RecordCacheHit("feed")
		util.RespondOK(c, "posts", cached)
		return
	}
	metrics.RecordCacheMiss("feed")

	var posts []models.Post
	err := database.DB.Preload("Author").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	views, err := h.buildPostViews(posts)
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if err := h.redis.SetJSON(c.Request.Context(), cacheKey, views, cache.FeedTTL); err != nil {
		logger.WarnWithFields("Feed cache write failed", err)
	}

	util.RespondOK(c, "posts", views)
}

// GetUserPosts returns one user's posts, newest first
// GET /api/v1/users/:username/posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	user, err := h.authService.FindUserByHandle(c.Param("username"))
	if errors.Is(err, auth.ErrUserNotFound) {
		util.RespondNotFound(c, "user")
		return
	} else if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	var posts []models.Post
	if err := database.DB.Preload("Author").
		Where("author_id = ?", user.ID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	views, err := h.buildPostViews(posts)
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	util.RespondOK(c, "posts", views)
}

// LikeUnlike toggles the caller's like on a post. Membership check and
// row change run in one transaction.
// PUT /api/v1/posts/:id/like
func (h *Handlers) LikeUnlike(c *gin.Context) {
	caller, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var liked bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.PostLike
		err := tx.Where("post_id = ? AND user_id = ?", postID, caller.ID).
			First(&existing).Error

		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := tx.Model(&post).
				UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - 1, 0)")).Error; err != nil {
				return err
			}
			liked = false
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.PostLike{PostID: postID, UserID: caller.ID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			if err := tx.Model(&post).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
				return err
			}
			liked = true
			return nil

		default:
			return err
		}
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	var likeCount int64
	database.DB.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&likeCount)

	if liked && post.AuthorID != caller.ID && h.wsHandler != nil {
		h.wsHandler.NotifyLike(post.AuthorID, &websocket.LikePayload{
			PostID:    postID,
			UserID:    caller.ID,
			Username:  caller.Username,
			LikeCount: int(likeCount),
		})
	}

	if err := h.redis.InvalidateFeed(c.Request.Context()); err != nil {
		logger.WarnWithFields("Failed to invalidate feed cache", err)
	}

	message := "unliked"
	if liked {
		message = "liked"
	}
	util.RespondOK(c, message, gin.H{
		"liked":      liked,
		"like_count": likeCount,
	})
}

// CreateComment adds a comment to a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	caller, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "text", "comment text is required")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	comment := models.Comment{
		Text:     strings.TrimSpace(req.Text),
		AuthorID: caller.ID,
		PostID:   postID,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&post).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if post.AuthorID != caller.ID && h.wsHandler != nil {
		h.wsHandler.NotifyComment(post.AuthorID, &websocket.CommentPayload{
			PostID:    postID,
			CommentID: comment.ID,
			UserID:    caller.ID,
			Username:  caller.Username,
			Text:      comment.Text,
		})
	}

	comment.Author = *caller
	util.RespondCreated(c, "comment added", comment)
}

// GetComments lists a post's comments, oldest first
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var comments []models.Comment
	if err := database.DB.Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		util.RespondInternalError(c, err)
		return
	}

	util.RespondOK(c, "comments", comments)
}

// ToggleBookmark saves or unsaves a post for the caller
// PUT /api/v1/posts/:id/bookmark
func (h *Handlers) ToggleBookmark(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var bookmarked bool
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Bookmark
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).
			First(&existing).Error

		switch {
		case err == nil:
			bookmarked = false
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			bookmarked = true
			return tx.Create(&models.Bookmark{UserID: userID, PostID: postID}).Error
		default:
			return err
		}
	})
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	message := "bookmark removed"
	if bookmarked {
		message = "bookmarked"
	}
	util.RespondOK(c, message, gin.H{"bookmarked": bookmarked})
}

// GetBookmarks lists the caller's saved posts, newest save first
// GET /api/v1/accounts/bookmarks
func (h *Handlers) GetBookmarks(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var posts []models.Post
	err := database.DB.Preload("Author").
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC").
		Find(&posts).Error
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	views, err := h.buildPostViews(posts)
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	util.RespondOK(c, "bookmarks", views)
}

// buildPostViews attaches the liked-by user-id set to each post.
func (h *Handlers) buildPostViews(posts []models.Post) ([]PostView, error) {
	views := make([]PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]string, len(posts))
	for i := range posts {
		postIDs[i] = posts[i].ID
	}

	var likes []models.PostLike
	if err := database.DB.Where("post_id IN ?", postIDs).Find(&likes).Error; err != nil {
		return nil, err
	}

	likedBy := make(map[string][]string, len(posts))
	for _, like := range likes {
		likedBy[like.PostID] = append(likedBy[like.PostID], like.UserID)
	}

	for i := range posts {
		users := likedBy[posts[i].ID]
		if users == nil {
			users = []string{}
		}
		views = append(views, PostView{Post: posts[i], LikedBy: users})
	}
	return views, nil
}
