package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/snapline/backend/internal/auth"
	"github.com/snapline/backend/internal/database"
	"github.com/snapline/backend/internal/email"
	applog "github.com/snapline/backend/internal/logger"
	"github.com/snapline/backend/internal/models"
	"github.com/snapline/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	_ = applog.Initialize("error", "")
	os.Exit(m.Run())
}

// envelope mirrors the response wrapper with raw data for re-decoding
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// HandlersTestSuite contains HTTP handler tests
type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	uploader *storage.MockUploader
	mailer   *email.MockSender

	alice *models.User
	bob   *models.User
}

// SetupSuite initializes test database and the router
func (suite *HandlersTestSuite) SetupSuite() {
	host := getEnvOrDefault("POSTGRES_HOST", "localhost")
	port := getEnvOrDefault("POSTGRES_PORT", "5432")
	user := getEnvOrDefault("POSTGRES_USER", "postgres")
	password := getEnvOrDefault("POSTGRES_PASSWORD", "")
	dbname := getEnvOrDefault("POSTGRES_DB", "snapline_test")

	testDSN := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, dbname)
	if password != "" {
		testDSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbname)
	}

	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		suite.T().Skipf("Skipping handler tests: database not available (%v)", err)
		return
	}

	database.DB = db

	err = db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.PasswordReset{},
		&models.Post{},
		&models.PostLike{},
		&models.Bookmark{},
		&models.Comment{},
		&models.Conversation{},
		&models.Message{},
	)
	require.NoError(suite.T(), err)

	suite.db = db
	suite.uploader = storage.NewMockUploader()
	suite.mailer = &email.MockSender{}

	authService := auth.NewService([]byte("test_session_secret"), []byte("test_reset_secret"))
	suite.handlers = NewHandlers(authService, suite.uploader)
	suite.handlers.SetEmailSender(suite.mailer)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.setupRoutes()
}

// setupRoutes configures the test router. Auth here is a header-based
// stand-in; the real guard has its own tests.
func (suite *HandlersTestSuite) setupRoutes() {
	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Set("user", &user)
		c.Next()
	}

	api := suite.router.Group("/api/v1")

	api.POST("/auth/signup", suite.handlers.Signup)
	api.POST("/auth/login", suite.handlers.Login)
	api.POST("/auth/forgot-password", suite.handlers.ForgotPassword)
	api.POST("/auth/reset-password", suite.handlers.ResetPassword)

	protected := api.Group("")
	protected.Use(authMiddleware)
	protected.GET("/auth/logout", suite.handlers.Logout)
	protected.GET("/auth/me", suite.handlers.Me)
	protected.GET("/users/:username", suite.handlers.GetProfile)
	protected.GET("/users/:username/posts", suite.handlers.GetUserPosts)
	protected.PUT("/accounts/edit", suite.handlers.UpdateProfile)
	protected.GET("/accounts/suggested-users", suite.handlers.SuggestedUsers)
	protected.PUT("/accounts/follow-unfollow/:username", suite.handlers.FollowUnfollow)
	protected.GET("/accounts/bookmarks", suite.handlers.GetBookmarks)
	protected.POST("/posts/create-post", suite.handlers.CreatePost)
	protected.GET("/posts", suite.handlers.GetAllPosts)
	protected.PUT("/posts/:id/like", suite.handlers.LikeUnlike)
	protected.POST("/posts/:id/comments", suite.handlers.CreateComment)
	protected.GET("/posts/:id/comments", suite.handlers.GetComments)
	protected.PUT("/posts/:id/bookmark", suite.handlers.ToggleBookmark)
	protected.POST("/messages/send-message/user/:id", suite.handlers.SendMessage)
	protected.GET("/messages/conversation/user/:id", suite.handlers.GetConversation)
	protected.GET("/ws/online", suite.handlers.GetOnlineUsers)
}

// TearDownSuite closes the database connection
func (suite *HandlersTestSuite) TearDownSuite() {
	if suite.db == nil {
		return
	}
	suite.db.Exec("DROP TABLE IF EXISTS messages, conversations, comments, bookmarks, post_likes, posts, password_resets, follows, users CASCADE")
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

// SetupTest creates fresh test users before each test
func (suite *HandlersTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE messages, conversations, comments, bookmarks, post_likes, posts, password_resets, follows, users CASCADE")
	suite.uploader.Uploads = map[string]string{}
	suite.mailer.Sent = nil

	suite.alice = suite.createUser("alice", "alice@snapline.dev")
	suite.bob = suite.createUser("bob", "bob@snapline.dev")
}

func (suite *HandlersTestSuite) createUser(username, emailAddr string) *models.User {
	user, err := suite.handlers.authService.RegisterUser(emailAddr, username, username, "Sup3rsecret!a")
	require.NoError(suite.T(), err)
	return user
}

// doJSON performs a JSON request as the given user (optional)
func (suite *HandlersTestSuite) doJSON(method, path string, body interface{}, asUser *models.User) (*httptest.ResponseRecorder, envelope) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if asUser != nil {
		req.Header.Set("X-User-ID", asUser.ID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

// doMultipart performs a multipart request with image files and fields
func (suite *HandlersTestSuite) doMultipart(method, path string, fields map[string]string, images []string, asUser *models.User) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(suite.T(), writer.WriteField(key, value))
	}
	for _, name := range images {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(suite.T(), err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(suite.T(), err)
	}
	require.NoError(suite.T(), writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if asUser != nil {
		req.Header.Set("X-User-ID", asUser.ID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

// ---------------------------------------------------------------------------
// Auth

func (suite *HandlersTestSuite) TestSignupDuplicateConflict() {
	t := suite.T()

	w, env := suite.doJSON("POST", "/api/v1/auth/signup", gin.H{
		"email":        "carol@snapline.dev",
		"username":     "carol",
		"display_name": "Carol",
		"password":     "Sup3rsecret!a",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	// The created record never includes the password hash
	assert.NotContains(t, w.Body.String(), "password")

	var before int64
	suite.db.Model(&models.User{}).Count(&before)

	// Same email again
	w, env = suite.doJSON("POST", "/api/v1/auth/signup", gin.H{
		"email":        "carol@snapline.dev",
		"username":     "carol2",
		"display_name": "Carol",
		"password":     "Sup3rsecret!a",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already registered, please login", env.Message)

	// Same handle again
	w, env = suite.doJSON("POST", "/api/v1/auth/signup", gin.H{
		"email":        "other@snapline.dev",
		"username":     "carol",
		"display_name": "Carol",
		"password":     "Sup3rsecret!a",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already registered, please login", env.Message)

	// No new rows appeared
	var after int64
	suite.db.Model(&models.User{}).Count(&after)
	assert.Equal(t, before, after)
}

func (suite *HandlersTestSuite) TestSignupValidation() {
	t := suite.T()

	// Weak password
	w, _ := suite.doJSON("POST", "/api/v1/auth/signup", gin.H{
		"email":        "weak@snapline.dev",
		"username":     "weakpass",
		"display_name": "Weak",
		"password":     "alllowercase",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad email
	w, _ = suite.doJSON("POST", "/api/v1/auth/signup", gin.H{
		"email":        "not-an-email",
		"username":     "bademail",
		"display_name": "Bad",
		"password":     "Sup3rsecret!a",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad handle
	w, _ = suite.doJSON("POST", "/api/v1/auth/signup", gin.H{
		"email":        "ok@snapline.dev",
		"username":     "x",
		"display_name": "Short",
		"password":     "Sup3rsecret!a",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestLoginFailuresAreIndistinguishable() {
	t := suite.T()

	w1, env1 := suite.doJSON("POST", "/api/v1/auth/login", gin.H{
		"email":    "alice@snapline.dev",
		"password": "wr0ngPass!x",
	}, nil)
	w2, env2 := suite.doJSON("POST", "/api/v1/auth/login", gin.H{
		"email":    "nobody@snapline.dev",
		"password": "Sup3rsecret!a",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w1.Code)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
	assert.Equal(t, "invalid username or password", env1.Message)
	assert.Equal(t, env1.Message, env2.Message)
}

func (suite *HandlersTestSuite) TestLoginSetsCookie() {
	t := suite.T()

	w, env := suite.doJSON("POST", "/api/v1/auth/login", gin.H{
		"email":    "alice@snapline.dev",
		"password": "Sup3rsecret!a",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var found bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == auth.SessionCookieName {
			found = true
			assert.True(t, cookie.HttpOnly)
			assert.NotEmpty(t, cookie.Value)
		}
	}
	assert.True(t, found, "login should set the session cookie")
}

func (suite *HandlersTestSuite) TestForgotAndResetPassword() {
	t := suite.T()

	// Unknown email: same response, no email sent
	w, _ := suite.doJSON("POST", "/api/v1/auth/forgot-password", gin.H{
		"email": "stranger@snapline.dev",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, suite.mailer.Sent)

	w, _ = suite.doJSON("POST", "/api/v1/auth/forgot-password", gin.H{
		"email": "alice@snapline.dev",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, suite.mailer.Sent, 1)
	assert.Equal(t, "alice@snapline.dev", suite.mailer.Sent[0].To)

	token := suite.mailer.Sent[0].Token
	w, _ = suite.doJSON("POST", "/api/v1/auth/reset-password", gin.H{
		"token":    token,
		"password": "N3wsecret!b",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// New password works now
	w, _ = suite.doJSON("POST", "/api/v1/auth/login", gin.H{
		"email":    "alice@snapline.dev",
		"password": "N3wsecret!b",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Token is single-use
	w, _ = suite.doJSON("POST", "/api/v1/auth/reset-password", gin.H{
		"token":    token,
		"password": "An0thersecret!c",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ---------------------------------------------------------------------------
// Social graph

func (suite *HandlersTestSuite) TestSelfFollowRejected() {
	t := suite.T()

	w, _ := suite.doJSON("PUT", "/api/v1/accounts/follow-unfollow/alice", nil, suite.alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	suite.db.Model(&models.Follow{}).Count(&count)
	assert.Zero(t, count)
}

func (suite *HandlersTestSuite) TestFollowToggleIdempotentFinalState() {
	t := suite.T()

	// Follow
	w, env := suite.doJSON("PUT", "/api/v1/accounts/follow-unfollow/bob", nil, suite.alice)
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Following bool `json:"following"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Following)

	var count int64
	suite.db.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", suite.alice.ID, suite.bob.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	var bob models.User
	suite.db.First(&bob, "id = ?", suite.bob.ID)
	assert.Equal(t, 1, bob.FollowerCount)

	// Unfollow
	w, env = suite.doJSON("PUT", "/api/v1/accounts/follow-unfollow/bob", nil, suite.alice)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Following)

	suite.db.Model(&models.Follow{}).Count(&count)
	assert.Zero(t, count)

	suite.db.First(&bob, "id = ?", suite.bob.ID)
	assert.Equal(t, 0, bob.FollowerCount)
}

func (suite *HandlersTestSuite) TestSuggestedUsersExcludesSelfAndFollowed() {
	t := suite.T()

	carol := suite.createUser("carol", "carol@snapline.dev")

	// alice follows bob
	w, _ := suite.doJSON("PUT", "/api/v1/accounts/follow-unfollow/bob", nil, suite.alice)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := suite.doJSON("GET", "/api/v1/accounts/suggested-users", nil, suite.alice)
	require.Equal(t, http.StatusOK, w.Code)

	var suggestions []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &suggestions))
	require.Len(t, suggestions, 1)
	assert.Equal(t, carol.ID, suggestions[0]["id"])
}

// ---------------------------------------------------------------------------
// Posts

func (suite *HandlersTestSuite) TestCreatePostRequiresImageBeforeStorageWrite() {
	t := suite.T()

	w, _ := suite.doMultipart("POST", "/api/v1/posts/create-post",
		map[string]string{"caption": "no pics"}, nil, suite.alice)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// Nothing reached storage
	assert.Empty(t, suite.uploader.Uploads)

	var count int64
	suite.db.Model(&models.Post{}).Count(&count)
	assert.Zero(t, count)
}

func (suite *HandlersTestSuite) TestCreatePostUploadsImages() {
	t := suite.T()

	w, env := suite.doMultipart("POST", "/api/v1/posts/create-post",
		map[string]string{"caption": "beach day"},
		[]string{"one.jpg", "two.png"}, suite.alice)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, suite.uploader.Uploads, 2)

	var post models.Post
	require.NoError(t, json.Unmarshal(env.Data, &post))
	assert.Equal(t, "beach day", post.Caption)
	assert.Len(t, post.Images, 2)
	assert.Equal(t, suite.alice.ID, post.AuthorID)

	var alice models.User
	suite.db.First(&alice, "id = ?", suite.alice.ID)
	assert.Equal(t, 1, alice.PostCount)
}

func (suite *HandlersTestSuite) TestCreatePostTooManyImages() {
	t := suite.T()

	images := make([]string, maxPostImages+1)
	for i := range images {
		images[i] = fmt.Sprintf("img%d.jpg", i)
	}

	w, _ := suite.doMultipart("POST", "/api/v1/posts/create-post",
		nil, images, suite.alice)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, suite.uploader.Uploads)
}

func (suite *HandlersTestSuite) TestLikeToggle() {
	t := suite.T()
	post := suite.createPost(suite.alice, "sunset")

	w, env := suite.doJSON("PUT", "/api/v1/posts/"+post.ID+"/like", nil, suite.bob)
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"like_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Liked)
	assert.Equal(t, int64(1), result.LikeCount)

	// Second like from the same user unlikes
	w, env = suite.doJSON("PUT", "/api/v1/posts/"+post.ID+"/like", nil, suite.bob)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.Liked)
	assert.Equal(t, int64(0), result.LikeCount)
}

func (suite *HandlersTestSuite) TestCommentFlow() {
	t := suite.T()
	post := suite.createPost(suite.alice, "dinner")

	// Empty text rejected
	w, _ := suite.doJSON("POST", "/api/v1/posts/"+post.ID+"/comments", gin.H{"text": ""}, suite.bob)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = suite.doJSON("POST", "/api/v1/posts/"+post.ID+"/comments", gin.H{"text": "looks great"}, suite.bob)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := suite.doJSON("GET", "/api/v1/posts/"+post.ID+"/comments", nil, suite.alice)
	require.Equal(t, http.StatusOK, w.Code)

	var comments []models.Comment
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "looks great", comments[0].Text)
	assert.Equal(t, suite.bob.ID, comments[0].AuthorID)

	var updated models.Post
	suite.db.First(&updated, "id = ?", post.ID)
	assert.Equal(t, 1, updated.CommentCount)
}

func (suite *HandlersTestSuite) TestBookmarkToggle() {
	t := suite.T()
	post := suite.createPost(suite.alice, "coffee")

	w, _ := suite.doJSON("PUT", "/api/v1/posts/"+post.ID+"/bookmark", nil, suite.bob)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := suite.doJSON("GET", "/api/v1/accounts/bookmarks", nil, suite.bob)
	require.Equal(t, http.StatusOK, w.Code)
	var saved []PostView
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, post.ID, saved[0].ID)

	// Toggle off
	w, _ = suite.doJSON("PUT", "/api/v1/posts/"+post.ID+"/bookmark", nil, suite.bob)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = suite.doJSON("GET", "/api/v1/accounts/bookmarks", nil, suite.bob)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Empty(t, saved)
}

// The full scenario: alice posts, bob likes, the feed shows one like
// attributed to bob.
func (suite *HandlersTestSuite) TestFeedShowsLikeAttribution() {
	t := suite.T()

	post := suite.createPost(suite.alice, "first post")

	w, _ := suite.doJSON("PUT", "/api/v1/posts/"+post.ID+"/like", nil, suite.bob)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := suite.doJSON("GET", "/api/v1/posts", nil, suite.alice)
	require.Equal(t, http.StatusOK, w.Code)

	var feed []PostView
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, post.ID, feed[0].ID)
	assert.Equal(t, []string{suite.bob.ID}, feed[0].LikedBy)
	assert.Equal(t, 1, feed[0].LikeCount)
	assert.Equal(t, suite.alice.Username, feed[0].Author.Username)
}

// ---------------------------------------------------------------------------
// Messages

func (suite *HandlersTestSuite) TestSendMessageValidation() {
	t := suite.T()

	// Self-message
	w, _ := suite.doJSON("POST", "/api/v1/messages/send-message/user/"+suite.alice.ID,
		gin.H{"body": "hi me"}, suite.alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Empty body
	w, _ = suite.doJSON("POST", "/api/v1/messages/send-message/user/"+suite.bob.ID,
		gin.H{"body": "   "}, suite.alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown receiver
	w, _ = suite.doJSON("POST", "/api/v1/messages/send-message/user/00000000-0000-0000-0000-000000000000",
		gin.H{"body": "anyone there"}, suite.alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestConversationLazyCreationAndOrdering() {
	t := suite.T()

	// No conversation yet: empty history
	w, env := suite.doJSON("GET", "/api/v1/messages/conversation/user/"+suite.bob.ID, nil, suite.alice)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Empty(t, history.Messages)

	w, _ = suite.doJSON("POST", "/api/v1/messages/send-message/user/"+suite.bob.ID,
		gin.H{"body": "hey bob"}, suite.alice)
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = suite.doJSON("POST", "/api/v1/messages/send-message/user/"+suite.alice.ID,
		gin.H{"body": "hey alice"}, suite.bob)
	require.Equal(t, http.StatusCreated, w.Code)

	// Both sends landed in the same conversation
	var convCount int64
	suite.db.Model(&models.Conversation{}).Count(&convCount)
	assert.Equal(t, int64(1), convCount)

	// Either side sees the same ordered history
	for _, viewer := range []*models.User{suite.alice, suite.bob} {
		peer := suite.bob
		if viewer == suite.bob {
			peer = suite.alice
		}
		w, env = suite.doJSON("GET", "/api/v1/messages/conversation/user/"+peer.ID, nil, viewer)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(env.Data, &history))
		require.Len(t, history.Messages, 2)
		assert.Equal(t, "hey bob", history.Messages[0].Body)
		assert.Equal(t, "hey alice", history.Messages[1].Body)
	}
}

// ---------------------------------------------------------------------------
// Profile

func (suite *HandlersTestSuite) TestGetProfileNotFound() {
	w, _ := suite.doJSON("GET", "/api/v1/users/ghost", nil, suite.alice)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestGetProfileCountsAndPosts() {
	t := suite.T()

	suite.createPost(suite.alice, "one")
	suite.createPost(suite.alice, "two")

	w, _ := suite.doJSON("PUT", "/api/v1/accounts/follow-unfollow/alice", nil, suite.bob)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := suite.doJSON("GET", "/api/v1/users/alice", nil, suite.bob)
	require.Equal(t, http.StatusOK, w.Code)

	var profile map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "alice", profile["username"])
	assert.EqualValues(t, 1, profile["follower_count"])
	assert.EqualValues(t, 2, profile["post_count"])
	assert.Equal(t, true, profile["is_following"])
	// No hash ever leaves the API
	assert.NotContains(t, profile, "password_hash")
}

func (suite *HandlersTestSuite) TestUpdateProfile() {
	t := suite.T()

	w, env := suite.doMultipart("PUT", "/api/v1/accounts/edit",
		map[string]string{"bio": "gopher", "gender": "female"}, nil, suite.alice)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.User
	require.NoError(t, json.Unmarshal(env.Data, &updated))

	var fresh models.User
	suite.db.First(&fresh, "id = ?", suite.alice.ID)
	assert.Equal(t, "gopher", fresh.Bio)
	assert.Equal(t, "female", fresh.Gender)

	// Invalid gender rejected
	w, _ = suite.doMultipart("PUT", "/api/v1/accounts/edit",
		map[string]string{"gender": "robot"}, nil, suite.alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// createPost inserts a post for a user directly
func (suite *HandlersTestSuite) createPost(author *models.User, caption string) *models.Post {
	post := &models.Post{
		Caption:  caption,
		Images:   models.StringArray{"https://images.test.local/posts/x.jpg"},
		AuthorID: author.ID,
	}
	require.NoError(suite.T(), suite.db.Create(post).Error)
	return post
}

// TestHandlersTestSuite runs the test suite
func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
