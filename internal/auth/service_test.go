package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/snapline/backend/internal/database"
	applog "github.com/snapline/backend/internal/logger"
	"github.com/snapline/backend/internal/models"
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

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
}

// SetupSuite initializes test database and auth service
func (suite *AuthServiceTestSuite) SetupSuite() {
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
		suite.T().Skipf("Skipping auth tests: database not available (%v)", err)
		return
	}

	database.DB = db

	err = db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
	)
	require.NoError(suite.T(), err)

	suite.db = db
	suite.authService = NewService(
		[]byte("test_session_secret_key"),
		[]byte("test_reset_secret_key"),
	)
}

// TearDownSuite cleans up after tests
func (suite *AuthServiceTestSuite) TearDownSuite() {
	if suite.db == nil {
		return
	}
	suite.db.Exec("DROP TABLE IF EXISTS users, password_resets CASCADE")

	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

// SetupTest cleans database before each test
func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM password_resets")
	suite.db.Exec("DELETE FROM users")
}

// TestRegisterUser tests user registration
func (suite *AuthServiceTestSuite) TestRegisterUser() {
	t := suite.T()

	user, err := suite.authService.RegisterUser("test@snapline.dev", "testshot", "Test Shot", "Sup3rsecret!a")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "test@snapline.dev", user.Email)
	assert.Equal(t, "testshot", user.Username)
	assert.Equal(t, "Test Shot", user.DisplayName)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "Sup3rsecret!a", user.PasswordHash)

	// Duplicate email
	_, err = suite.authService.RegisterUser("test@snapline.dev", "othershot", "Other", "Sup3rsecret!a")
	assert.ErrorIs(t, err, ErrUserExists)

	// Duplicate username, different email
	_, err = suite.authService.RegisterUser("other@snapline.dev", "testshot", "Other", "Sup3rsecret!a")
	assert.ErrorIs(t, err, ErrUserExists)
}

// TestLoginUser tests login and the indistinguishable failure modes
func (suite *AuthServiceTestSuite) TestLoginUser() {
	t := suite.T()

	_, err := suite.authService.RegisterUser("login@snapline.dev", "logintest", "Login Test", "Sup3rsecret!a")
	require.NoError(t, err)

	user, token, expiresAt, err := suite.authService.LoginUser("login@snapline.dev", "Sup3rsecret!a")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	require.NotNil(t, user.RefreshToken)
	assert.Equal(t, token, *user.RefreshToken)

	// Unknown email and wrong password yield the same error
	_, _, _, err = suite.authService.LoginUser("nobody@snapline.dev", "Sup3rsecret!a")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = suite.authService.LoginUser("login@snapline.dev", "wr0ngPass!x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Case-insensitive email lookup
	_, _, _, err = suite.authService.LoginUser("LOGIN@SNAPLINE.DEV", "Sup3rsecret!a")
	assert.NoError(t, err)
}

// TestTokenRoundTrip tests issue + parse under both purposes
func (suite *AuthServiceTestSuite) TestTokenRoundTrip() {
	t := suite.T()

	user, err := suite.authService.RegisterUser("jwt@snapline.dev", "jwttest", "JWT Test", "Sup3rsecret!a")
	require.NoError(t, err)

	token, _, err := suite.authService.IssueToken(user, PurposeSession)
	require.NoError(t, err)

	claims, err := suite.authService.ParseToken(token, PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, PurposeSession, claims.Purpose)

	// A session token never verifies under the reset secret
	_, err = suite.authService.ParseToken(token, PurposeReset)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Garbage never verifies
	_, err = suite.authService.ParseToken("not.a.token", PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestPasswordResetFlow tests the full request + reset cycle
func (suite *AuthServiceTestSuite) TestPasswordResetFlow() {
	t := suite.T()

	_, err := suite.authService.RegisterUser("reset@snapline.dev", "resettest", "Reset Test", "Sup3rsecret!a")
	require.NoError(t, err)

	// Unknown email is silently a no-op
	reset, user, err := suite.authService.RequestPasswordReset("nobody@snapline.dev")
	require.NoError(t, err)
	assert.Nil(t, reset)
	assert.Nil(t, user)

	reset, user, err = suite.authService.RequestPasswordReset("reset@snapline.dev")
	require.NoError(t, err)
	require.NotNil(t, reset)
	require.NotNil(t, user)
	assert.NotEmpty(t, reset.Token)

	err = suite.authService.ResetPassword(reset.Token, "N3wsecret!b")
	require.NoError(t, err)

	// Old password no longer works, new one does
	_, _, _, err = suite.authService.LoginUser("reset@snapline.dev", "Sup3rsecret!a")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = suite.authService.LoginUser("reset@snapline.dev", "N3wsecret!b")
	assert.NoError(t, err)

	// Token is single-use
	err = suite.authService.ResetPassword(reset.Token, "An0thersecret!c")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestAuthenticate tests request authentication via header and cookie
func (suite *AuthServiceTestSuite) TestAuthenticate() {
	t := suite.T()

	user, err := suite.authService.RegisterUser("req@snapline.dev", "reqtest", "Req Test", "Sup3rsecret!a")
	require.NoError(t, err)

	token, _, err := suite.authService.IssueToken(user, PurposeSession)
	require.NoError(t, err)

	// Plain bearer header
	r := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	got, claims, err := suite.authService.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.ID, claims.UserID)

	// Prefixed bearer header: everything up to the "@" is discarded
	r = httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	r.Header.Set("Authorization", "Bearer snapline@"+token)
	got, _, err = suite.authService.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// Session cookie
	r = httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	got, _, err = suite.authService.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// No token at all
	r = httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	_, _, err = suite.authService.Authenticate(r)
	assert.ErrorIs(t, err, ErrNoToken)
}

// TestAuthServiceTestSuite runs the test suite
func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

// TestExtractToken exercises header and cookie extraction without a database
func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, ok := ExtractToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Bearer abc123")
	token, ok := ExtractToken(r)
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)

	r.Header.Set("Authorization", "Bearer snapline@abc123")
	token, ok = ExtractToken(r)
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)

	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookietoken"})
	token, ok = ExtractToken(r)
	assert.True(t, ok)
	assert.Equal(t, "cookietoken", token)

	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: ResetCookieName, Value: "resettoken"})
	token, ok = ExtractToken(r)
	assert.True(t, ok)
	assert.Equal(t, "resettoken", token)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
