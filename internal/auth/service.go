package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/snapline/backend/internal/database"
	"github.com/snapline/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoToken            = errors.New("no authentication token provided")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// TokenPurpose selects which signing secret a token uses.
type TokenPurpose string

const (
	PurposeSession TokenPurpose = "session"
	PurposeReset   TokenPurpose = "reset"
)

const (
	sessionTokenTTL = 24 * time.Hour
	resetTokenTTL   = time.Hour

	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName = "access_token"
	// ResetCookieName is the cookie carrying a password-reset token.
	ResetCookieName = "reset_token"
)

// Claims are the verified token contents handed to the guard and the
// handlers. There is one verify-and-decode path; nothing reads a token
// without checking its signature and expiry.
type Claims struct {
	UserID     string       `json:"user_id"`
	Username   string       `json:"username"`
	Email      string       `json:"email"`
	IsVerified bool         `json:"is_verified"`
	Purpose    TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Service handles password hashing and session/reset token operations
type Service struct {
	sessionSecret []byte
	resetSecret   []byte
}

// NewService creates a new authentication service. The reset secret may
// equal the session secret but should not in production.
func NewService(sessionSecret, resetSecret []byte) *Service {
	return &Service{
		sessionSecret: sessionSecret,
		resetSecret:   resetSecret,
	}
}

// HashPassword hashes a plaintext password for storage. Errors from the
// primitive propagate to the caller.
func (s *Service) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches the stored hash.
func (s *Service) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs a token for the user. Session tokens live 24h under
// the session secret; reset tokens live 1h under the reset secret.
func (s *Service) IssueToken(user *models.User, purpose TokenPurpose) (string, time.Time, error) {
	ttl := sessionTokenTTL
	secret := s.sessionSecret
	if purpose == PurposeReset {
		ttl = resetTokenTTL
		secret = s.resetSecret
	}

	expiresAt := time.Now().Add(ttl)
	claims := Claims{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		IsVerified: user.IsVerified,
		Purpose:    purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature and expiry and returns the typed claims.
func (s *Service) ParseToken(tokenString string, purpose TokenPurpose) (*Claims, error) {
	secret := s.sessionSecret
	if purpose == PurposeReset {
		secret = s.resetSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractToken pulls the raw token from a request. Priority order: the
// Authorization header, then the session or reset cookie. Header tokens
// may arrive as "Bearer <prefix>@<token>", in which case the segment
// after the "@" is the token; a plain "Bearer <token>" also works.
func ExtractToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		if at := strings.IndexByte(token, '@'); at >= 0 {
			token = token[at+1:]
		}
		if token != "" {
			return token, true
		}
	}

	for _, name := range []string{SessionCookieName, ResetCookieName} {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value, true
		}
	}

	return "", false
}

// Authenticate extracts and verifies the session token from a request,
// then loads the account it names.
func (s *Service) Authenticate(r *http.Request) (*models.User, *Claims, error) {
	tokenString, ok := ExtractToken(r)
	if !ok {
		return nil, nil, ErrNoToken
	}

	claims, err := s.ParseToken(tokenString, PurposeSession)
	if err != nil {
		return nil, nil, err
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	return &user, claims, nil
}

// FindUserByEmail finds a user by email (case-insensitive)
func (s *Service) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// FindUserByHandle finds a user by username (case-insensitive)
func (s *Service) FindUserByHandle(handle string) (*models.User, error) {
	var user models.User
	err := database.DB.Where("LOWER(username) = LOWER(?)", handle).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// RegisterUser creates a new account after checking handle and email
// uniqueness. The returned user carries its hash; handlers must respond
// with the model's JSON form, which excludes it.
func (s *Service) RegisterUser(email, username, displayName, password string) (*models.User, error) {
	if _, err := s.FindUserByEmail(email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if _, err := s.FindUserByHandle(username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// LoginUser authenticates with email/password and issues a session
// token, persisting it on the record as the current refresh token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) LoginUser(email, password string) (*models.User, string, time.Time, error) {
	user, err := s.FindUserByEmail(email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	} else if err != nil {
		return nil, "", time.Time{}, err
	}

	if !s.VerifyPassword(password, user.PasswordHash) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.IssueToken(user, PurposeSession)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user.RefreshToken = &token
	if err := database.DB.Model(user).Update("refresh_token", token).Error; err != nil {
		return nil, "", time.Time{}, fmt.Errorf("failed to persist session token: %w", err)
	}

	return user, token, expiresAt, nil
}

// Logout clears the persisted session token.
func (s *Service) Logout(userID string) error {
	return database.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_token", nil).Error
}

// RequestPasswordReset creates a reset token for the account behind
// email. Returns nil without error when the account does not exist, so
// callers cannot probe for registered addresses.
func (s *Service) RequestPasswordReset(email string) (*models.PasswordReset, *models.User, error) {
	user, err := s.FindUserByEmail(email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil, nil
	} else if err != nil {
		return nil, nil, err
	}

	tokenString, _, err := s.IssueToken(user, PurposeReset)
	if err != nil {
		return nil, nil, err
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: time.Now().Add(resetTokenTTL),
		Used:      false,
	}
	if err := database.DB.Create(&reset).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create reset token: %w", err)
	}

	return &reset, user, nil
}

// ResetPassword verifies the reset token and replaces the password.
func (s *Service) ResetPassword(tokenString, newPassword string) error {
	claims, err := s.ParseToken(tokenString, PurposeReset)
	if err != nil {
		return ErrInvalidToken
	}

	var reset models.PasswordReset
	err = database.DB.Where("token = ? AND used = false AND expires_at > ?", tokenString, time.Now()).
		First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidToken
	} else if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", claims.UserID).
			Update("password_hash", hash).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := tx.Model(&reset).Update("used", true).Error; err != nil {
			return fmt.Errorf("failed to mark reset token used: %w", err)
		}
		return nil
	})
}
