package models

import (
	"time"

	"gorm.io/gorm"
)

// Gender values accepted on a profile. Empty means unset.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User represents a Snapline account.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	Gender      string `json:"gender,omitempty"`
	AvatarURL   string `json:"avatar_url"`

	PasswordHash string `gorm:"type:text;not null" json:"-"`

	// Current session token, persisted at login and cleared at logout.
	RefreshToken *string `gorm:"type:text" json:"-"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`

	// Cached social counts. Source of truth is the follows table.
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostCount      int `gorm:"default:0" json:"post_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PublicProfile strips everything a stranger should not see.
func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":           u.ID,
		"username":     u.Username,
		"display_name": u.DisplayName,
		"bio":          u.Bio,
		"gender":       u.Gender,
		"avatar_url":   u.AvatarURL,
		"is_verified":  u.IsVerified,
		"created_at":   u.CreatedAt,
	}
}

// Follow is one edge of the social graph. The pair is unique, so a
// follow/unfollow toggle is a single row insert or delete.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FollowerID string `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FolloweeID string `gorm:"not null;uniqueIndex:idx_follows_pair" json:"followee_id"`

	Follower User `gorm:"foreignKey:FollowerID" json:"-"`
	Followee User `gorm:"foreignKey:FolloweeID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// PasswordReset tracks a single-use reset token.
type PasswordReset struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
