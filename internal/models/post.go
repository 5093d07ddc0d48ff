package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	// Split by comma (simple case - doesn't handle quoted values with commas)
	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Post is a photo post. Every post carries at least one image URL.
type Post struct {
	ID       string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Caption  string      `gorm:"type:text" json:"caption"`
	Images   StringArray `gorm:"type:text[];not null" json:"images"`
	AuthorID string      `gorm:"not null;index" json:"author_id"`
	Author   User        `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	// Denormalized counters, maintained alongside the join tables.
	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostLike marks that a user likes a post. The (post, user) pair is
// unique, which makes the like set duplicate-free by construction.
type PostLike struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_post_likes_pair" json:"post_id"`
	UserID string `gorm:"not null;uniqueIndex:idx_post_likes_pair" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Bookmark saves a post to a user's private bookmark list.
type Bookmark struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_bookmarks_pair" json:"user_id"`
	PostID string `gorm:"not null;uniqueIndex:idx_bookmarks_pair" json:"post_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Comment is a flat comment on a post.
type Comment struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PostID   string `gorm:"not null;index" json:"post_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
