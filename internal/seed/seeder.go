package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/snapline/backend/internal/logger"
	"github.com/snapline/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users, 200); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, 300)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating likes...")
	if err := s.seedLikes(users, posts, 1000); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, posts, 600); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating bookmarks...")
	if err := s.seedBookmarks(users, posts, 150); err != nil {
		return fmt.Errorf("failed to seed bookmarks: %w", err)
	}

	log("Creating conversations...")
	if err := s.seedConversations(users, 80); err != nil {
		return fmt.Errorf("failed to seed conversations: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a small fixed cast
func (s *Seeder) SeedTest() error {
	logger.Log.Info("Creating test users...")

	testUserSpecs := []struct {
		username    string
		email       string
		displayName string
	}{
		{"alice", "alice@example.com", "Alice Smith"},
		{"bob", "bob@example.com", "Bob Johnson"},
		{"charlie", "charlie@example.com", "Charlie Brown"},
		{"diana", "diana@example.com", "Diana Prince"},
		{"eve", "eve@example.com", "Eve Wilson"},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user = models.User{
			Email:        spec.email,
			Username:     spec.username,
			DisplayName:  spec.displayName,
			PasswordHash: string(hashedPassword),
			IsVerified:   true,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Creating test posts...")
	posts, err := s.seedPosts(users, 5)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating test comments...")
	if err := s.seedComments(users, posts, 10); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	tables := []string{
		"messages",
		"conversations",
		"comments",
		"bookmarks",
		"post_likes",
		"posts",
		"password_resets",
		"follows",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

// seedUsers creates users with realistic profiles
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	// Skip creation if a previous run already seeded enough users
	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing users, skipping creation",
			zap.Int("total_users", len(users)),
			zap.Int64("seed_users", seedUserCount))
		return users, nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	genders := []string{models.GenderMale, models.GenderFemale, ""}

	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := gofakeit.Email()

		// Ensure unique username/email
		var existing models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existing).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = gofakeit.Email()
		}

		user := models.User{
			Email:        email,
			Username:     username,
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.HipsterSentence(),
			Gender:       genders[rand.Intn(len(genders))],
			PasswordHash: string(hashedPassword),
			IsVerified:   rand.Float32() < 0.2,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Created seed users", zap.Int("count", len(users)))
	return users, nil
}

// seedFollows creates follow edges and keeps the cached counters honest
func (s *Seeder) seedFollows(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		follower := users[rand.Intn(len(users))]
		followee := users[rand.Intn(len(users))]
		if follower.ID == followee.ID {
			continue
		}

		var existing models.Follow
		err := s.db.Where("follower_id = ? AND followee_id = ?", follower.ID, followee.ID).
			First(&existing).Error
		if err == nil {
			continue
		}

		follow := models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
		if err := s.db.Create(&follow).Error; err != nil {
			return err
		}
		s.db.Model(&models.User{}).Where("id = ?", followee.ID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1"))
		s.db.Model(&models.User{}).Where("id = ?", follower.ID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1"))
		created++
	}

	logger.Log.Info("Created follows", zap.Int("count", created))
	return nil
}

// seedPosts creates image posts spread across users
func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	var posts []models.Post
	if len(users) == 0 {
		return posts, nil
	}

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		imageCount := rand.Intn(3) + 1
		images := make(models.StringArray, 0, imageCount)
		for j := 0; j < imageCount; j++ {
			// Stable placeholder images keyed on a random seed
			images = append(images, fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", gofakeit.LetterN(10)))
		}

		post := models.Post{
			Caption:  gofakeit.Sentence(rand.Intn(12) + 2),
			Images:   images,
			AuthorID: author.ID,
		}
		// Backdate so the feed has a spread of timestamps
		post.CreatedAt = gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now())

		if err := s.db.Create(&post).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		s.db.Model(&models.User{}).Where("id = ?", author.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1"))
		posts = append(posts, post)
	}

	logger.Log.Info("Created posts", zap.Int("count", len(posts)))
	return posts, nil
}

// seedLikes creates likes and maintains per-post counters
func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		var existing models.PostLike
		err := s.db.Where("user_id = ? AND post_id = ?", user.ID, post.ID).First(&existing).Error
		if err == nil {
			continue
		}

		like := models.PostLike{UserID: user.ID, PostID: post.ID}
		if err := s.db.Create(&like).Error; err != nil {
			return err
		}
		s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1"))
		created++
	}

	logger.Log.Info("Created likes", zap.Int("count", created))
	return nil
}

// seedComments creates comments and maintains per-post counters
func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		comment := models.Comment{
			Text:     gofakeit.Sentence(rand.Intn(10) + 1),
			AuthorID: author.ID,
			PostID:   post.ID,
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1"))
	}

	logger.Log.Info("Created comments", zap.Int("count", count))
	return nil
}

// seedBookmarks saves random posts for random users
func (s *Seeder) seedBookmarks(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		var existing models.Bookmark
		err := s.db.Where("user_id = ? AND post_id = ?", user.ID, post.ID).First(&existing).Error
		if err == nil {
			continue
		}

		bookmark := models.Bookmark{UserID: user.ID, PostID: post.ID}
		if err := s.db.Create(&bookmark).Error; err != nil {
			return err
		}
		created++
	}

	logger.Log.Info("Created bookmarks", zap.Int("count", created))
	return nil
}

// seedConversations creates DM threads with a short message history
func (s *Seeder) seedConversations(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}

	created := 0
	for attempts := 0; created < count && attempts < count*3; attempts++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		userA, userB := models.NormalizePair(a.ID, b.ID)

		var conversation models.Conversation
		err := s.db.Where("user_a_id = ? AND user_b_id = ?", userA, userB).
			First(&conversation).Error
		if err == nil {
			continue
		}

		conversation = models.Conversation{UserAID: userA, UserBID: userB}
		if err := s.db.Create(&conversation).Error; err != nil {
			return err
		}

		messageCount := rand.Intn(8) + 2
		for i := 0; i < messageCount; i++ {
			sender, receiver := a, b
			if rand.Intn(2) == 0 {
				sender, receiver = b, a
			}
			message := models.Message{
				ConversationID: conversation.ID,
				SenderID:       sender.ID,
				ReceiverID:     receiver.ID,
				Body:           gofakeit.Sentence(rand.Intn(10) + 1),
			}
			if err := s.db.Create(&message).Error; err != nil {
				return err
			}
		}
		created++
	}

	logger.Log.Info("Created conversations", zap.Int("count", created))
	return nil
}
