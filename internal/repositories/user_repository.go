package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"chat-store/internal/logger"
	"chat-store/internal/models"
)

const (
	defaultTheme    = "system"
	defaultLanguage = "en-US"
	defaultFontSize = 14
)

// UserRepository abstracts user persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, in models.NewUser) (models.User, error)
	GetUser(ctx context.Context, userID string) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	store
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB, log *logger.Logger, clock Clock) *UserRepo {
	return &UserRepo{store: newStore(db, log, clock, "UserRepo")}
}

func (r *UserRepo) CreateUser(ctx context.Context, in models.NewUser) (models.User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.User{}, invalidArgument("user name is required")
	}
	now := r.now()
	user := models.User{
		ID:          newID(),
		Name:        in.Name,
		Email:       in.Email,
		AvatarURL:   in.AvatarURL,
		Description: in.Description,
		Theme:       defaultTheme,
		Language:    defaultLanguage,
		FontSize:    defaultFontSize,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := r.run(ctx, "create_user", func(ctx context.Context) error {
		return insertUser(ctx, r.db, user)
	})
	if err != nil {
		return models.User{}, err
	}
	r.log.Debug("created user", "user_id", user.ID)
	return user, nil
}

func (r *UserRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.run(ctx, "get_user", func(ctx context.Context) error {
		return getUser(ctx, r.db, userID, &user)
	})
	return user, err
}

func insertUser(ctx context.Context, q sqlx.ExtContext, u models.User) error {
	_, err := exec(ctx, q, `INSERT INTO users
        (id, name, email, avatar_url, description, is_ai, theme, language, font_size, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.AvatarURL, u.Description, u.IsAI, u.Theme, u.Language, u.FontSize, u.CreatedAt, u.UpdatedAt)
	return classify("insert user", err)
}

func getUser(ctx context.Context, q sqlx.ExtContext, userID string, dest *models.User) error {
	err := get(ctx, q, dest, `SELECT id, name, email, avatar_url, description, is_ai, theme, language, font_size, created_at, updated_at
        FROM users WHERE id=?`, userID)
	return lookup("get user", err, ErrUserNotFound)
}

func userExists(ctx context.Context, q sqlx.ExtContext, userID string) error {
	n, err := count(ctx, q, `SELECT COUNT(*) FROM users WHERE id=?`, userID)
	if err != nil {
		return classify("check user", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
