package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/model"
)

// UserRepository defines persistence operations for users and their token
// sets. Token append and removal are single-row statements so concurrent
// logins and logouts never race over a shared list.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	AppendToken(ctx context.Context, userID uuid.UUID, purpose, token string) error
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error
	HasToken(ctx context.Context, userID uuid.UUID, token string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user. The unique index on email makes duplicate
// registration fail here with gorm.ErrDuplicatedKey rather than being
// checked first and raced.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) AppendToken(ctx context.Context, userID uuid.UUID, purpose, token string) error {
	entry := model.UserToken{
		UserID:  userID,
		Purpose: purpose,
		Token:   token,
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// RemoveToken deletes exactly the matching token row. Removing a token that
// is not present is a no-op, not an error.
func (r *userRepository) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&model.UserToken{}).Error
}

func (r *userRepository) HasToken(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserToken{}).
		Where("user_id = ? AND token = ?", userID, token).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
