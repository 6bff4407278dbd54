package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"goalplanner/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertByExternalRef finds or creates a user keyed by the upstream identity
// provider's reference and refreshes the display name. The second return is
// true when the user was created by this call.
func (r *UserRepository) UpsertByExternalRef(ctx context.Context, externalRef, displayName string) (*model.User, bool, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("external_ref = ?", externalRef).First(&user).Error
	switch {
	case err == nil:
		if err := db.Model(&user).Update("display_name", displayName).Error; err != nil {
			return nil, false, fmt.Errorf("update user: %w", err)
		}
		return &user, false, nil
	case err == gorm.ErrRecordNotFound:
		user = model.User{ExternalRef: externalRef, DisplayName: displayName}
		if err := db.Create(&user).Error; err != nil {
			return nil, false, fmt.Errorf("create user: %w", err)
		}
		return &user, true, nil
	default:
		return nil, false, fmt.Errorf("find user: %w", err)
	}
}

func (r *UserRepository) FindByID(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
