package accountstate

import (
	"context"

	"github.com/inkstone-app/inkstone-api/app/models"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore creates an accounts-backed store for the holder.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Ensure(ctx context.Context, userID, email string) (*models.Account, error) {
	return models.GetOrCreateAccount(s.db.WithContext(ctx), userID, email)
}

func (s *gormStore) SaveTheme(ctx context.Context, userID, themeName string) error {
	return s.db.WithContext(ctx).Model(&models.Account{}).
		Where("user_id = ?", userID).
		Update("theme_name", themeName).Error
}

func (s *gormStore) SaveNotifications(ctx context.Context, userID string, enabled bool) error {
	return s.db.WithContext(ctx).Model(&models.Account{}).
		Where("user_id = ?", userID).
		Update("notifications_enabled", enabled).Error
}
