package billing

import (
	"time"

	"github.com/inkstone-app/inkstone-api/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the subscription service and the
// webhook reconciler. Accounts are addressed by the external user id on the
// request path and by the platform customer id on the webhook path.
type Repository interface {
	GetAccountByUserID(userID string) (*models.Account, error)
	SaveCustomerID(userID, customerID string) error
	SavePlatformSubscriptionID(userID, subscriptionID string) error
	UpdateTierByUserID(userID, tier string) error
	UpdateByCustomerID(customerID string, updates map[string]interface{}) (int64, error)
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetAccountByUserID(userID string) (*models.Account, error) {
	var a models.Account
	if err := r.db.Where("user_id = ?", userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *gormRepository) SaveCustomerID(userID, customerID string) error {
	return r.db.Model(&models.Account{}).
		Where("user_id = ?", userID).
		Update("customer_id", customerID).Error
}

func (r *gormRepository) SavePlatformSubscriptionID(userID, subscriptionID string) error {
	return r.db.Model(&models.Account{}).
		Where("user_id = ?", userID).
		Update("platform_subscription_id", subscriptionID).Error
}

func (r *gormRepository) UpdateTierByUserID(userID, tier string) error {
	return r.db.Model(&models.Account{}).
		Where("user_id = ?", userID).
		Update("subscription_tier", tier).Error
}

func (r *gormRepository) UpdateByCustomerID(customerID string, updates map[string]interface{}) (int64, error) {
	tx := r.db.Model(&models.Account{}).
		Where("customer_id = ?", customerID).
		Updates(updates)
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("event_id = ?", event.EventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
