package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	TierFree         = "free"
	TierBasicMonthly = "basic_monthly"
	TierBasicYearly  = "basic_yearly"
	TierProMonthly   = "pro_monthly"
	TierProYearly    = "pro_yearly"
)

const (
	ThemeDefault = "theme1"
)

// Account stores per-user preferences and subscription state. One row per
// authenticated identity, keyed by the external user id.
//
// CustomerID and PlatformSubscriptionID are assigned by the payment platform
// and are never cleared once set; cancellation only reverts SubscriptionTier
// to free. Empty string means "not assigned yet".
type Account struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	UserID                 string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id" validate:"required"`
	Email                  string     `gorm:"type:varchar(200);default:''" json:"email" validate:"omitempty,email,max=200"`
	ThemeName              string     `gorm:"type:varchar(32);not null;default:'theme1'" json:"theme_name" validate:"oneof=theme1 theme2 theme3 theme4"`
	NotificationsEnabled   bool       `gorm:"not null;default:true" json:"notifications_enabled"`
	SubscriptionTier       string     `gorm:"type:varchar(32);not null;default:'free';index" json:"subscription_tier" validate:"oneof=free basic_monthly basic_yearly pro_monthly pro_yearly"`
	CustomerID             string     `gorm:"type:varchar(191);default:'';index" json:"customer_id"`
	PlatformSubscriptionID string     `gorm:"type:varchar(191);default:''" json:"platform_subscription_id"`
	StripeConnectStatus    string     `gorm:"type:varchar(32);default:''" json:"stripe_connect_status"`
	StripeConnectAccountID string     `gorm:"type:varchar(191);default:''" json:"stripe_connect_account_id"`
	StripeConnectCreatedAt *time.Time `gorm:"type:timestamp;default:null" json:"stripe_connect_created_at,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Account) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// GetOrCreateAccount returns the account for the given external identity,
// creating a defaulted row the first time the identity is observed.
func GetOrCreateAccount(db *gorm.DB, userID, email string) (*Account, error) {
	var a Account
	if err := db.Where("user_id = ?", userID).First(&a).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			a = Account{
				UserID:               userID,
				Email:                email,
				ThemeName:            ThemeDefault,
				NotificationsEnabled: true,
				SubscriptionTier:     TierFree,
			}
			if err := db.Create(&a).Error; err != nil {
				return nil, err
			}
			return &a, nil
		}
		return nil, err
	}
	return &a, nil
}
