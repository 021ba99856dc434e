package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/inkstone-app/inkstone-api/app/models"
	"github.com/inkstone-app/inkstone-api/internal/pkg/accountstate"
	"github.com/inkstone-app/inkstone-api/internal/pkg/database"
)

// HandleGetAccount returns the account row for an external identity, creating
// a defaulted row the first time the identity is observed. The optional email
// query parameter is cached on creation only.
func HandleGetAccount(c *fiber.Ctx) error {
	userID := c.Params("userID")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "userID missing"})
	}

	acct, err := models.GetOrCreateAccount(database.GetDB(), userID, c.Query("email"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "account_lookup_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(acct)
}

type updateThemeRequest struct {
	ThemeName string `json:"themeName"`
}

// HandleUpdateAccountTheme persists the theme preference.
func HandleUpdateAccountTheme(c *fiber.Ctx) error {
	userID := c.Params("userID")
	var req updateThemeRequest
	if err := c.BodyParser(&req); err != nil || req.ThemeName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "themeName missing"})
	}
	if !accountstate.IsKnownTheme(req.ThemeName) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown theme"})
	}

	if err := updateAccountColumn(database.GetDB(), userID, "theme_name", req.ThemeName); err != nil {
		return accountUpdateError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

type updateNotificationsRequest struct {
	NotificationsEnabled *bool `json:"notificationsEnabled"`
}

// HandleUpdateAccountNotifications persists the notification preference.
func HandleUpdateAccountNotifications(c *fiber.Ctx) error {
	userID := c.Params("userID")
	var req updateNotificationsRequest
	if err := c.BodyParser(&req); err != nil || req.NotificationsEnabled == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "notificationsEnabled missing"})
	}

	if err := updateAccountColumn(database.GetDB(), userID, "notifications_enabled", *req.NotificationsEnabled); err != nil {
		return accountUpdateError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// updateAccountColumn writes a single preference column. Existence is checked
// separately: MySQL reports changed rows rather than matched rows, so a zero
// RowsAffected on the update cannot distinguish a missing account from a
// value that was already current.
func updateAccountColumn(db *gorm.DB, userID, column string, value interface{}) error {
	if userID == "" {
		return gorm.ErrRecordNotFound
	}
	var count int64
	if err := db.Model(&models.Account{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return db.Model(&models.Account{}).
		Where("user_id = ?", userID).
		Update(column, value).Error
}

func accountUpdateError(c *fiber.Ctx, err error) error {
	if err == gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "account_update_failed"})
}
