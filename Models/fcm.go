package Models

import (
	"strings"

	"gorm.io/gorm"
)

type UpdateTokenRequest struct {
	Value string `json:"value" validate:"required"`
}

// SaveFCMToken sets the push token of one profile. A token belongs to at
// most one profile; it is cleared from any other profile holding it.
func SaveFCMToken(db *gorm.DB, profileID uint, value string) error {
	value = strings.TrimSpace(value)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Profile{}).Where("fcm_token = ? AND id <> ?", value, profileID).Update("fcm_token", "").Error; err != nil {
			return err
		}
		var profile Profile
		if err := tx.First(&profile, profileID).Error; err != nil {
			return err
		}
		return tx.Model(&profile).Update("fcm_token", value).Error
	})
}
