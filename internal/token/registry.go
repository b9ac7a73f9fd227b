package token

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillswap/backend/internal/models"
)

// MaxPerUser caps how many live tokens a user may hold. Appending past
// the cap evicts the oldest entry.
const MaxPerUser = 10

// Registry keeps one row per accepted token, so append and revoke are
// single-row statements.
type Registry struct {
	DB *gorm.DB
}

func (r *Registry) Append(ctx context.Context, userID uuid.UUID, tokenStr string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.UserToken{UserID: userID, Token: tokenStr}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.UserToken{}).
			Where("user_id = ?", userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count <= MaxPerUser {
			return nil
		}

		sub := tx.Model(&models.UserToken{}).
			Select("min(id)").
			Where("user_id = ?", userID)
		return tx.Where("id = (?)", sub).Delete(&models.UserToken{}).Error
	})
}

// Revoke removes the first occurrence of the token. Removing an absent
// token is a no-op so retried logouts stay idempotent.
func (r *Registry) Revoke(ctx context.Context, userID uuid.UUID, tokenStr string) error {
	db := r.DB.WithContext(ctx)
	sub := db.Model(&models.UserToken{}).
		Select("min(id)").
		Where("user_id = ? AND token = ?", userID, tokenStr)
	return db.Where("id = (?)", sub).Delete(&models.UserToken{}).Error
}

func (r *Registry) Contains(ctx context.Context, userID uuid.UUID, tokenStr string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.UserToken{}).
		Where("user_id = ? AND token = ?", userID, tokenStr).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Replace swaps oldToken for newToken in place, used by refresh so the
// presented token stops being valid the moment its successor exists.
func (r *Registry) Replace(ctx context.Context, userID uuid.UUID, oldToken, newToken string) error {
	db := r.DB.WithContext(ctx)
	sub := db.Model(&models.UserToken{}).
		Select("min(id)").
		Where("user_id = ? AND token = ?", userID, oldToken)
	return db.Model(&models.UserToken{}).
		Where("id = (?)", sub).
		Update("token", newToken).Error
}
