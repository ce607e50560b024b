package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists user addresses.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByPhone returns nil when the profile has no address with that phone.
func (r *Repository) FindByPhone(ctx context.Context, profileID uuid.UUID, phone string) (*models.UserAddress, error) {
	var addr models.UserAddress
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND phone = ?", profileID, phone).
		First(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// Upsert inserts addr or overwrites the existing (profile, phone) row.
func (r *Repository) Upsert(ctx context.Context, addr *models.UserAddress) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "profile_id"}, {Name: "phone"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"address_type", "poc_name", "line_1", "line_2", "city", "state", "pin", "landmark", "updated_at",
			}),
		}).
		Create(addr).Error
}

// DeleteByPhone reports whether a row was removed.
func (r *Repository) DeleteByPhone(ctx context.Context, profileID uuid.UUID, phone string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("profile_id = ? AND phone = ?", profileID, phone).
		Delete(&models.UserAddress{})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]models.UserAddress, error) {
	var rows []models.UserAddress
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
