package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// DefaultDOB is stored for profiles created before the user provides one.
var DefaultDOB = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Repository exposes user and profile persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
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

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves the user whose login handle matches exactly.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreate returns the user and profile for username, creating both when
// missing. Run it inside a transaction.
func (r *Repository) GetOrCreate(ctx context.Context, username string) (*models.User, *models.UserProfile, error) {
	user, err := r.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &models.User{Username: username, IsActive: true}
		err = r.db.WithContext(ctx).Create(user).Error
	}
	if err != nil {
		return nil, nil, err
	}

	profile, err := r.FindProfile(ctx, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = &models.UserProfile{UserID: user.ID, DOB: DefaultDOB, IsActive: true}
		err = r.db.WithContext(ctx).Create(profile).Error
	}
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// FindProfile loads the profile of a user without addresses.
func (r *Repository) FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies column updates to the profile row.
func (r *Repository) UpdateProfile(ctx context.Context, profileID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("id = ?", profileID).
		Updates(updates).Error
}

// FindProfileTx is FindProfile bound to tx when it is non-nil.
func (r *Repository) FindProfileTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.UserProfile, error) {
	return r.WithTx(tx).FindProfile(ctx, userID)
}
