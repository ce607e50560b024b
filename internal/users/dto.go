package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

const dobLayout = "2006-01-02"

// UserDTO is the transport shape of a login identity.
type UserDTO struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	IsAuthenticated bool      `json:"is_authenticated"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		IsAuthenticated: true,
	}
}

// ProfileDTO is returned by GET /api/profile.
type ProfileDTO struct {
	Name        *string       `json:"name"`
	Email       *string       `json:"email"`
	IsActive    bool          `json:"is_active"`
	Whitelisted bool          `json:"whitelisted"`
	Blacklisted bool          `json:"blacklisted"`
	DOB         string        `json:"dob"`
	CartItems   int64         `json:"cart_items"`
	Addresses   []address.DTO `json:"addresses"`
}

func profileDTO(p *models.UserProfile, cartItems int64, addresses []address.DTO) *ProfileDTO {
	if addresses == nil {
		addresses = []address.DTO{}
	}
	return &ProfileDTO{
		Name:        p.Name,
		Email:       p.Email,
		IsActive:    p.IsActive,
		Whitelisted: p.Whitelisted,
		Blacklisted: p.Blacklisted,
		DOB:         p.DOB.Format(dobLayout),
		CartItems:   cartItems,
		Addresses:   addresses,
	}
}

// UpdateProfileInput is a partial profile update. Nil fields are left alone.
type UpdateProfileInput struct {
	Name    *string        `json:"name,omitempty" validate:"omitempty,max=120"`
	Email   *string        `json:"email,omitempty" validate:"omitempty,email"`
	DOB     *string        `json:"dob,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Address *address.Input `json:"address,omitempty"`
}

func parseDOB(value string) (time.Time, error) {
	return time.Parse(dobLayout, value)
}
