package address

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// DTO is the transport shape of a saved address.
type DTO struct {
	ID          uuid.UUID `json:"id"`
	AddressType string    `json:"address_type"`
	POCName     string    `json:"poc_name"`
	Phone       string    `json:"phone"`
	Line1       string    `json:"line_1"`
	Line2       *string   `json:"line_2,omitempty"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Pin         int       `json:"pin"`
	Landmark    *string   `json:"landmark,omitempty"`
}

// FromModel maps a stored address; nil yields nil.
func FromModel(a *models.UserAddress) *DTO {
	if a == nil {
		return nil
	}
	return &DTO{
		ID:          a.ID,
		AddressType: a.AddressType.String(),
		POCName:     a.POCName,
		Phone:       a.Phone,
		Line1:       a.Line1,
		Line2:       a.Line2,
		City:        a.City,
		State:       a.State,
		Pin:         a.Pin,
		Landmark:    a.Landmark,
	}
}

// Input is the address block accepted by profile updates. Phone is the
// upsert key within a profile.
type Input struct {
	AddressType string  `json:"address_type" validate:"omitempty,oneof=Home Office Friend Other"`
	POCName     string  `json:"poc_name" validate:"required,max=120"`
	Phone       string  `json:"phone" validate:"required,phone"`
	Line1       string  `json:"line_1" validate:"required,max=255"`
	Line2       *string `json:"line_2,omitempty" validate:"omitempty,max=255"`
	City        string  `json:"city" validate:"required,max=120"`
	State       string  `json:"state" validate:"required,max=120"`
	Pin         int     `json:"pin" validate:"required,gte=100000,lte=999999"`
	Landmark    *string `json:"landmark,omitempty" validate:"omitempty,max=255"`
}

func (in Input) toModel(profileID uuid.UUID, kind enums.AddressType) models.UserAddress {
	return models.UserAddress{
		ProfileID:   profileID,
		AddressType: kind,
		POCName:     strings.TrimSpace(in.POCName),
		Phone:       NormalizePhone(in.Phone),
		Line1:       strings.TrimSpace(in.Line1),
		Line2:       trimmed(in.Line2),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		Pin:         in.Pin,
		Landmark:    trimmed(in.Landmark),
	}
}

// NormalizePhone strips spaces and dashes so lookups by phone are stable.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}
