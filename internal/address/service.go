package address

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service manages the saved addresses of one profile.
type Service interface {
	Upsert(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, input Input) (*DTO, error)
	Delete(ctx context.Context, profileID uuid.UUID, phone string) error
	List(ctx context.Context, profileID uuid.UUID) ([]DTO, error)
	FindByPhone(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, phone string) (*DTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

// Upsert writes through tx when it is non-nil.
func (s *service) Upsert(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, input Input) (*DTO, error) {
	if profileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id is required")
	}
	kind, err := enums.ParseAddressType(input.AddressType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address_type")
	}
	row := input.toModel(profileID, kind)
	if row.Phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	repo := s.repo.WithTx(tx)
	if err := repo.Upsert(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save address")
	}
	saved, err := repo.FindByPhone(ctx, profileID, row.Phone)
	if err != nil || saved == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload address")
	}
	return FromModel(saved), nil
}

func (s *service) Delete(ctx context.Context, profileID uuid.UUID, phone string) error {
	phone = NormalizePhone(phone)
	if phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	removed, err := s.repo.DeleteByPhone(ctx, profileID, phone)
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "address is used by an order")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, profileID uuid.UUID) ([]DTO, error) {
	rows, err := s.repo.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]DTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// FindByPhone returns NOT_FOUND "shipping address not found" when missing.
func (s *service) FindByPhone(ctx context.Context, tx *gorm.DB, profileID uuid.UUID, phone string) (*DTO, error) {
	row, err := s.repo.WithTx(tx).FindByPhone(ctx, profileID, NormalizePhone(phone))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping address not found")
	}
	return FromModel(row), nil
}
