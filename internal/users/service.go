package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CartCounter reports how many active cart lines a user holds.
type CartCounter interface {
	CountActive(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ProfileService reads and edits the signed-in user's profile.
type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	DeleteAddress(ctx context.Context, userID uuid.UUID, phone string) error
}

type profileService struct {
	repo      *Repository
	tx        txRunner
	addresses address.Service
	carts     CartCounter
}

func NewProfileService(repo *Repository, tx txRunner, addresses address.Service, carts CartCounter) (ProfileService, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address service required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart counter required")
	}
	return &profileService{repo: repo, tx: tx, addresses: addresses, carts: carts}, nil
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return nil, profileLookupError(err)
	}
	count, err := s.carts.CountActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count cart items")
	}
	addresses, err := s.addresses.List(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	return profileDTO(profile, count, addresses), nil
}

func (s *profileService) Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.DOB != nil {
		dob, err := parseDOB(strings.TrimSpace(*input.DOB))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "dob must be YYYY-MM-DD")
		}
		updates["dob"] = dob
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		profile, err := repo.FindProfile(ctx, userID)
		if err != nil {
			return profileLookupError(err)
		}
		if err := repo.UpdateProfile(ctx, profile.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}
		if input.Address != nil {
			if _, err := s.addresses.Upsert(ctx, tx, profile.ID, *input.Address); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *profileService) DeleteAddress(ctx context.Context, userID uuid.UUID, phone string) error {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return profileLookupError(err)
	}
	return s.addresses.Delete(ctx, profile.ID, phone)
}

func profileLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
}
