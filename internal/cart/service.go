package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service exposes the cart state machine and the priced cart view.
type Service interface {
	Mutate(ctx context.Context, userID, variantID uuid.UUID, action string) (*MutationResult, error)
	View(ctx context.Context, userID uuid.UUID) (*View, error)
}

type service struct {
	repo        CartRepository
	tx          txRunner
	users       userReader
	pricing     pricer
	mediaPrefix string
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, users userReader, pricing pricer, mediaPrefix string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if pricing == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		users:       users,
		pricing:     pricing,
		mediaPrefix: mediaPrefix,
	}, nil
}

// Mutate applies add or remove to the (user, variant) line in one transaction.
//
//	add:    absent -> 1, inactive -> 1, n -> n+1
//	remove: n>1 -> n-1, 1 -> deleted, absent/inactive -> no-op (0)
func (s *service) Mutate(ctx context.Context, userID, variantID uuid.UUID, raw string) (*MutationResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant_id is required")
	}
	action, err := enums.ParseCartAction(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "action must be add or remove")
	}

	var result MutationResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		variant, err := repo.VariantByID(ctx, variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
		}

		line, err := repo.FindLine(ctx, userID, variantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
		}

		quantity, err := applyAction(ctx, repo, action, userID, variant, line)
		if err != nil {
			return err
		}

		subtotal, err := repo.ActiveSubtotal(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute subtotal")
		}

		result = MutationResult{
			Quantity: quantity,
			Subtotal: subtotal,
			TotalAmt: variant.Price * int64(quantity),
			Success:  true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func applyAction(ctx context.Context, repo CartRepository, action enums.CartAction, userID uuid.UUID, variant *models.ProductVariant, line *models.CartItem) (int, error) {
	switch action {
	case enums.CartActionAdd:
		if !variant.IsActive {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
		if line == nil {
			created := &models.CartItem{UserID: userID, VariantID: variant.ID, Quantity: 1, IsActive: true}
			if err := repo.CreateLine(ctx, created); err != nil {
				if db.IsUniqueViolation(err, "") {
					return 0, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart line was added concurrently, retry")
				}
				return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
			}
			return 1, nil
		}
		quantity := 1
		if line.IsActive {
			quantity = line.Quantity + 1
		}
		if err := repo.UpdateLine(ctx, line.ID, quantity, true); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return quantity, nil

	case enums.CartActionRemove:
		if line == nil || !line.IsActive {
			return 0, nil
		}
		if line.Quantity <= 1 {
			if err := repo.DeleteLine(ctx, line.ID); err != nil {
				return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
			}
			return 0, nil
		}
		quantity := line.Quantity - 1
		if err := repo.UpdateLine(ctx, line.ID, quantity, true); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return quantity, nil
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, "action must be add or remove")
}

// View prices the active lines of the user's cart.
func (s *service) View(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	lines, err := s.repo.ActiveLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart lines")
	}

	var subtotal int64
	variants := make([]LineDTO, 0, len(lines))
	for _, line := range lines {
		if line.Variant == nil {
			continue
		}
		amount := line.Variant.Price * int64(line.Quantity)
		subtotal += amount
		variants = append(variants, LineDTO{
			VariantDTO: catalog.NewVariantDTO(*line.Variant, s.mediaPrefix, line.Quantity),
			TotalAmt:   amount,
		})
	}

	totals, err := s.pricing.Price(ctx, userID, subtotal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "price cart")
	}
	return &View{
		Username: user.Username,
		Subtotal: totals.Subtotal,
		GST:      totals.GST,
		Shipping: totals.Shipping,
		Total:    totals.Total,
		Variants: variants,
	}, nil
}
