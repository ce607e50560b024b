package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service exposes order history reads.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) (*OrderList, error)
	Detail(ctx context.Context, userID uuid.UUID, remoteOrderID string) (*OrderDTO, error)
	PublicLookup(ctx context.Context, remoteOrderID string) (*PublicOrder, error)
}

type service struct {
	repo        Repository
	profiles    profileReader
	mediaPrefix string
}

func NewService(repo Repository, profiles profileReader, mediaPrefix string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile reader required")
	}
	return &service{repo: repo, profiles: profiles, mediaPrefix: mediaPrefix}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	params = params.Normalize(DefaultListLimit)
	rows, total, err := s.repo.ListForUser(ctx, userID, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewOrderDTO(&rows[i], s.mediaPrefix))
	}
	return &OrderList{Orders: out, Pagination: pagination.NewOffsetPage(params, total)}, nil
}

func (s *service) Detail(ctx context.Context, userID uuid.UUID, remoteOrderID string) (*OrderDTO, error) {
	remoteOrderID = strings.TrimSpace(remoteOrderID)
	if remoteOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindForUser(ctx, userID, remoteOrderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	dto := NewOrderDTO(order, s.mediaPrefix)
	return &dto, nil
}

// PublicLookup resolves an order by gateway id without an authenticated user.
func (s *service) PublicLookup(ctx context.Context, remoteOrderID string) (*PublicOrder, error) {
	remoteOrderID = strings.TrimSpace(remoteOrderID)
	if remoteOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByRemoteID(ctx, remoteOrderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	profile, err := s.profiles.FindProfile(ctx, order.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	out := &PublicOrder{
		OrderDTO: NewOrderDTO(order, s.mediaPrefix),
		Name:     profile.Name,
		Email:    profile.Email,
	}
	if order.Address != nil {
		out.Phone = order.Address.Phone
	}
	return out, nil
}

func orderLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}
