package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
)

type stubUsers struct {
	user *models.User
}

func (s stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type cartHarness struct {
	db      *gorm.DB
	repo    *Repository
	svc     Service
	user    *models.User
	variant func(price int64, active bool) models.ProductVariant
}

func newHarness(t *testing.T) cartHarness {
	t.Helper()
	conn := dbtest.Open(t)
	user := &models.User{Username: "9999999999", IsActive: true}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	calc, err := pricing.NewCalculator(config.PricingConfig{TaxRate: "0.18"}, pricing.FlatRateShipping{Fee: 200})
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.Wrap(conn), stubUsers{user: user}, calc, "/media/")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	product := models.Product{Name: "Mug"}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	category := models.Category{Name: "Kitchen"}
	if err := conn.Create(&category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	n := 0
	makeVariant := func(price int64, active bool) models.ProductVariant {
		n++
		v := models.ProductVariant{
			ProductID:    product.ID,
			CategoryID:   category.ID,
			Name:         "Mug " + string(rune('A'+n)),
			Price:        price,
			CurrentStock: 10,
			IsActive:     active,
		}
		if err := conn.Create(&v).Error; err != nil {
			t.Fatalf("create variant: %v", err)
		}
		return v
	}
	return cartHarness{db: conn, repo: repo, svc: svc, user: user, variant: makeVariant}
}

func TestMutateAddAddRemoveRemove(t *testing.T) {
	h := newHarness(t)
	v := h.variant(1000, true)
	ctx := context.Background()

	steps := []struct {
		action   string
		quantity int
		subtotal int64
	}{
		{"add", 1, 1000},
		{"add", 2, 2000},
		{"remove", 1, 1000},
		{"remove", 0, 0},
	}
	for i, step := range steps {
		res, err := h.svc.Mutate(ctx, h.user.ID, v.ID, step.action)
		if err != nil {
			t.Fatalf("step %d %s: %v", i, step.action, err)
		}
		if res.Quantity != step.quantity || res.Subtotal != step.subtotal || !res.Success {
			t.Fatalf("step %d: got %+v, want quantity=%d subtotal=%d", i, res, step.quantity, step.subtotal)
		}
		if res.TotalAmt != v.Price*int64(step.quantity) {
			t.Fatalf("step %d: unexpected total_amt %d", i, res.TotalAmt)
		}
	}

	line, err := h.repo.FindLine(ctx, h.user.ID, v.ID)
	if err != nil {
		t.Fatalf("find line: %v", err)
	}
	if line != nil {
		t.Fatalf("expected line to be deleted, got %+v", line)
	}
}

func TestMutateRemoveAbsentIsNoop(t *testing.T) {
	h := newHarness(t)
	v := h.variant(500, true)

	res, err := h.svc.Mutate(context.Background(), h.user.ID, v.ID, "remove")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if res.Quantity != 0 || res.Subtotal != 0 {
		t.Fatalf("expected no-op result, got %+v", res)
	}
}

func TestMutateReactivationResetsQuantity(t *testing.T) {
	h := newHarness(t)
	v := h.variant(300, true)
	line := models.CartItem{UserID: h.user.ID, VariantID: v.ID, Quantity: 4, IsActive: false}
	if err := h.db.Create(&line).Error; err != nil {
		t.Fatalf("seed line: %v", err)
	}

	res, err := h.svc.Mutate(context.Background(), h.user.ID, v.ID, "ADD")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res.Quantity != 1 || res.Subtotal != 300 {
		t.Fatalf("expected reactivated line at quantity 1, got %+v", res)
	}

	removed, err := h.svc.Mutate(context.Background(), h.user.ID, v.ID, "remove")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Quantity != 0 {
		t.Fatalf("expected removal, got %+v", removed)
	}
}

func TestMutateSubtotalIgnoresInactiveLines(t *testing.T) {
	h := newHarness(t)
	live := h.variant(250, true)
	stale := h.variant(9000, true)
	if err := h.db.Create(&models.CartItem{UserID: h.user.ID, VariantID: stale.ID, Quantity: 3, IsActive: false}).Error; err != nil {
		t.Fatalf("seed inactive line: %v", err)
	}

	res, err := h.svc.Mutate(context.Background(), h.user.ID, live.ID, "add")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res.Subtotal != 250 {
		t.Fatalf("expected subtotal over active lines only, got %d", res.Subtotal)
	}
}

func TestMutateErrors(t *testing.T) {
	h := newHarness(t)
	v := h.variant(100, true)
	retired := h.variant(100, false)
	ctx := context.Background()

	if _, err := h.svc.Mutate(ctx, h.user.ID, v.ID, "toss"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad action, got %v", err)
	}
	if _, err := h.svc.Mutate(ctx, h.user.ID, uuid.New(), "add"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown variant, got %v", err)
	}
	if _, err := h.svc.Mutate(ctx, h.user.ID, retired.ID, "add"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for inactive variant, got %v", err)
	}
	if _, err := h.svc.Mutate(ctx, uuid.Nil, v.ID, "add"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for anonymous user, got %v", err)
	}
}

// racingRepo hides existing lines so Mutate inserts a duplicate, as a
// concurrent add would.
type racingRepo struct {
	*Repository
}

func (r racingRepo) WithTx(tx *gorm.DB) CartRepository {
	return racingRepo{Repository: r.Repository.WithTx(tx).(*Repository)}
}

func (racingRepo) FindLine(context.Context, uuid.UUID, uuid.UUID) (*models.CartItem, error) {
	return nil, nil
}

func TestMutateConcurrentAddIsConflict(t *testing.T) {
	h := newHarness(t)
	v := h.variant(100, true)
	ctx := context.Background()
	if _, err := h.svc.Mutate(ctx, h.user.ID, v.ID, "add"); err != nil {
		t.Fatalf("seed add: %v", err)
	}

	calc, err := pricing.NewCalculator(config.PricingConfig{TaxRate: "0.18"}, pricing.FlatRateShipping{Fee: 200})
	if err != nil {
		t.Fatalf("calculator: %v", err)
	}
	racing, err := NewService(racingRepo{Repository: h.repo}, db.Wrap(h.db), stubUsers{user: h.user}, calc, "/media/")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := racing.Mutate(ctx, h.user.ID, v.ID, "add"); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for duplicate line, got %v", err)
	}
}

func TestViewPricesActiveLines(t *testing.T) {
	h := newHarness(t)
	v := h.variant(1000, true)
	stale := h.variant(700, true)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := h.svc.Mutate(ctx, h.user.ID, v.ID, "add"); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := h.db.Create(&models.CartItem{UserID: h.user.ID, VariantID: stale.ID, Quantity: 1, IsActive: false}).Error; err != nil {
		t.Fatalf("seed inactive line: %v", err)
	}

	view, err := h.svc.View(ctx, h.user.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Subtotal != 2000 || view.GST != 360 || view.Shipping != 200 || view.Total != 2560 {
		t.Fatalf("unexpected totals %+v", view)
	}
	if view.Username != "9999999999" {
		t.Fatalf("unexpected username %q", view.Username)
	}
	if len(view.Variants) != 1 {
		t.Fatalf("expected only the active line, got %d", len(view.Variants))
	}
	if got := view.Variants[0]; got.Quantity != 2 || got.TotalAmt != 2000 || got.ID != v.ID {
		t.Fatalf("unexpected line %+v", got)
	}
}

func TestViewEmptyCartHasNoShipping(t *testing.T) {
	h := newHarness(t)
	view, err := h.svc.View(context.Background(), h.user.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Total != 0 || len(view.Variants) != 0 {
		t.Fatalf("expected empty priced cart, got %+v", view)
	}
}

func TestActiveQuantitiesAndCount(t *testing.T) {
	h := newHarness(t)
	a := h.variant(100, true)
	b := h.variant(100, true)
	ctx := context.Background()
	for _, id := range []uuid.UUID{a.ID, a.ID, b.ID} {
		if _, err := h.svc.Mutate(ctx, h.user.ID, id, "add"); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	quantities, err := h.repo.ActiveQuantities(ctx, h.user.ID, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if err != nil {
		t.Fatalf("quantities: %v", err)
	}
	if quantities[a.ID] != 2 || quantities[b.ID] != 1 || len(quantities) != 2 {
		t.Fatalf("unexpected quantities %v", quantities)
	}
	if count, err := h.repo.CountActive(ctx, h.user.ID); err != nil || count != 2 {
		t.Fatalf("expected 2 active lines, got %d (%v)", count, err)
	}

	lines, err := h.repo.ActiveLines(ctx, h.user.ID)
	if err != nil {
		t.Fatalf("active lines: %v", err)
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ID)
	}
	if err := h.repo.DeactivateLines(ctx, ids); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if count, _ := h.repo.CountActive(ctx, h.user.ID); count != 0 {
		t.Fatalf("expected no active lines after deactivation, got %d", count)
	}
}
