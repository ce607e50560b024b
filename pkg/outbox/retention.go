package outbox

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultRetention     = 30 * 24 * time.Hour
	defaultSweepInterval = time.Hour
)

type retentionRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type RetentionParams struct {
	Repository retentionRepo
	DB         txRunner
	Logger     *logger.Logger
	Retention  time.Duration
	Interval   time.Duration
	Now        func() time.Time
}

// RetentionSweeper deletes published events past the retention window. It
// runs at most once per interval.
type RetentionSweeper struct {
	repo      retentionRepo
	db        txRunner
	logg      *logger.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	lastRun   time.Time
}

func NewRetentionSweeper(params RetentionParams) (*RetentionSweeper, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &RetentionSweeper{
		repo:      params.Repository,
		db:        params.DB,
		logg:      logg,
		retention: retention,
		interval:  interval,
		now:       now,
	}, nil
}

// MaybeRun sweeps when the interval has elapsed since the last sweep.
func (s *RetentionSweeper) MaybeRun(ctx context.Context) error {
	now := s.now().UTC()
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.interval {
		return nil
	}
	s.lastRun = now

	cutoff := now.Add(-s.retention)
	var deleted int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.DeletePublishedBefore(tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "outbox retention sweep complete")
	return nil
}
