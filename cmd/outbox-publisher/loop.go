package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

// Run polls until ctx is canceled. A failed batch doubles the wait up to
// maxBackoff. An idle poll gives the retention sweeper a turn.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		seen, err := s.processBatch(ctx)
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			if err := sleep(ctx, withJitter(s.poll.fail())); err != nil {
				return err
			}
		case seen:
			s.poll.reset()
		default:
			s.poll.reset()
			s.sweep(ctx)
			if err := sleep(ctx, withJitter(s.poll.base)); err != nil {
				return err
			}
		}
	}
}

func (s *Service) ready(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{
		"database": s.db.Ping,
		"pubsub":   s.pubsub.Ping,
	} {
		if err := ping(ctx); err != nil {
			s.logg.Error(ctx, name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	return nil
}

func (s *Service) sweep(ctx context.Context) {
	if s.retention == nil {
		return
	}
	if err := s.retention.MaybeRun(ctx); err != nil {
		s.logg.Error(ctx, "outbox retention sweep failed", err)
	}
}

type backoff struct {
	base    time.Duration
	current time.Duration
}

func newBackoff(base time.Duration) backoff {
	return backoff{base: base, current: base}
}

func (b *backoff) fail() time.Duration {
	b.current = nextBackoff(b.current, b.base, maxBackoff)
	return b.current
}

func (b *backoff) reset() {
	b.current = b.base
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	return min(current*2, max)
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
