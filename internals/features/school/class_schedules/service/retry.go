// file: internals/features/school/class_schedules/service/retry.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 100 * time.Millisecond
)

// RetryPolicy: backoff linear BaseDelay*attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// OnRetry dipanggil sebelum tidur backoff (metrics/log).
	OnRetry func(attempt int, delay time.Duration, err error)

	noVersionRetry bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// NoVersionRetry: untuk versi eksplisit dari manusia. VersionConflict langsung dikembalikan,
// store down tetap di-retry.
func (p RetryPolicy) NoVersionRetry() RetryPolicy {
	p.noVersionRetry = true
	return p
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) retryable(err error) bool {
	if p.noVersionRetry && errors.Is(err, ErrVersionConflict) {
		return false
	}
	return IsTransient(err)
}

// RunWithRetry menjalankan ulang SELURUH unit kerja (read segar + cek bentrok + CAS) tiap attempt.
// Error permanen (validasi, bentrok bisnis, not found) langsung dikembalikan.
func RunWithRetry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	limit := p.attempts()

	var last error
	attempt := 1
	for ; ; attempt++ {
		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		if !p.retryable(err) {
			return zero, err
		}
		last = err
		if attempt >= limit {
			break
		}

		delay := p.BaseDelay * time.Duration(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return zero, fmt.Errorf("retry aborted after attempt %d (%v): %w", attempt, last, err)
		}
	}
	return zero, &RetryExhaustedError{Attempts: attempt, Last: last}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
