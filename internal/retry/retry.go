// Package retry содержит утилиты повторных попыток.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff рассчитывает экспоненциальные задержки с опциональным полным джиттером.
type Backoff struct {
	Base   time.Duration
	Cap    time.Duration
	Jitter bool
}

// NewBackoff создает Backoff, база не превышает потолок.
func NewBackoff(base time.Duration, capDur time.Duration, jitter bool) *Backoff {
	if capDur > 0 && base > capDur {
		base = capDur
	}
	return &Backoff{Base: base, Cap: capDur, Jitter: jitter}
}

// WaitDuration возвращает задержку для попытки повтора (0-базовая).
func (b *Backoff) WaitDuration(attempt int) time.Duration {
	if b == nil || b.Base <= 0 || attempt < 0 {
		return 0
	}

	wait := b.Base
	for i := 0; i < attempt; i++ {
		if wait > math.MaxInt64/2 {
			wait = math.MaxInt64
			break
		}
		wait *= 2
		if b.Cap > 0 && wait >= b.Cap {
			break
		}
	}
	if b.Cap > 0 && wait > b.Cap {
		wait = b.Cap
	}
	if !b.Jitter || wait <= 0 {
		return wait
	}
	return time.Duration(rand.Int64N(int64(wait) + 1))
}

// Notify вызывается после неуспешной попытки (1-базовая) перед ожиданием.
type Notify func(err error, attempt int, wait time.Duration)

// Policy задает правила повторов.
type Policy struct {
	MaxRetries  int
	Backoff     *Backoff
	ShouldRetry func(err error) bool
}

// Do выполняет op, пока она не вернет nil, ошибку без повтора, или не кончатся попытки.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error, notify Notify) error {
	maxRetries := max(policy.MaxRetries, 0)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if policy.ShouldRetry != nil && !policy.ShouldRetry(lastErr) {
			return lastErr
		}
		if attempt == maxRetries {
			break
		}

		wait := policy.Backoff.WaitDuration(attempt)
		if notify != nil {
			notify(lastErr, attempt+1, wait)
		}
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
