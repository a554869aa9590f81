package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/gridsmith/meterbill/internal/config"
	"github.com/gridsmith/meterbill/internal/observability/metrics"
	"go.uber.org/zap"
)

var (
	ErrRateLimited = errors.New("rate_limited")
	ErrCaptureBusy = errors.New("capture_busy")
)

// CaptureLimiter throttles meter-reading submissions per meter and holds a
// short lock so two field devices cannot race a submission for the same
// meter. A nil limiter admits everything.
type CaptureLimiter struct {
	bucket  *TokenBucket
	locker  *Locker
	cfg     config.RateLimitConfig
	log     *zap.Logger
	metrics *metrics.Domain
}

func NewCaptureLimiter(cfg config.Config, bucket *TokenBucket, locker *Locker, log *zap.Logger, m *metrics.Domain) *CaptureLimiter {
	if !cfg.RateLimit.Enabled || bucket == nil {
		return nil
	}
	return &CaptureLimiter{
		bucket:  bucket,
		locker:  locker,
		cfg:     cfg.RateLimit,
		log:     log.Named("ratelimit.capture"),
		metrics: m,
	}
}

// Acquire admits one capture for the meter key. The returned release func
// must be called once the capture completes, successfully or not.
func (c *CaptureLimiter) Acquire(ctx context.Context, meterKey string) (func(), error) {
	if c == nil {
		return func() {}, nil
	}

	res, err := c.bucket.Allow(ctx, "capture:rate:"+meterKey, c.cfg.CaptureRate, c.cfg.CaptureBurst)
	if err != nil {
		// Redis trouble must not block field capture.
		c.log.Warn("rate limiter unavailable, admitting capture", zap.Error(err))
		return func() {}, nil
	}
	if !res.Allowed {
		c.deny("rate")
		return nil, ErrRateLimited
	}

	if c.locker == nil {
		return func() {}, nil
	}
	ttl := time.Duration(c.cfg.CaptureLockTTLSecs) * time.Second
	lockKey := "capture:lock:" + meterKey
	token, ok, err := c.locker.TryLock(ctx, lockKey, ttl)
	if err != nil {
		c.log.Warn("capture lock unavailable, admitting capture", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		c.deny("lock")
		return nil, ErrCaptureBusy
	}

	return func() {
		if err := c.locker.Release(context.Background(), lockKey, token); err != nil {
			c.log.Warn("capture lock release failed", zap.Error(err))
		}
	}, nil
}

func (c *CaptureLimiter) deny(reason string) {
	if c.metrics != nil {
		c.metrics.RateLimitDenied.WithLabelValues(reason).Inc()
	}
}
