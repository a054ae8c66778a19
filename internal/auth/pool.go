package auth

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// HashObserver receives the duration of each hashing operation.
type HashObserver interface {
	ObservePasswordHash(op string, d time.Duration)
}

// HashPool bounds how many password hashes run at once so that a burst of
// signups or logins cannot monopolise every CPU while token checks and
// other requests wait.
type HashPool struct {
	hasher   PasswordHasher
	sem      *semaphore.Weighted
	observer HashObserver
}

// NewHashPool creates a pool allowing up to workers concurrent hash
// operations. observer may be nil.
func NewHashPool(hasher PasswordHasher, workers int, observer HashObserver) *HashPool {
	if workers < 1 {
		workers = 1
	}
	return &HashPool{
		hasher:   hasher,
		sem:      semaphore.NewWeighted(int64(workers)),
		observer: observer,
	}
}

// Hash hashes password once a slot is free. It fails with ctx.Err() if the
// context ends while waiting.
func (p *HashPool) Hash(ctx context.Context, password string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)

	start := time.Now()
	defer p.observe("hash", start)
	return p.hasher.Hash(password)
}

// Verify compares password against hash once a slot is free.
func (p *HashPool) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer p.sem.Release(1)

	start := time.Now()
	defer p.observe("verify", start)
	return p.hasher.Verify(password, hash)
}

// NeedsUpgrade is cheap and does not take a slot.
func (p *HashPool) NeedsUpgrade(hash string) bool {
	return p.hasher.NeedsUpgrade(hash)
}

func (p *HashPool) observe(op string, start time.Time) {
	if p.observer != nil {
		p.observer.ObservePasswordHash(op, time.Since(start))
	}
}
