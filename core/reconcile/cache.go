package reconcile

import (
	"context"
	"sync"
	"time"

	"variant-manager/core/variant"

	"golang.org/x/sync/singleflight"
)

// Snapshot holds the indexes of all three trees taken at one point in time.
type Snapshot struct {
	Main    Index
	Channel Index
	Output  Index

	// Built is the timestamp when this snapshot was taken.
	Built time.Time

	// TTL is the time-to-live for this snapshot.
	TTL time.Duration
}

// IsExpired returns true if this snapshot has expired based on its TTL.
func (s *Snapshot) IsExpired() bool {
	if s.TTL == 0 {
		return true
	}
	return time.Since(s.Built) > s.TTL
}

// snapshotCache holds the last snapshot of one checker.
type snapshotCache struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	sf       singleflight.Group
}

// BuildSnapshot indexes the main, channel and output trees concurrently.
// It does not store the result; use Snapshot for cached access.
func (c *Checker) BuildSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		mainIndex, channelIndex, outputIndex Index
		mainErr, channelErr, outputErr       error
		wg                                   sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		mainIndex, mainErr = c.loadIndex(ctx, c.roots.Main)
	}()
	go func() {
		defer wg.Done()
		channelIndex, channelErr = c.loadIndex(ctx, c.roots.Channel)
	}()
	go func() {
		defer wg.Done()
		outputIndex, outputErr = c.loadIndex(ctx, c.roots.Output)
	}()
	wg.Wait()

	if mainErr != nil {
		return nil, mainErr
	}
	if channelErr != nil {
		return nil, channelErr
	}
	if outputErr != nil {
		return nil, outputErr
	}

	return &Snapshot{
		Main:    mainIndex,
		Channel: channelIndex,
		Output:  outputIndex,
		Built:   time.Now(),
		TTL:     c.ttl,
	}, nil
}

// Snapshot returns the cached snapshot, or builds a new one if it is missing or expired.
// Concurrent callers share one build.
func (c *Checker) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.cache.mu.RLock()
	snap := c.cache.snapshot
	c.cache.mu.RUnlock()
	if snap != nil && !snap.IsExpired() {
		return snap, nil
	}

	result, err, _ := c.cache.sf.Do("snapshot", func() (any, error) {
		c.cache.mu.RLock()
		snap := c.cache.snapshot
		c.cache.mu.RUnlock()
		if snap != nil && !snap.IsExpired() {
			return snap, nil
		}

		fresh, err := c.BuildSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.mu.Lock()
		c.cache.snapshot = fresh
		c.cache.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Snapshot), nil
}

// Invalidate drops the cached snapshot so the next check rebuilds it.
func (c *Checker) Invalidate() {
	c.cache.mu.Lock()
	c.cache.snapshot = nil
	c.cache.mu.Unlock()
}

// Observe invalidates the cache when an outcome changed the output tree.
func (c *Checker) Observe(_ context.Context, out variant.Outcome) error {
	if out.Changed() {
		c.Invalidate()
	}
	return nil
}

// ObserveSync invalidates the cache after a full sync.
func (c *Checker) ObserveSync(context.Context, *variant.SyncReport) error {
	c.Invalidate()
	return nil
}
