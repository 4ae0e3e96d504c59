package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"golang.org/x/sync/singleflight"
)

// CachedProvider serves the latest settings row, falling back to settings.Default when none
// exists. Loads are cached for ttl and concurrent misses share one query.
type CachedProvider struct {
	repo settings.SettingsRepository
	ttl  time.Duration
	now  func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	cached   settings.AttendanceSettings
	loadedAt time.Time
	loaded   bool
}

func NewCachedProvider(repo settings.SettingsRepository, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

var _ settings.Provider = (*CachedProvider)(nil)

// Current implements settings.Provider.
func (p *CachedProvider) Current(ctx context.Context) (settings.AttendanceSettings, error) {
	if cfg, ok := p.fresh(); ok {
		return cfg, nil
	}

	v, err, _ := p.group.Do("latest", func() (interface{}, error) {
		if cfg, ok := p.fresh(); ok {
			return cfg, nil
		}
		cfg, err := p.load(ctx)
		if err != nil {
			return nil, err
		}
		p.Set(cfg)
		return cfg, nil
	})
	if err != nil {
		return settings.AttendanceSettings{}, err
	}
	return v.(settings.AttendanceSettings), nil
}

// Locked implements settings.Provider. It reads through to the store and refreshes the cache
// with what it finds.
func (p *CachedProvider) Locked(ctx context.Context) (settings.AttendanceSettings, error) {
	if err := p.repo.LockShared(ctx); err != nil {
		return settings.AttendanceSettings{}, err
	}
	cfg, err := p.load(ctx)
	if err != nil {
		return settings.AttendanceSettings{}, err
	}
	p.Set(cfg)
	return cfg, nil
}

// Set primes the cache, e.g. right after a new settings row is committed.
func (p *CachedProvider) Set(cfg settings.AttendanceSettings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = cfg
	p.loadedAt = p.now()
	p.loaded = true
}

// Invalidate forces the next Current call to hit the store.
func (p *CachedProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = false
}

func (p *CachedProvider) fresh() (settings.AttendanceSettings, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.loaded || p.ttl <= 0 || p.now().Sub(p.loadedAt) >= p.ttl {
		return settings.AttendanceSettings{}, false
	}
	return p.cached, true
}

func (p *CachedProvider) load(ctx context.Context) (settings.AttendanceSettings, error) {
	cfg, err := p.repo.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, settings.ErrSettingsNotFound) {
			return settings.Default(), nil
		}
		return settings.AttendanceSettings{}, fmt.Errorf("failed to get latest attendance settings: %w", err)
	}
	return cfg, nil
}
