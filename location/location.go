// Package location acquires the device's current coordinates for an alert.
// Every failure collapses to "no fix": a missing location never stops an
// alert from going out.
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Daskott/sos/colors"
	"github.com/Daskott/sos/permissions"
	"go.uber.org/zap"
)

var ErrNoSource = errors.New("no location source configured")

// Fix is a single point-in-time location reading.
type Fix struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"captured_at"`
}

func (fix Fix) CapturedAtEpochMs() int64 {
	return fix.CapturedAt.UnixNano() / int64(time.Millisecond)
}

// Source produces a fresh fix. Implementations should honor ctx.
type Source interface {
	CurrentFix(ctx context.Context) (Fix, error)
}

// PermissionGate resolves the location permission, prompting if needed.
type PermissionGate interface {
	Ensure(ctx context.Context, kind permissions.Kind) permissions.Status
}

type Provider struct {
	gate   PermissionGate
	source Source
	now    func() time.Time
	logg   *zap.SugaredLogger

	mu   sync.Mutex
	last *Fix
}

func NewProvider(gate PermissionGate, source Source, logg *zap.SugaredLogger) *Provider {
	return &Provider{gate: gate, source: source, now: time.Now, logg: logg}
}

// WithClock replaces the clock used to age cached fixes.
func (provider *Provider) WithClock(now func() time.Time) *Provider {
	provider.now = now
	return provider
}

// Acquire returns the current fix, or nil when permission is not granted, the
// source fails, or no fix arrives within 'timeout'. A cached fix younger than
// 'maxStaleness' is returned without querying the source. Cancelling 'ctx'
// only interrupts the permission prompt; a started fetch still runs until
// 'timeout'.
func (provider *Provider) Acquire(ctx context.Context, timeout, maxStaleness time.Duration) *Fix {
	if status := provider.gate.Ensure(ctx, permissions.Location); status != permissions.Granted {
		provider.logInfof("location permission is %v, continuing without location", status)
		return nil
	}

	if fix := provider.cachedFix(maxStaleness); fix != nil {
		provider.logInfof("using cached fix captured at %v", fix.CapturedAt.Format(time.RFC3339))
		return fix
	}

	fix, err := provider.fetch(context.WithoutCancel(ctx), timeout)
	if err != nil {
		provider.logWarnf("unable to get location: %v", err)
		return nil
	}

	provider.mu.Lock()
	provider.last = &fix
	provider.mu.Unlock()

	return &fix
}

func (provider *Provider) fetch(ctx context.Context, timeout time.Duration) (Fix, error) {
	if provider.source == nil {
		return Fix{}, ErrNoSource
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		fix Fix
		err error
	}

	// buffered: the source may answer after we stop waiting
	resultChan := make(chan result, 1)
	go func() {
		fix, err := provider.source.CurrentFix(ctx)
		resultChan <- result{fix, err}
	}()

	select {
	case <-ctx.Done():
		return Fix{}, ctx.Err()
	case res := <-resultChan:
		if res.err != nil {
			return Fix{}, res.err
		}

		if res.fix.CapturedAt.IsZero() {
			res.fix.CapturedAt = provider.now()
		}

		return res.fix, nil
	}
}

func (provider *Provider) cachedFix(maxStaleness time.Duration) *Fix {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	if provider.last == nil || maxStaleness <= 0 {
		return nil
	}

	if provider.now().Sub(provider.last.CapturedAt) > maxStaleness {
		return nil
	}

	fix := *provider.last
	return &fix
}

func (provider *Provider) logInfof(template string, args ...interface{}) {
	provider.logg.Infof(colors.Prefix(colors.Blue, "location")+template, args...)
}

func (provider *Provider) logWarnf(template string, args ...interface{}) {
	provider.logg.Warnf(colors.Prefix(colors.Yellow, "location")+template, args...)
}
