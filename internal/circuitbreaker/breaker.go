// Package circuitbreaker provides a defensive mechanism that freezes
// price-dependent operations for a collateral type when its oracle reports
// an implausible price drop, distinguishing corrupted feeds from ordinary
// market moves.
package circuitbreaker

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/collateral-engine/internal/model"
	"github.com/yourorg/collateral-engine/internal/numeric"
)

// State represents the per-asset breaker state.
type State int

// Breaker states.
const (
	StateLive   State = iota // Valuations served normally
	StateFrozen              // Tripped; valuations fail until cooldown expires
)

// String returns the state's wire name.
func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateFrozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// Default calibration.
const (
	DefaultAllowedDropBps = 2_000 // 20% maximum drop between accepted quotes
	DefaultCooldown       = time.Hour
)

var (
	// ErrPriceIsZero indicates the stored last good price is zero, a
	// corrupt state that would otherwise permit unlimited relative drop.
	ErrPriceIsZero = errors.New("circuitbreaker: last good price is zero")

	// ErrUnknownAsset indicates no breaker state was registered for the
	// requested collateral type.
	ErrUnknownAsset = errors.New("circuitbreaker: asset not registered")

	// ErrInvalidAnchor indicates an attempt to register an asset with a
	// non-positive initial price.
	ErrInvalidAnchor = errors.New("circuitbreaker: initial price must be positive")
)

// FrozenError is returned while a collateral type's valuations are paused.
// Remaining carries the cooldown left before quotes are served again.
type FrozenError struct {
	Asset     model.Asset
	Remaining time.Duration
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("circuitbreaker: %s valuation frozen, %s of cooldown remaining", e.Asset, e.Remaining.Round(time.Millisecond))
}

// assetState tracks one collateral type. frozenAt.IsZero() means live.
type assetState struct {
	lastGood *big.Int
	frozenAt time.Time
}

// Breaker evaluates fresh quotes against the last accepted price per
// collateral type and trips into a timed freeze on an implausible drop.
type Breaker struct {
	allowedDropBps uint64
	cooldown       time.Duration

	mu     sync.RWMutex
	states map[model.Asset]*assetState

	now func() time.Time

	// Called on every Live->Frozen transition, for alerting/metrics.
	onTrip func(asset model.Asset, lastGood, observed *big.Int)
}

// New creates a Breaker with the given drop threshold (basis points) and
// cooldown window. Zero values fall back to the defaults.
func New(allowedDropBps uint64, cooldown time.Duration) *Breaker {
	if allowedDropBps == 0 {
		allowedDropBps = DefaultAllowedDropBps
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Breaker{
		allowedDropBps: allowedDropBps,
		cooldown:       cooldown,
		states:         make(map[model.Asset]*assetState),
		now:            time.Now,
	}
}

// WithClock overrides the time source and returns the breaker, used by tests.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// WithTripCallback sets a callback invoked whenever the breaker trips.
func (b *Breaker) WithTripCallback(callback func(asset model.Asset, lastGood, observed *big.Int)) *Breaker {
	b.onTrip = callback
	return b
}

// Cooldown returns the configured freeze window.
func (b *Breaker) Cooldown() time.Duration {
	return b.cooldown
}

// Register anchors a collateral type at its initial observed price. The
// asset set is fixed at construction; re-registering an asset is an error
// surfaced as a replaced anchor and is not supported.
func (b *Breaker) Register(asset model.Asset, initialPrice *big.Int) error {
	if initialPrice == nil || initialPrice.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAnchor, asset)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.states[asset]; exists {
		return fmt.Errorf("circuitbreaker: asset %s already registered", asset)
	}
	b.states[asset] = &assetState{lastGood: new(big.Int).Set(initialPrice)}
	logrus.Debugf("Circuit breaker anchored %s at %s", asset, initialPrice)
	return nil
}

// Validate evaluates a fresh normalized quote for the asset.
//
// While frozen it fails with FrozenError carrying the remaining cooldown.
// Once the cooldown has expired, the first observed price re-anchors the
// last good price unconditionally; the pre-freeze price is not consulted
// again, so a second drop can re-trip immediately. In the live state a
// quote below lastGood - lastGood*allowedDrop trips the breaker, otherwise
// the quote is accepted and becomes the new last good price.
func (b *Breaker) Validate(asset model.Asset, observed *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	now := b.now()

	if !st.frozenAt.IsZero() {
		until := st.frozenAt.Add(b.cooldown)
		if now.Before(until) {
			return nil, &FrozenError{Asset: asset, Remaining: until.Sub(now)}
		}
		// Cooldown expired: thaw and re-anchor to whatever the feed
		// reports now.
		st.frozenAt = time.Time{}
		st.lastGood = new(big.Int).Set(observed)
		logrus.Infof("Circuit breaker for %s recovered, re-anchored at %s", asset, observed)
		return new(big.Int).Set(observed), nil
	}

	if st.lastGood.Sign() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPriceIsZero, asset)
	}

	maxDrop := numeric.ApplyBps(st.lastGood, b.allowedDropBps)
	floor := new(big.Int).Sub(st.lastGood, maxDrop)
	if observed == nil || observed.Cmp(floor) < 0 {
		st.frozenAt = now
		logrus.Warnf("Circuit breaker tripped for %s: observed %s below floor %s (last good %s)",
			asset, observed, floor, st.lastGood)
		if b.onTrip != nil {
			b.onTrip(asset, new(big.Int).Set(st.lastGood), numeric.Clone(observed))
		}
		return nil, &FrozenError{Asset: asset, Remaining: b.cooldown}
	}

	st.lastGood = new(big.Int).Set(observed)
	return new(big.Int).Set(observed), nil
}

// StateOf reports the asset's current state and, when frozen, the remaining
// cooldown. Unknown assets report as live with no cooldown.
func (b *Breaker) StateOf(asset model.Asset) (State, time.Duration) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.states[asset]
	if !ok || st.frozenAt.IsZero() {
		return StateLive, 0
	}
	remaining := st.frozenAt.Add(b.cooldown).Sub(b.now())
	if remaining <= 0 {
		// Cooldown has lapsed; the next Validate call completes the thaw.
		return StateLive, 0
	}
	return StateFrozen, remaining
}

// LastGoodPrice returns the stored anchor for an asset, or nil when the
// asset is unknown.
func (b *Breaker) LastGoodPrice(asset model.Asset) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.states[asset]
	if !ok {
		return nil
	}
	return new(big.Int).Set(st.lastGood)
}
