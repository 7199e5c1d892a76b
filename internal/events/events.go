// Package events records the observable state mutations of the accounting
// engine: collateral movements, debt mint/burn and liquidations. The
// recorder keeps a bounded in-memory history and can stream batches to an
// external webhook.
package events

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yourorg/collateral-engine/internal/model"
)

// Type enumerates the engine's observable events.
type Type string

// Event types.
const (
	TypeCollateralDeposited Type = "collateral_deposited"
	TypeCollateralRedeemed  Type = "collateral_redeemed"
	TypeDebtMinted          Type = "debt_minted"
	TypeDebtBurned          Type = "debt_burned"
	TypeLiquidation         Type = "liquidation"
	TypeFeeRouted           Type = "fee_routed"
)

// Event is a single observable state mutation.
type Event struct {
	Type Type `json:"type"`

	// From is the account whose position changed.
	From common.Address `json:"from"`

	// To is the receiving party where one exists (redeem target,
	// liquidator, yield pool), zero otherwise.
	To common.Address `json:"to,omitempty"`

	// Asset is the collateral type involved, empty for pure debt events.
	Asset model.Asset `json:"asset,omitempty"`

	// Amount is the token or debt-unit amount moved.
	Amount *big.Int `json:"amount"`

	// At is when the event was recorded.
	At time.Time `json:"at"`
}

// Recorder keeps a bounded event history and fans events out to an
// optional exporter.
type Recorder struct {
	mu      sync.RWMutex
	history []Event
	max     int

	exporter *Exporter
}

// NewRecorder creates a recorder keeping at most max events. A
// non-positive max falls back to 1000.
func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = 1_000
	}
	return &Recorder{max: max}
}

// WithExporter attaches a webhook exporter and returns the recorder.
func (r *Recorder) WithExporter(exporter *Exporter) *Recorder {
	r.exporter = exporter
	return r
}

// Record appends an event, stamping it if unstamped, and forwards it to
// the exporter when one is attached.
func (r *Recorder) Record(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if ev.Amount != nil {
		ev.Amount = new(big.Int).Set(ev.Amount)
	}

	r.mu.Lock()
	r.history = append(r.history, ev)
	if len(r.history) > r.max {
		r.history = r.history[len(r.history)-r.max:]
	}
	r.mu.Unlock()

	if r.exporter != nil {
		r.exporter.Add(ev)
	}
}

// Recent returns up to n most recent events, newest last.
func (r *Recorder) Recent(n int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > len(r.history) {
		n = len(r.history)
	}
	out := make([]Event, n)
	copy(out, r.history[len(r.history)-n:])
	return out
}

// Len returns the number of retained events.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.history)
}
