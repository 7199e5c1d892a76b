// Package engine implements the collateral accounting core: deposits,
// debt issuance, redemption, burning and liquidation over per-account
// collateral and debt ledgers, gated by oracle valuation, a price circuit
// breaker and the minimum health factor.
//
// Every state-changing operation runs under a single mutex, snapshots both
// ledgers up front, performs internal effects before any token
// interaction, and rolls the snapshots back (compensating completed
// interactions in reverse) if anything fails. Callers therefore observe
// each operation as all-or-nothing.
package engine

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/collateral-engine/internal/circuitbreaker"
	"github.com/yourorg/collateral-engine/internal/events"
	"github.com/yourorg/collateral-engine/internal/health"
	"github.com/yourorg/collateral-engine/internal/journal"
	"github.com/yourorg/collateral-engine/internal/ledger"
	"github.com/yourorg/collateral-engine/internal/model"
	"github.com/yourorg/collateral-engine/internal/numeric"
	"github.com/yourorg/collateral-engine/internal/oracle"
	"github.com/yourorg/collateral-engine/internal/valuation"
)

// DefaultLiquidationBonusBps is the liquidator's incentive: 10% extra
// collateral on top of the debt covered.
const DefaultLiquidationBonusBps = 1_000

// DebtToken is the debt-unit token the engine issues and retires. The
// engine must be its authorized minter.
type DebtToken interface {
	Mint(to common.Address, amount *big.Int) error
	Burn(from common.Address, amount *big.Int) error
	TransferFrom(from, to common.Address, amount *big.Int) error
	BalanceOf(holder common.Address) *big.Int
	TotalSupply() *big.Int
}

// CollateralToken is one deposited asset's token. Transfer moves tokens
// out of the engine's custody; TransferFrom pulls approved tokens in.
type CollateralToken interface {
	Transfer(to common.Address, amount *big.Int) error
	TransferFrom(from, to common.Address, amount *big.Int) error
	BalanceOf(holder common.Address) *big.Int
}

// YieldPool receives routed deposit fees, denominated in debt units.
type YieldPool interface {
	Address() common.Address
	Fund(amount *big.Int) error
}

// Params configures an Engine. Assets, Feeds and Tokens are parallel
// lists; a length mismatch fails construction.
type Params struct {
	// Address is the engine's own account, used as token custodian.
	Address common.Address

	Assets []model.Asset
	Feeds  []oracle.PriceFeed
	Tokens []CollateralToken

	DebtToken DebtToken

	// YieldPool receives deposit fees. Nil disables the fee path even
	// when DepositFeeBps is set.
	YieldPool YieldPool

	// Risk calibration. Zero values fall back to defaults; DepositFeeBps
	// has no default and stays off unless configured.
	LiquidationThresholdBps uint64
	LiquidationBonusBps     uint64
	DepositFeeBps           uint64
	StalenessTimeout        time.Duration
	AllowedDropBps          uint64
	Cooldown                time.Duration

	// Optional observability hooks.
	Events   *events.Recorder
	Journal  *journal.Journal
	Registry prometheus.Registerer
}

// Engine is the accounting core. All exported methods are safe for
// concurrent use; operations are fully serialized. Collaborator tokens
// must not call back into the engine.
type Engine struct {
	mu sync.Mutex

	address    common.Address
	tokens     map[model.Asset]CollateralToken
	collateral *ledger.CollateralBook
	debt       *ledger.DebtBook
	breaker    *circuitbreaker.Breaker
	valuation  *valuation.Service
	debtToken  DebtToken
	pool       YieldPool

	thresholdBps uint64
	bonusBps     uint64
	feeBps       uint64

	recorder *events.Recorder
	journal  *journal.Journal
	metrics  *engineMetrics
}

// New builds an engine, wires the valuation path and anchors the circuit
// breaker with one initial read from every feed. A feed that cannot
// produce a usable quote at construction fails the whole constructor: an
// engine must never start without a trusted anchor price.
func New(ctx context.Context, p Params) (*Engine, error) {
	if len(p.Assets) == 0 || len(p.Assets) != len(p.Feeds) || len(p.Assets) != len(p.Tokens) {
		return nil, fmt.Errorf("%w: %d assets, %d feeds, %d tokens",
			ErrConfigMismatch, len(p.Assets), len(p.Feeds), len(p.Tokens))
	}
	if p.DebtToken == nil {
		return nil, fmt.Errorf("%w: debt token is required", ErrConfigMismatch)
	}

	if p.LiquidationThresholdBps == 0 {
		p.LiquidationThresholdBps = health.DefaultLiquidationThresholdBps
	}
	if p.LiquidationBonusBps == 0 {
		p.LiquidationBonusBps = DefaultLiquidationBonusBps
	}
	if p.AllowedDropBps == 0 {
		p.AllowedDropBps = circuitbreaker.DefaultAllowedDropBps
	}
	if p.Cooldown <= 0 {
		p.Cooldown = circuitbreaker.DefaultCooldown
	}
	if p.DepositFeeBps > 0 && p.YieldPool == nil {
		logrus.Warnf("Deposit fee of %d bps configured without a yield pool; fees disabled", p.DepositFeeBps)
		p.DepositFeeBps = 0
	}

	metrics := newEngineMetrics(p.Registry)
	breaker := circuitbreaker.New(p.AllowedDropBps, p.Cooldown).
		WithTripCallback(func(asset model.Asset, lastGood, observed *big.Int) {
			metrics.observeTrip(string(asset))
		})

	collateral := ledger.NewCollateralBook()
	adapters := make(map[model.Asset]*oracle.Adapter, len(p.Assets))
	tokens := make(map[model.Asset]CollateralToken, len(p.Assets))
	for i, asset := range p.Assets {
		if _, dup := tokens[asset]; dup {
			return nil, fmt.Errorf("%w: duplicate asset %s", ErrConfigMismatch, asset)
		}
		if p.Feeds[i] == nil || p.Tokens[i] == nil {
			return nil, fmt.Errorf("%w: nil feed or token for %s", ErrConfigMismatch, asset)
		}
		adapter := oracle.NewAdapter(asset, p.Feeds[i], p.StalenessTimeout)
		anchor, _, err := adapter.LatestPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("engine: anchoring %s: %w", asset, err)
		}
		if err := breaker.Register(asset, anchor); err != nil {
			return nil, fmt.Errorf("engine: anchoring %s: %w", asset, err)
		}
		adapters[asset] = adapter
		tokens[asset] = p.Tokens[i]
		logrus.Infof("Registered collateral %s (anchor price %s)", asset, anchor)
	}

	e := &Engine{
		address:      p.Address,
		tokens:       tokens,
		collateral:   collateral,
		debt:         ledger.NewDebtBook(),
		breaker:      breaker,
		valuation:    valuation.New(adapters, breaker, collateral),
		debtToken:    p.DebtToken,
		pool:         p.YieldPool,
		thresholdBps: p.LiquidationThresholdBps,
		bonusBps:     p.LiquidationBonusBps,
		feeBps:       p.DepositFeeBps,
		recorder:     p.Events,
		journal:      p.Journal,
		metrics:      metrics,
	}
	return e, nil
}

// opTx tracks everything needed to make one operation all-or-nothing:
// ledger snapshots taken before any effect, compensations for token
// interactions that already went through, and events staged for
// publication only if the whole operation commits.
type opTx struct {
	collateralSnap *ledger.CollateralSnapshot
	debtSnap       *ledger.DebtSnapshot
	undo           []func() error
	events         []events.Event
	record         *journal.Record
}

// compensate registers an inverse action for a completed interaction.
func (tx *opTx) compensate(fn func() error) {
	tx.undo = append(tx.undo, fn)
}

// stage queues an event; a rolled-back operation publishes nothing.
func (tx *opTx) stage(ev events.Event) {
	tx.events = append(tx.events, ev)
}

// run serializes and executes one state-changing operation. On failure
// the compensations run in reverse order and both ledgers are restored;
// on success the staged events are published, then the operation is
// journaled and counted.
func (e *Engine) run(op string, fn func(tx *opTx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := &opTx{
		collateralSnap: e.collateral.Snapshot(),
		debtSnap:       e.debt.Snapshot(),
	}
	if err := fn(tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			if uerr := tx.undo[i](); uerr != nil {
				logrus.Errorf("Compensation failed while rolling back %s: %v", op, uerr)
			}
		}
		e.collateral.Restore(tx.collateralSnap)
		e.debt.Restore(tx.debtSnap)
		e.metrics.observeOperation(op, "error")
		logrus.WithError(err).Warnf("Operation %s rolled back", op)
		return err
	}

	for _, ev := range tx.events {
		e.emit(ev)
	}
	if e.journal != nil && tx.record != nil {
		if jerr := e.journal.Append(*tx.record); jerr != nil {
			logrus.Errorf("Journal append for %s failed: %v", op, jerr)
		}
	}
	e.metrics.observeOperation(op, "ok")
	e.metrics.observeTotalDebt(e.debt.Total())
	return nil
}

// Deposit pulls amount of asset from account into engine custody and
// credits the account's collateral balance. If a deposit fee is
// configured, the fee's USD value is minted to the yield pool and the
// account is credited net of fee.
func (e *Engine) Deposit(ctx context.Context, account common.Address, asset model.Asset, amount *big.Int) error {
	return e.run("deposit", func(tx *opTx) error {
		return e.deposit(ctx, tx, account, asset, amount)
	})
}

func (e *Engine) deposit(ctx context.Context, tx *opTx, account common.Address, asset model.Asset, amount *big.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	token, ok := e.tokens[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}

	fee := numeric.ApplyBps(amount, e.feeBps)
	credited := new(big.Int).Sub(amount, fee)
	var feeUSD *big.Int
	if fee.Sign() > 0 {
		// Fee valuation happens before any effect so a frozen or stale
		// feed aborts the deposit cleanly.
		usd, err := e.valuation.USDValue(ctx, asset, fee)
		if err != nil {
			return err
		}
		feeUSD = usd
		tx.stage(events.Event{Type: events.TypeFeeRouted, From: account, To: e.pool.Address(), Asset: asset, Amount: feeUSD})
	}

	e.collateral.Credit(account, asset, credited)
	tx.stage(events.Event{Type: events.TypeCollateralDeposited, From: account, Asset: asset, Amount: credited})

	if err := token.TransferFrom(account, e.address, amount); err != nil {
		return fmt.Errorf("%w: depositing %s %s: %v", ErrTransferFailed, amount, asset, err)
	}
	tx.compensate(func() error { return token.Transfer(account, amount) })

	if feeUSD != nil {
		if err := e.debtToken.Mint(e.pool.Address(), feeUSD); err != nil {
			return fmt.Errorf("%w: minting fee: %v", ErrMintFailed, err)
		}
		tx.compensate(func() error { return e.debtToken.Burn(e.pool.Address(), feeUSD) })
		if err := e.pool.Fund(feeUSD); err != nil {
			return fmt.Errorf("engine: funding yield pool: %w", err)
		}
	}

	tx.record = &journal.Record{
		Op: "deposit", Account: account.Hex(), Asset: string(asset), Amount: amount.String(),
	}
	return nil
}

// Mint issues amount of debt units to account, provided the account's
// health factor stays at or above minimum afterwards.
func (e *Engine) Mint(ctx context.Context, account common.Address, amount *big.Int) error {
	return e.run("mint", func(tx *opTx) error {
		return e.mint(ctx, tx, account, amount)
	})
}

func (e *Engine) mint(ctx context.Context, tx *opTx, account common.Address, amount *big.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	e.debt.Credit(account, amount)
	hf, err := e.requireHealthy(ctx, account)
	if err != nil {
		return err
	}
	tx.stage(events.Event{Type: events.TypeDebtMinted, From: account, Amount: amount})

	if err := e.debtToken.Mint(account, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	tx.compensate(func() error { return e.debtToken.Burn(account, amount) })

	tx.record = &journal.Record{
		Op: "mint", Account: account.Hex(), Amount: amount.String(),
		Detail: "hf=" + hf.String(),
	}
	return nil
}

// DepositAndMint performs a deposit and a mint as one atomic operation:
// when the mint fails, the already-pulled collateral is returned and no
// balance changes survive.
func (e *Engine) DepositAndMint(ctx context.Context, account common.Address, asset model.Asset, collateralAmount, debtAmount *big.Int) error {
	return e.run("deposit_and_mint", func(tx *opTx) error {
		if err := e.deposit(ctx, tx, account, asset, collateralAmount); err != nil {
			return err
		}
		if err := e.mint(ctx, tx, account, debtAmount); err != nil {
			return err
		}
		tx.record = &journal.Record{
			Op: "deposit_and_mint", Account: account.Hex(), Asset: string(asset),
			Amount: collateralAmount.String(), Detail: fmt.Sprintf("minted=%s", debtAmount),
		}
		return nil
	})
}

// Redeem debits amount of asset from the account's collateral balance and
// transfers it out of engine custody, provided the account remains
// healthy afterwards.
func (e *Engine) Redeem(ctx context.Context, account common.Address, asset model.Asset, amount *big.Int) error {
	return e.run("redeem", func(tx *opTx) error {
		return e.redeem(ctx, tx, account, asset, account, amount)
	})
}

// redeem moves amount of the account's collateral to recipient, which is
// the account itself for plain redemption and the liquidator during
// liquidation.
func (e *Engine) redeem(ctx context.Context, tx *opTx, account common.Address, asset model.Asset, recipient common.Address, amount *big.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	token, ok := e.tokens[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}

	if err := e.collateral.Debit(account, asset, amount); err != nil {
		return err
	}
	hf, err := e.requireHealthy(ctx, account)
	if err != nil {
		return err
	}
	tx.stage(events.Event{Type: events.TypeCollateralRedeemed, From: account, To: recipient, Asset: asset, Amount: amount})

	if err := token.Transfer(recipient, amount); err != nil {
		return fmt.Errorf("%w: redeeming %s %s: %v", ErrTransferFailed, amount, asset, err)
	}
	tx.compensate(func() error { return token.TransferFrom(recipient, e.address, amount) })

	tx.record = &journal.Record{
		Op: "redeem", Account: account.Hex(), Asset: string(asset), Amount: amount.String(),
		Detail: "hf=" + hf.String(),
	}
	return nil
}

// Burn pulls amount of debt units from account, destroys them and debits
// the account's debt balance.
func (e *Engine) Burn(ctx context.Context, account common.Address, amount *big.Int) error {
	return e.run("burn", func(tx *opTx) error {
		return e.burn(ctx, tx, account, amount)
	})
}

func (e *Engine) burn(ctx context.Context, tx *opTx, account common.Address, amount *big.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	if err := e.debt.Debit(account, amount); err != nil {
		return err
	}
	// Retiring debt cannot lower the health factor, but the check still
	// routes through live valuation, so a frozen breaker or stale feed
	// aborts the burn like any other operation.
	hf, err := e.requireHealthy(ctx, account)
	if err != nil {
		return err
	}
	tx.stage(events.Event{Type: events.TypeDebtBurned, From: account, Amount: amount})

	if err := e.debtToken.TransferFrom(account, e.address, amount); err != nil {
		return fmt.Errorf("%w: pulling debt units: %v", ErrBurnFailed, err)
	}
	tx.compensate(func() error { return e.debtToken.TransferFrom(e.address, account, amount) })
	if err := e.debtToken.Burn(e.address, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrBurnFailed, err)
	}
	// Once burned the units are gone; a later failure in the same
	// operation must recreate them before the transfer compensation runs.
	tx.compensate(func() error { return e.debtToken.Mint(e.address, amount) })

	tx.record = &journal.Record{
		Op: "burn", Account: account.Hex(), Amount: amount.String(),
		Detail: "hf=" + hf.String(),
	}
	return nil
}

// RedeemAndBurn retires debt first and then redeems collateral, so the
// health factor check inside the redemption sees the reduced debt.
func (e *Engine) RedeemAndBurn(ctx context.Context, account common.Address, asset model.Asset, collateralAmount, debtAmount *big.Int) error {
	return e.run("redeem_and_burn", func(tx *opTx) error {
		if err := e.burn(ctx, tx, account, debtAmount); err != nil {
			return err
		}
		if err := e.redeem(ctx, tx, account, asset, account, collateralAmount); err != nil {
			return err
		}
		tx.record = &journal.Record{
			Op: "redeem_and_burn", Account: account.Hex(), Asset: string(asset),
			Amount: collateralAmount.String(), Detail: fmt.Sprintf("burned=%s", debtAmount),
		}
		return nil
	})
}

// Liquidate lets liquidator cover debtToCover of target's debt in
// exchange for the equivalent collateral plus the liquidation bonus. The
// target must be below the minimum health factor before, and strictly
// better off after; the liquidator pays with its own debt units, which
// are destroyed.
func (e *Engine) Liquidate(ctx context.Context, liquidator common.Address, target common.Address, asset model.Asset, debtToCover *big.Int) error {
	return e.run("liquidate", func(tx *opTx) error {
		if err := validateAmount(debtToCover); err != nil {
			return err
		}
		token, ok := e.tokens[asset]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
		}

		startHF, err := e.healthFactor(ctx, target)
		if err != nil {
			return err
		}
		if health.IsHealthy(startHF) {
			return fmt.Errorf("%w: %s at %s", ErrHealthFactorOk, target.Hex(), startHF)
		}

		seized, err := e.valuation.TokenAmountFromUSD(ctx, asset, debtToCover)
		if err != nil {
			return err
		}
		bonus := numeric.ApplyBps(seized, e.bonusBps)
		totalSeized := new(big.Int).Add(seized, bonus)

		// A target short of collateral for the bonus fails here; partial
		// seizure is not supported.
		if err := e.collateral.Debit(target, asset, totalSeized); err != nil {
			return err
		}
		if err := e.debt.Debit(target, debtToCover); err != nil {
			return err
		}

		endHF, err := e.healthFactor(ctx, target)
		if err != nil {
			return err
		}
		if endHF.Cmp(startHF) <= 0 {
			return fmt.Errorf("%w: %s -> %s", ErrHealthFactorNotImproved, startHF, endHF)
		}
		if _, err := e.requireHealthy(ctx, liquidator); err != nil {
			return err
		}
		tx.stage(events.Event{Type: events.TypeLiquidation, From: target, To: liquidator, Asset: asset, Amount: totalSeized})

		if err := token.Transfer(liquidator, totalSeized); err != nil {
			return fmt.Errorf("%w: seizing %s %s: %v", ErrTransferFailed, totalSeized, asset, err)
		}
		tx.compensate(func() error { return token.TransferFrom(liquidator, e.address, totalSeized) })
		if err := e.debtToken.TransferFrom(liquidator, e.address, debtToCover); err != nil {
			return fmt.Errorf("%w: pulling debt units from liquidator: %v", ErrBurnFailed, err)
		}
		tx.compensate(func() error { return e.debtToken.TransferFrom(e.address, liquidator, debtToCover) })
		if err := e.debtToken.Burn(e.address, debtToCover); err != nil {
			return fmt.Errorf("%w: %v", ErrBurnFailed, err)
		}

		e.metrics.observeLiquidation()
		logrus.Infof("Liquidated %s: %s covered %s debt, seized %s %s",
			target.Hex(), liquidator.Hex(), debtToCover, totalSeized, asset)

		tx.record = &journal.Record{
			Op: "liquidate", Account: target.Hex(), Asset: string(asset), Amount: totalSeized.String(),
			Detail: fmt.Sprintf("liquidator=%s covered=%s hf=%s", liquidator.Hex(), debtToCover, endHF),
		}
		return nil
	})
}

// healthFactor computes the account's current health factor from live
// valuations. Callers hold e.mu.
func (e *Engine) healthFactor(ctx context.Context, account common.Address) (*big.Int, error) {
	value, err := e.valuation.AccountCollateralValueUSD(ctx, account)
	if err != nil {
		return nil, err
	}
	return health.Calculate(value, e.debt.Balance(account), e.thresholdBps), nil
}

// requireHealthy fails with BreaksHealthFactorError when the account is
// below minimum, and otherwise returns the computed factor.
func (e *Engine) requireHealthy(ctx context.Context, account common.Address) (*big.Int, error) {
	hf, err := e.healthFactor(ctx, account)
	if err != nil {
		return nil, err
	}
	if !health.IsHealthy(hf) {
		return nil, &BreaksHealthFactorError{Account: account, HealthFactor: hf}
	}
	return hf, nil
}

func (e *Engine) emit(ev events.Event) {
	if e.recorder != nil {
		e.recorder.Record(ev)
	}
}

func validateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Address returns the engine's custodial account.
func (e *Engine) Address() common.Address { return e.address }

// Assets lists the configured collateral types in stable order.
func (e *Engine) Assets() []model.Asset {
	return e.valuation.Assets()
}

// HealthFactor reports the account's current health factor.
func (e *Engine) HealthFactor(ctx context.Context, account common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.healthFactor(ctx, account)
}

// AccountInformation returns a consistent snapshot of the account's
// collateral balances, collateral value, debt and health factor.
func (e *Engine) AccountInformation(ctx context.Context, account common.Address) (model.AccountInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	value, err := e.valuation.AccountCollateralValueUSD(ctx, account)
	if err != nil {
		return model.AccountInfo{}, err
	}
	debt := e.debt.Balance(account)
	return model.AccountInfo{
		Account:            account,
		CollateralValueUSD: value,
		Debt:               debt,
		HealthFactor:       health.Calculate(value, debt, e.thresholdBps),
		Collateral:         e.collateral.Balances(account),
	}, nil
}

// CollateralBalance reports the account's booked balance for one asset.
func (e *Engine) CollateralBalance(account common.Address, asset model.Asset) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collateral.Balance(account, asset)
}

// DebtBalance reports the account's booked debt.
func (e *Engine) DebtBalance(account common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.debt.Balance(account)
}

// TotalDebt reports outstanding debt across all accounts.
func (e *Engine) TotalDebt() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.debt.Total()
}

// USDValue converts a token amount of asset to its current USD value.
func (e *Engine) USDValue(ctx context.Context, asset model.Asset, amount *big.Int) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.valuation.USDValue(ctx, asset, amount)
}

// TokenAmountFromUSD converts a USD value to a token amount of asset.
func (e *Engine) TokenAmountFromUSD(ctx context.Context, asset model.Asset, usd *big.Int) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.valuation.TokenAmountFromUSD(ctx, asset, usd)
}

// AccountCollateralValueUSD reports the USD value of one account's
// collateral across all assets.
func (e *Engine) AccountCollateralValueUSD(ctx context.Context, account common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.valuation.AccountCollateralValueUSD(ctx, account)
}

// TotalCollateralValueUSD reports the USD value of all custody holdings.
func (e *Engine) TotalCollateralValueUSD(ctx context.Context) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.valuation.TotalCollateralValueUSD(ctx)
}

// BreakerState reports the circuit breaker state for an asset and, when
// frozen, the cooldown remaining.
func (e *Engine) BreakerState(asset model.Asset) (circuitbreaker.State, time.Duration) {
	return e.breaker.StateOf(asset)
}
