package core

import (
	"context"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// DefaultCustodyId is the holder id the engine uses for assets in its
// custody when none is configured.
var DefaultCustodyId = AccountIdFromAddress("dsc-engine-custody")

type (
	// Engine runs every state-changing operation under one lock, inside one
	// store transaction.
	Engine struct {
		clk     clock.Clock
		log     Log
		metrics *Metrics

		store     LedgerStore
		debtToken DebtToken
		custody   uuid.UUID
		maxAge    uint64

		valuation *Valuation
		risk      *RiskEngine

		mu    sync.Mutex
		guard reentrancyGuard
	}

	OptionFunc func(*Engine)
)

func WithClock(clk clock.Clock) OptionFunc {
	return func(e *Engine) {
		e.clk = clk
	}
}

func WithLogger(log Log) OptionFunc {
	return func(e *Engine) {
		e.log = log
	}
}

func WithMetrics(m *Metrics) OptionFunc {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithCustody(id uuid.UUID) OptionFunc {
	return func(e *Engine) {
		e.custody = id
	}
}

// WithMaxPriceAge sets the staleness bound, in seconds, for kinds without
// their own. Zero disables the check.
func WithMaxPriceAge(seconds uint64) OptionFunc {
	return func(e *Engine) {
		e.maxAge = seconds
	}
}

// NewEngine registers collateral kinds with their price feeds. kinds and
// feeds are parallel lists.
func NewEngine(store LedgerStore, kinds []*CollateralKind, feeds []PriceAdapter, debtToken DebtToken, opts ...OptionFunc) (*Engine, error) {
	if len(kinds) != len(feeds) {
		return nil, errors.Wrapf(ErrMismatchedConfigLength, "%d collateral tokens, %d price feeds", len(kinds), len(feeds))
	}
	if store == nil || debtToken == nil {
		return nil, errors.Wrap(ErrInvalidCollaborator, "store and debt token are required")
	}

	e := &Engine{
		clk:       clock.New(),
		log:       NopLog(),
		store:     store,
		debtToken: debtToken,
		custody:   DefaultCustodyId,
		maxAge:    DEFAULT_ORACLE_MAX_AGE,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.valuation = newValuation(e.clk, e.log, e.metrics, &e.guard, e.maxAge)
	for i, kind := range kinds {
		if kind == nil || kind.AssetId == "" || kind.Asset == nil || feeds[i] == nil {
			return nil, errors.Wrapf(ErrInvalidCollaborator, "collateral kind #%d", i)
		}
		if kind.Decimals > MAX_ASSET_DECIMALS {
			return nil, errors.Wrapf(ErrMathOverflow, "collateral kind %s: decimals %d above %d", kind.AssetId, kind.Decimals, MAX_ASSET_DECIMALS)
		}
		if err := e.valuation.register(kind.Clone(), feeds[i]); err != nil {
			return nil, err
		}
	}
	e.risk = NewRiskEngine(e.valuation)
	return e, nil
}

func (e *Engine) Custody() uuid.UUID {
	return e.custody
}

func (e *Engine) DebtToken() DebtToken {
	return e.debtToken
}

func (e *Engine) Valuation() *Valuation {
	return e.valuation
}

func (e *Engine) RiskEngine() *RiskEngine {
	return e.risk
}

// operation collects the effects of one engine call.
type operation struct {
	e      *Engine
	ledger *Ledger
	caller uuid.UUID
	action ActionType

	actions      []ActionDetail
	interactions interactions
	solvency     []uuid.UUID
	liquidate    *LiquidateResult
}

func (op *operation) record(accountId uuid.UUID, typ ActionType, assetId string, amount *uint256.Int) {
	op.actions = append(op.actions, ActionDetail{
		AccountId:  accountId,
		ActionType: typ,
		AssetId:    assetId,
		Amount:     amount.Clone(),
	})
}

func (op *operation) requireSolvent(accountId uuid.UUID) {
	for _, id := range op.solvency {
		if id == accountId {
			return
		}
	}
	op.solvency = append(op.solvency, accountId)
}

// execute applies fn's ledger effects, validates solvency, journals the
// operation and only then calls collaborators. Any failure leaves the store
// untouched.
func (e *Engine) execute(ctx context.Context, caller uuid.UUID, action ActionType, fn func(ctx context.Context, op *operation) error) (*operation, error) {
	if err := e.guard.enter(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx = withGuard(ctx)
	op := &operation{e: e, caller: caller, action: action}
	err := e.store.Transaction(ctx, func(ctx context.Context, tx LedgerStore) error {
		op.ledger = NewLedger(e.clk, tx)
		op.interactions = interactions{}
		op.actions, op.solvency, op.liquidate = nil, nil, nil

		if err := fn(ctx, op); err != nil {
			return err
		}
		for _, id := range op.solvency {
			if _, err := e.risk.RequireSolvent(ctx, op.ledger, id); err != nil {
				return err
			}
		}

		operate := NewOperate(e.clk, caller, action, OperateDetail{
			Type:      action,
			AccountId: caller,
			Actions:   op.actions,
			Liquidate: op.liquidate,
		})
		if err := tx.CreateOperate(ctx, operate); err != nil {
			return err
		}
		return e.guard.callout(ctx, func() error {
			return op.interactions.run(ctx, e.log)
		})
	})
	if err != nil && op.interactions.done > 0 {
		// the store failed after every call went through
		_ = e.guard.callout(ctx, func() error {
			op.interactions.compensate(ctx, e.log)
			return nil
		})
	}

	e.metrics.observeOperation(action, err, time.Since(start))
	if err != nil {
		e.log.Warn().Err(err).Str("action", action.String()).Str("account", caller.String()).Msg("operation rejected")
		return nil, err
	}
	e.log.Info().Str("action", action.String()).Str("account", caller.String()).Int("actions", len(op.actions)).Msg("operation committed")
	return op, nil
}

func (e *Engine) Deposit(ctx context.Context, caller uuid.UUID, assetId string, qty *uint256.Int) error {
	_, err := e.execute(ctx, caller, ATDeposit, func(ctx context.Context, op *operation) error {
		return op.deposit(ctx, assetId, qty)
	})
	return err
}

func (e *Engine) Withdraw(ctx context.Context, caller uuid.UUID, assetId string, qty *uint256.Int) error {
	_, err := e.execute(ctx, caller, ATWithdraw, func(ctx context.Context, op *operation) error {
		return op.withdraw(ctx, assetId, qty)
	})
	return err
}

func (e *Engine) IssueDebt(ctx context.Context, caller uuid.UUID, amount *uint256.Int) error {
	_, err := e.execute(ctx, caller, ATIssue, func(ctx context.Context, op *operation) error {
		return op.issue(ctx, amount)
	})
	return err
}

func (e *Engine) RepayDebt(ctx context.Context, caller uuid.UUID, amount *uint256.Int) error {
	_, err := e.execute(ctx, caller, ATRepay, func(ctx context.Context, op *operation) error {
		return op.repay(ctx, amount)
	})
	return err
}

func (e *Engine) DepositAndIssue(ctx context.Context, caller uuid.UUID, assetId string, qty, amount *uint256.Int) error {
	_, err := e.execute(ctx, caller, ATDepositAndIssue, func(ctx context.Context, op *operation) error {
		if err := op.deposit(ctx, assetId, qty); err != nil {
			return err
		}
		return op.issue(ctx, amount)
	})
	return err
}

func (e *Engine) RepayAndWithdraw(ctx context.Context, caller uuid.UUID, assetId string, qty, amount *uint256.Int) error {
	_, err := e.execute(ctx, caller, ATRepayAndWithdraw, func(ctx context.Context, op *operation) error {
		if err := op.repay(ctx, amount); err != nil {
			return err
		}
		return op.withdraw(ctx, assetId, qty)
	})
	return err
}

// Liquidate covers debtToCover of target's debt with the caller's debt
// tokens in exchange for the equivalent collateral plus LIQUIDATION_BONUS.
func (e *Engine) Liquidate(ctx context.Context, caller uuid.UUID, assetId string, target uuid.UUID, debtToCover *uint256.Int) (*LiquidateResult, error) {
	op, err := e.execute(ctx, caller, ATLiquidate, func(ctx context.Context, op *operation) error {
		return op.liquidateAccount(ctx, assetId, target, debtToCover)
	})
	if err != nil {
		return nil, err
	}
	return op.liquidate, nil
}

func requirePositive(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	return nil
}
