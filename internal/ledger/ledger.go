// Package ledger implements the fee-routing token ledger: per-account
// balances, per-symbol supply, the minter and whitelist registries, and the
// transfer router that conditionally diverts a fraction of moved value to
// treasury accounts.
//
// Callers arrive pre-authenticated: every operation takes the caller
// principal as an argument and compares it against the principal the
// operation requires. Each operation runs inside one store transaction and
// either commits every mutation or aborts with no partial effect.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"token-ledger/internal/domain"
	"token-ledger/internal/notify"
	"token-ledger/internal/observability"
	"token-ledger/internal/storage"
)

// DefaultSwapCounterpart is the swap-contract identity used when none is
// configured. Transfers touching this account are classified by memo
// directive.
const DefaultSwapCounterpart domain.Account = "amm.swap"

// Ledger is the core engine. All balance and supply mutation goes through
// its operations; no other component writes ledger rows.
type Ledger struct {
	store    storage.Store
	notifier notify.Notifier
	owner    domain.Account
	swap     domain.Account
	logger   *log.Logger
	now      func() time.Time
}

// Options contains configuration for creating a Ledger.
type Options struct {
	// Owner is the deployment principal: only it may run init and create.
	Owner domain.Account
	// SwapCounterpart overrides DefaultSwapCounterpart when set.
	SwapCounterpart domain.Account
	// Notifier receives notices after commits. Optional.
	Notifier notify.Notifier
	// Logger defaults to a "[ledger]" stdout logger.
	Logger *log.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// New creates a Ledger.
func New(store storage.Store, opts Options) *Ledger {
	l := &Ledger{
		store:    store,
		notifier: opts.Notifier,
		owner:    opts.Owner,
		swap:     opts.SwapCounterpart,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if l.swap == "" {
		l.swap = DefaultSwapCounterpart
	}
	if l.logger == nil {
		l.logger = log.New(os.Stdout, "[ledger] ", log.LstdFlags)
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Owner returns the deployment principal.
func (l *Ledger) Owner() domain.Account {
	return l.owner
}

// SwapCounterpart returns the configured swap-contract identity.
func (l *Ledger) SwapCounterpart() domain.Account {
	return l.swap
}

// BalanceOf returns the balance for (owner, symbol).
// Returns ErrNotFound if no row exists.
func (l *Ledger) BalanceOf(ctx context.Context, owner domain.Account, symbol domain.Symbol) (int64, error) {
	var amount int64
	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		amount, err = tx.Balance(ctx, owner, symbol)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("%w: no balance for %s %s", ErrNotFound, owner, symbol)
	}
	return amount, err
}

// SupplyOf returns the supply row for symbol.
// Returns ErrNotFound if the symbol was never created.
func (l *Ledger) SupplyOf(ctx context.Context, symbol domain.Symbol) (*domain.Supply, error) {
	var sup *domain.Supply
	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		sup, err = tx.Supply(ctx, symbol)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown symbol %s", ErrNotFound, symbol)
	}
	return sup, err
}

// ConfigOf returns the current configuration.
// Returns ErrUninitialized if init has never run.
func (l *Ledger) ConfigOf(ctx context.Context) (*domain.Config, error) {
	var cfg *domain.Config
	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		cfg, err = loadConfig(ctx, tx)
		return err
	})
	return cfg, err
}

// IsWhitelisted reports whether account is exempt from fee-split routing.
func (l *Ledger) IsWhitelisted(ctx context.Context, account domain.Account) (bool, error) {
	var listed bool
	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		listed, err = tx.IsWhitelisted(ctx, account)
		return err
	})
	return listed, err
}

// IsMinter reports whether account may mint.
func (l *Ledger) IsMinter(ctx context.Context, account domain.Account) (bool, error) {
	var isMinter bool
	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		isMinter, err = tx.IsMinter(ctx, account)
		return err
	})
	return isMinter, err
}

// loadConfig reads the configuration singleton, mapping a missing row to
// ErrUninitialized.
func loadConfig(ctx context.Context, tx storage.Tx) (*domain.Config, error) {
	cfg, err := tx.Config(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUninitialized
	}
	return cfg, err
}

// credit adds amount to (owner, symbol), creating the row on first credit.
func credit(ctx context.Context, tx storage.Tx, owner domain.Account, symbol domain.Symbol, amount int64) error {
	bal, err := tx.Balance(ctx, owner, symbol)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		bal = 0
	}
	if bal > math.MaxInt64-amount {
		return fmt.Errorf("%w: balance overflow for %s", ErrInvalidAmount, owner)
	}
	return tx.SetBalance(ctx, owner, symbol, bal+amount)
}

// debit subtracts amount from (owner, symbol). A missing row or a balance
// below amount fails with ErrInsufficientBalance; a balance never goes
// negative.
func debit(ctx context.Context, tx storage.Tx, owner domain.Account, symbol domain.Symbol, amount int64) error {
	bal, err := tx.Balance(ctx, owner, symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: no balance for %s %s", ErrInsufficientBalance, owner, symbol)
		}
		return err
	}
	if bal < amount {
		return fmt.Errorf("%w: %s has %d %s, needs %d", ErrInsufficientBalance, owner, bal, symbol, amount)
	}
	return tx.SetBalance(ctx, owner, symbol, bal-amount)
}

// emit delivers a notice after a committed operation and records it.
func (l *Ledger) emit(ctx context.Context, n domain.Notice) {
	observability.RecordNotice(n.Kind)
	if l.notifier != nil {
		l.notifier.Notify(ctx, n)
	}
}

// observe records operation metrics. Called via defer with the named error.
func observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		observability.RecordOperationError(op, errorClass(err))
	}
	observability.RecordOperation(op, status, time.Since(start).Seconds())
}
