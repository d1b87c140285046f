package storage

import (
	"context"

	"token-ledger/internal/domain"
)

// Store is the ledger's persistence boundary. Every ledger operation runs
// inside exactly one transaction: WithinTx either commits all writes made
// through the Tx or discards them when fn returns an error.
//
// Transactions are exclusive: while fn runs, no other transaction observes
// or mutates the rows it touches. The memory backend serializes
// transactions behind a store lock; the postgres backend maps each
// transaction to one SQL transaction with row locks.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the ledger rows to a single operation. Arithmetic and policy
// (debits, credits, fee routing, ceilings) live in the ledger engine; Tx is
// plain row access.
type Tx interface {
	// Balance returns the amount for (owner, symbol).
	// Returns ErrNotFound if no row exists.
	Balance(ctx context.Context, owner domain.Account, symbol domain.Symbol) (int64, error)

	// SetBalance creates or replaces the (owner, symbol) row.
	SetBalance(ctx context.Context, owner domain.Account, symbol domain.Symbol, amount int64) error

	// DeleteBalance removes the (owner, symbol) row.
	// Returns ErrNotFound if no row exists.
	DeleteBalance(ctx context.Context, owner domain.Account, symbol domain.Symbol) error

	// Supply returns the supply row for symbol.
	// Returns ErrNotFound if no row exists.
	Supply(ctx context.Context, symbol domain.Symbol) (*domain.Supply, error)

	// CreateSupply creates the supply row for a new symbol.
	// Returns ErrAlreadyExists if a row for the symbol exists.
	CreateSupply(ctx context.Context, s *domain.Supply) error

	// SetSupplyCurrent replaces the current supply for symbol.
	// Returns ErrNotFound if no row exists.
	SetSupplyCurrent(ctx context.Context, symbol domain.Symbol, current int64) error

	// Config returns the configuration singleton.
	// Returns ErrNotFound if init has never stored one.
	Config(ctx context.Context) (*domain.Config, error)

	// SetConfig creates or replaces the configuration singleton.
	SetConfig(ctx context.Context, c *domain.Config) error

	// IsMinter reports whether account is in the minter set.
	IsMinter(ctx context.Context, account domain.Account) (bool, error)

	// AddMinter adds account to the minter set. Idempotent.
	AddMinter(ctx context.Context, account domain.Account) error

	// IsWhitelisted reports whether account is in the whitelist.
	IsWhitelisted(ctx context.Context, account domain.Account) (bool, error)

	// AddWhitelist adds account to the whitelist. Idempotent.
	AddWhitelist(ctx context.Context, account domain.Account) error

	// RemoveWhitelist removes account from the whitelist.
	// Returns ErrNotFound if the account is absent.
	RemoveWhitelist(ctx context.Context, account domain.Account) error
}

// NoticeStore persists emitted ledger notices (fee-split audit bookkeeping).
// Append-only; notices are never updated or deleted.
type NoticeStore interface {
	// Insert appends a notice.
	Insert(ctx context.Context, n *domain.Notice) error
}

// NoticeQuerier looks up stored notices. Both notice sink backends
// implement it alongside NoticeStore.
type NoticeQuerier interface {
	// GetByOpID returns the notices for one operation, ordered by
	// emission time. Empty result, nil error when none exist.
	GetByOpID(ctx context.Context, opID string) ([]*domain.Notice, error)
}
