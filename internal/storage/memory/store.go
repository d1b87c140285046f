// Package memory provides an in-memory ledger store, used for tests and for
// running the server without PostgreSQL.
package memory

import (
	"context"
	"sync"

	"token-ledger/internal/domain"
	"token-ledger/internal/storage"
)

type balanceKey struct {
	owner  domain.Account
	symbol domain.Symbol
}

// Store is an in-memory implementation of storage.Store. Transactions are
// serialized behind the store mutex; writes are staged in an overlay and
// applied only when the transaction function succeeds.
type Store struct {
	mu        sync.Mutex
	balances  map[balanceKey]int64
	supplies  map[domain.Symbol]domain.Supply
	minters   map[domain.Account]struct{}
	whitelist map[domain.Account]struct{}
	config    *domain.Config
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		balances:  make(map[balanceKey]int64),
		supplies:  make(map[domain.Symbol]domain.Supply),
		minters:   make(map[domain.Account]struct{}),
		whitelist: make(map[domain.Account]struct{}),
	}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

// WithinTx runs fn inside a staged transaction. On error nothing is applied.
func (s *Store) WithinTx(_ context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := newTx(s)
	if err := fn(t); err != nil {
		return err
	}

	t.commit()
	return nil
}

// tx stages writes against the store. A nil staged balance or supply marks
// a deletion; membership changes are tracked as add/remove sets.
type tx struct {
	store *Store

	balances  map[balanceKey]*int64
	supplies  map[domain.Symbol]*domain.Supply
	config    *domain.Config
	configSet bool

	minterAdds    map[domain.Account]struct{}
	whitelistAdds map[domain.Account]struct{}
	whitelistDels map[domain.Account]struct{}
}

// Compile-time interface check.
var _ storage.Tx = (*tx)(nil)

func newTx(s *Store) *tx {
	return &tx{
		store:         s,
		balances:      make(map[balanceKey]*int64),
		supplies:      make(map[domain.Symbol]*domain.Supply),
		minterAdds:    make(map[domain.Account]struct{}),
		whitelistAdds: make(map[domain.Account]struct{}),
		whitelistDels: make(map[domain.Account]struct{}),
	}
}

// commit applies staged writes to the store. Called with the store locked.
func (t *tx) commit() {
	for k, v := range t.balances {
		if v == nil {
			delete(t.store.balances, k)
		} else {
			t.store.balances[k] = *v
		}
	}
	for sym, sup := range t.supplies {
		if sup != nil {
			t.store.supplies[sym] = *sup
		}
	}
	if t.configSet {
		cfg := *t.config
		t.store.config = &cfg
	}
	for a := range t.minterAdds {
		t.store.minters[a] = struct{}{}
	}
	for a := range t.whitelistDels {
		delete(t.store.whitelist, a)
	}
	for a := range t.whitelistAdds {
		t.store.whitelist[a] = struct{}{}
	}
}

func (t *tx) Balance(_ context.Context, owner domain.Account, symbol domain.Symbol) (int64, error) {
	k := balanceKey{owner, symbol}
	if staged, ok := t.balances[k]; ok {
		if staged == nil {
			return 0, storage.ErrNotFound
		}
		return *staged, nil
	}
	amount, ok := t.store.balances[k]
	if !ok {
		return 0, storage.ErrNotFound
	}
	return amount, nil
}

func (t *tx) SetBalance(_ context.Context, owner domain.Account, symbol domain.Symbol, amount int64) error {
	if !owner.IsValid() || amount < 0 {
		return storage.ErrInvalidInput
	}
	v := amount
	t.balances[balanceKey{owner, symbol}] = &v
	return nil
}

func (t *tx) DeleteBalance(ctx context.Context, owner domain.Account, symbol domain.Symbol) error {
	if _, err := t.Balance(ctx, owner, symbol); err != nil {
		return err
	}
	t.balances[balanceKey{owner, symbol}] = nil
	return nil
}

func (t *tx) Supply(_ context.Context, symbol domain.Symbol) (*domain.Supply, error) {
	if staged, ok := t.supplies[symbol]; ok {
		supplyCopy := *staged
		return &supplyCopy, nil
	}
	sup, ok := t.store.supplies[symbol]
	if !ok {
		return nil, storage.ErrNotFound
	}
	supplyCopy := sup
	return &supplyCopy, nil
}

func (t *tx) CreateSupply(ctx context.Context, s *domain.Supply) error {
	if s == nil || !s.Symbol.IsValid() {
		return storage.ErrInvalidInput
	}
	if _, err := t.Supply(ctx, s.Symbol); err == nil {
		return storage.ErrAlreadyExists
	}
	supplyCopy := *s
	t.supplies[s.Symbol] = &supplyCopy
	return nil
}

func (t *tx) SetSupplyCurrent(ctx context.Context, symbol domain.Symbol, current int64) error {
	sup, err := t.Supply(ctx, symbol)
	if err != nil {
		return err
	}
	sup.Current = current
	t.supplies[symbol] = sup
	return nil
}

func (t *tx) Config(_ context.Context) (*domain.Config, error) {
	if t.configSet {
		cfg := *t.config
		return &cfg, nil
	}
	if t.store.config == nil {
		return nil, storage.ErrNotFound
	}
	cfg := *t.store.config
	return &cfg, nil
}

func (t *tx) SetConfig(_ context.Context, c *domain.Config) error {
	if c == nil {
		return storage.ErrInvalidInput
	}
	cfg := *c
	t.config = &cfg
	t.configSet = true
	return nil
}

func (t *tx) IsMinter(_ context.Context, account domain.Account) (bool, error) {
	if _, ok := t.minterAdds[account]; ok {
		return true, nil
	}
	_, ok := t.store.minters[account]
	return ok, nil
}

func (t *tx) AddMinter(_ context.Context, account domain.Account) error {
	if !account.IsValid() {
		return storage.ErrInvalidInput
	}
	t.minterAdds[account] = struct{}{}
	return nil
}

func (t *tx) IsWhitelisted(_ context.Context, account domain.Account) (bool, error) {
	if _, ok := t.whitelistAdds[account]; ok {
		return true, nil
	}
	if _, ok := t.whitelistDels[account]; ok {
		return false, nil
	}
	_, ok := t.store.whitelist[account]
	return ok, nil
}

func (t *tx) AddWhitelist(_ context.Context, account domain.Account) error {
	if !account.IsValid() {
		return storage.ErrInvalidInput
	}
	delete(t.whitelistDels, account)
	t.whitelistAdds[account] = struct{}{}
	return nil
}

func (t *tx) RemoveWhitelist(ctx context.Context, account domain.Account) error {
	member, err := t.IsWhitelisted(ctx, account)
	if err != nil {
		return err
	}
	if !member {
		return storage.ErrNotFound
	}
	delete(t.whitelistAdds, account)
	t.whitelistDels[account] = struct{}{}
	return nil
}
