package ledger

import (
	"context"
	"errors"
	"fmt"

	"token-ledger/internal/domain"
	"token-ledger/internal/storage"
)

// Accounts names the admin and the six treasury accounts.
type Accounts struct {
	Admin     domain.Account
	Team      domain.Account
	Fund      domain.Account
	Marketing domain.Account
	Dividend  domain.Account
	Airdrop   domain.Account
	Liquidity domain.Account
}

func (a Accounts) validate() error {
	for _, acc := range []domain.Account{a.Admin, a.Team, a.Fund, a.Marketing, a.Dividend, a.Airdrop, a.Liquidity} {
		if !acc.IsValid() {
			return fmt.Errorf("%w: empty account", ErrInvalidAmount)
		}
	}
	return nil
}

// apply writes the account fields into cfg, leaving fee rates untouched.
func (a Accounts) apply(cfg *domain.Config) {
	cfg.Admin = a.Admin
	cfg.Team = a.Team
	cfg.Fund = a.Fund
	cfg.Marketing = a.Marketing
	cfg.Dividend = a.Dividend
	cfg.Airdrop = a.Airdrop
	cfg.Liquidity = a.Liquidity
}

// Init sets the initial configuration and registers the first minter. Only
// the ledger owner may run it. Re-running init replaces the accounts and
// registers another minter; fee rates already configured are preserved.
func (l *Ledger) Init(ctx context.Context, caller, minter domain.Account, accounts Accounts) (err error) {
	start := l.now()
	defer func() { observe("init", start, err) }()

	if caller != l.owner {
		return fmt.Errorf("%w: init requires the ledger owner", ErrUnauthorized)
	}
	if !minter.IsValid() {
		return fmt.Errorf("%w: empty minter", ErrInvalidAmount)
	}
	if err := accounts.validate(); err != nil {
		return err
	}

	return l.store.WithinTx(ctx, func(tx storage.Tx) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			cfg = &domain.Config{}
		}
		accounts.apply(cfg)
		if err := tx.SetConfig(ctx, cfg); err != nil {
			return err
		}
		return tx.AddMinter(ctx, minter)
	})
}

// SetAccounts replaces the admin and treasury accounts. Admin only.
func (l *Ledger) SetAccounts(ctx context.Context, caller domain.Account, accounts Accounts) (err error) {
	start := l.now()
	defer func() { observe("setaccounts", start, err) }()

	if err := accounts.validate(); err != nil {
		return err
	}

	return l.store.WithinTx(ctx, func(tx storage.Tx) error {
		cfg, err := l.requireAdmin(ctx, tx, caller)
		if err != nil {
			return err
		}
		accounts.apply(cfg)
		return tx.SetConfig(ctx, cfg)
	})
}

// SetFees replaces the fee schedule. Admin only. Transfer-path rates
// summing above 10000 bp are rejected: they would make the recipient
// remainder negative.
func (l *Ledger) SetFees(ctx context.Context, caller domain.Account, fees domain.FeeSchedule) (err error) {
	start := l.now()
	defer func() { observe("setfees", start, err) }()

	if err := validateFees(fees); err != nil {
		return err
	}

	return l.store.WithinTx(ctx, func(tx storage.Tx) error {
		cfg, err := l.requireAdmin(ctx, tx, caller)
		if err != nil {
			return err
		}
		cfg.Fees = fees
		return tx.SetConfig(ctx, cfg)
	})
}

// AddMinter registers an account as a minter. Admin only, idempotent.
func (l *Ledger) AddMinter(ctx context.Context, caller, minter domain.Account) (err error) {
	start := l.now()
	defer func() { observe("addminter", start, err) }()

	if !minter.IsValid() {
		return fmt.Errorf("%w: empty minter", ErrInvalidAmount)
	}

	return l.store.WithinTx(ctx, func(tx storage.Tx) error {
		if _, err := l.requireAdmin(ctx, tx, caller); err != nil {
			return err
		}
		return tx.AddMinter(ctx, minter)
	})
}

// AddWhitelist exempts an account from fee-split routing. Admin only,
// idempotent.
func (l *Ledger) AddWhitelist(ctx context.Context, caller, account domain.Account) (err error) {
	start := l.now()
	defer func() { observe("addwhitelist", start, err) }()

	if !account.IsValid() {
		return fmt.Errorf("%w: empty account", ErrInvalidAmount)
	}

	return l.store.WithinTx(ctx, func(tx storage.Tx) error {
		if _, err := l.requireAdmin(ctx, tx, caller); err != nil {
			return err
		}
		return tx.AddWhitelist(ctx, account)
	})
}

// RemoveWhitelist removes an account from the whitelist. Admin only.
// Returns ErrNotFound if the account is absent.
func (l *Ledger) RemoveWhitelist(ctx context.Context, caller, account domain.Account) (err error) {
	start := l.now()
	defer func() { observe("rmwhitelist", start, err) }()

	return l.store.WithinTx(ctx, func(tx storage.Tx) error {
		if _, err := l.requireAdmin(ctx, tx, caller); err != nil {
			return err
		}
		if err := tx.RemoveWhitelist(ctx, account); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: %s is not whitelisted", ErrNotFound, account)
			}
			return err
		}
		return nil
	})
}

// requireAdmin loads the configuration and checks the caller against it.
func (l *Ledger) requireAdmin(ctx context.Context, tx storage.Tx, caller domain.Account) (*domain.Config, error) {
	cfg, err := loadConfig(ctx, tx)
	if err != nil {
		return nil, err
	}
	if caller != cfg.Admin {
		return nil, fmt.Errorf("%w: %s is not the admin", ErrUnauthorized, caller)
	}
	return cfg, nil
}

func validateFees(fees domain.FeeSchedule) error {
	rates := []int64{
		fees.TeamBP, fees.FundBP, fees.MarketingBP,
		fees.BurnBP, fees.DividendBP, fees.AirdropBP, fees.LiquidityBP,
	}
	for _, r := range rates {
		if r < 0 || r > domain.BasisPointDenom {
			return fmt.Errorf("%w: fee rate %d out of range", ErrInvalidAmount, r)
		}
	}
	if sum := fees.TransferRateSum(); sum > domain.BasisPointDenom {
		return fmt.Errorf("%w: transfer-path fee rates sum to %d bp", ErrInvalidAmount, sum)
	}
	return nil
}
