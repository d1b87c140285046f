package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"token-ledger/internal/domain"
	"token-ledger/internal/fee"
	"token-ledger/internal/observability"
	"token-ledger/internal/opid"
	"token-ledger/internal/storage"
)

// MintReceipt reports what one mint did: the operation ID, the mint-path
// fee split, and the total added to supply (requested amount plus fees).
type MintReceipt struct {
	OpID  string
	Fees  fee.MintSplit
	Total int64
}

// Create registers a new symbol with a fixed supply ceiling. Only the
// ledger owner may create symbols.
func (l *Ledger) Create(ctx context.Context, caller, issuer domain.Account, symbol domain.Symbol, maxSupply int64) (err error) {
	start := l.now()
	defer func() { observe("create", start, err) }()

	if caller != l.owner {
		return fmt.Errorf("%w: create requires the ledger owner", ErrUnauthorized)
	}
	if !issuer.IsValid() {
		return fmt.Errorf("%w: empty issuer", ErrInvalidAmount)
	}
	if !symbol.IsValid() {
		return fmt.Errorf("%w: bad symbol %q", ErrInvalidAmount, symbol)
	}
	if maxSupply <= 0 {
		return fmt.Errorf("%w: max supply must be positive", ErrInvalidAmount)
	}

	err = l.store.WithinTx(ctx, func(tx storage.Tx) error {
		return tx.CreateSupply(ctx, &domain.Supply{
			Symbol: symbol,
			Max:    maxSupply,
			Issuer: issuer,
		})
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("%w: symbol %s", ErrAlreadyExists, symbol)
	}
	if err == nil {
		l.logger.Printf("created %s max=%d issuer=%s", symbol, maxSupply, issuer)
	}
	return err
}

// Mint creates amount new units of symbol for the caller, plus mint-path
// fees on top for the team, fund and marketing treasuries. The caller must
// be a registered minter. When to differs from the caller, the minted
// amount moves to it through a standard transfer in the same transaction.
func (l *Ledger) Mint(ctx context.Context, caller, to domain.Account, symbol domain.Symbol, amount int64, memoText string) (receipt *MintReceipt, err error) {
	start := l.now()
	defer func() { observe("mint", start, err) }()

	if !to.IsValid() {
		return nil, fmt.Errorf("%w: empty recipient", ErrInvalidAmount)
	}
	if !symbol.IsValid() {
		return nil, fmt.Errorf("%w: bad symbol %q", ErrInvalidAmount, symbol)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: mint amount must be positive", ErrInvalidAmount)
	}
	if len(memoText) > maxMemoLen {
		return nil, fmt.Errorf("%w: memo exceeds %d bytes", ErrInvalidAmount, maxMemoLen)
	}

	var (
		fees   fee.MintSplit
		total  int64
		opID   string
		moved  bool
		nonce  = start.UnixMilli()
		emitAt = start.UnixMilli()
	)

	err = l.store.WithinTx(ctx, func(tx storage.Tx) error {
		isMinter, err := tx.IsMinter(ctx, caller)
		if err != nil {
			return err
		}
		if !isMinter {
			return fmt.Errorf("%w: %s is not a minter", ErrUnauthorized, caller)
		}

		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		sup, err := tx.Supply(ctx, symbol)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: unknown symbol %s", ErrNotFound, symbol)
		}
		if err != nil {
			return err
		}

		fees = fee.MintFees(amount, cfg.Fees)
		if ft := fees.Total(); ft < 0 || amount > math.MaxInt64-ft {
			return fmt.Errorf("%w: mint total overflows", ErrSupplyExceeded)
		}
		total = amount + fees.Total()
		if total > sup.Max-sup.Current {
			return fmt.Errorf("%w: %s has %d of %d headroom, mint needs %d",
				ErrSupplyExceeded, symbol, sup.Max-sup.Current, sup.Max, total)
		}

		if err := tx.SetSupplyCurrent(ctx, symbol, sup.Current+total); err != nil {
			return err
		}
		if err := credit(ctx, tx, caller, symbol, amount); err != nil {
			return err
		}
		for _, part := range []struct {
			to     domain.Account
			amount int64
		}{
			{cfg.Team, fees.Team},
			{cfg.Fund, fees.Fund},
			{cfg.Marketing, fees.Marketing},
		} {
			if part.amount <= 0 {
				continue
			}
			if err := credit(ctx, tx, part.to, symbol, part.amount); err != nil {
				return err
			}
		}

		if to != caller {
			if err := debit(ctx, tx, caller, symbol, amount); err != nil {
				return err
			}
			if err := credit(ctx, tx, to, symbol, amount); err != nil {
				return err
			}
			moved = true
		}

		opID = opid.Compute("mint", caller, to, symbol, amount, nonce)
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordMint(total)
	if moved {
		l.emit(ctx, domain.Notice{
			OpID:      opID,
			Kind:      domain.NoticeKindTransfer,
			From:      caller,
			To:        to,
			Symbol:    symbol,
			Amount:    amount,
			Memo:      memoText,
			EmittedAt: emitAt,
		})
	}
	l.logger.Printf("mint %d %s to %s (fees %d)", amount, symbol, to, fees.Total())

	return &MintReceipt{OpID: opID, Fees: fees, Total: total}, nil
}

// Burn destroys amount units from the caller's own balance and reduces the
// circulating supply by the same amount. No fees apply.
func (l *Ledger) Burn(ctx context.Context, caller domain.Account, symbol domain.Symbol, amount int64, memoText string) (err error) {
	start := l.now()
	defer func() { observe("burn", start, err) }()

	if !symbol.IsValid() {
		return fmt.Errorf("%w: bad symbol %q", ErrInvalidAmount, symbol)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: burn amount must be positive", ErrInvalidAmount)
	}
	if len(memoText) > maxMemoLen {
		return fmt.Errorf("%w: memo exceeds %d bytes", ErrInvalidAmount, maxMemoLen)
	}

	err = l.store.WithinTx(ctx, func(tx storage.Tx) error {
		sup, err := tx.Supply(ctx, symbol)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: unknown symbol %s", ErrNotFound, symbol)
		}
		if err != nil {
			return err
		}
		if sup.Current < amount {
			return fmt.Errorf("%w: supply %d below burn of %d", ErrInvalidAmount, sup.Current, amount)
		}
		if err := debit(ctx, tx, caller, symbol, amount); err != nil {
			return err
		}
		return tx.SetSupplyCurrent(ctx, symbol, sup.Current-amount)
	})
	if err != nil {
		return err
	}

	observability.RecordBurn(amount)
	l.logger.Printf("burn %d %s from %s", amount, symbol, caller)
	return nil
}

// Close removes the caller's zero balance row for symbol, releasing its
// storage. A non-zero balance cannot be closed.
func (l *Ledger) Close(ctx context.Context, caller domain.Account, symbol domain.Symbol) (err error) {
	start := l.now()
	defer func() { observe("close", start, err) }()

	return l.store.WithinTx(ctx, func(tx storage.Tx) error {
		bal, err := tx.Balance(ctx, caller, symbol)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: no balance for %s %s", ErrNotFound, caller, symbol)
		}
		if err != nil {
			return err
		}
		if bal != 0 {
			return fmt.Errorf("%w: %s holds %d %s", ErrNonZeroBalance, caller, bal, symbol)
		}
		return tx.DeleteBalance(ctx, caller, symbol)
	})
}
