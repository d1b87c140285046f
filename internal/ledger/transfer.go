package ledger

import (
	"context"
	"errors"
	"fmt"

	"token-ledger/internal/domain"
	"token-ledger/internal/fee"
	"token-ledger/internal/memo"
	"token-ledger/internal/observability"
	"token-ledger/internal/opid"
	"token-ledger/internal/storage"
)

// Routing paths.
const (
	// PathStandard moves the full amount from sender to recipient.
	PathStandard = "standard"
	// PathFeeSplit diverts the transfer-path fees to their sinks and
	// delivers the remainder.
	PathFeeSplit = "fee_split"
)

const maxMemoLen = memo.MaxLen

// TransferReceipt reports how one transfer was routed. On the standard path
// Split holds the full amount in Remainder and zero fees.
type TransferReceipt struct {
	OpID  string
	Path  string
	Split fee.TransferSplit
}

// Transfer moves amount of symbol from the caller to another account,
// routing through either the standard or the fee-split path.
//
// The memo is parsed for a routing directive only when the recipient is the
// swap counterpart. Routing picks the first rule that matches:
//
//  1. a swap directive sent to the swap counterpart takes the fee path;
//  2. a transfer from the swap counterpart takes the fee path, unless the
//     memo carries a deposit or withdraw directive;
//  3. a deposit or withdraw directive, or a whitelisted sender or
//     recipient, takes the standard path;
//  4. everything else takes the fee path.
func (l *Ledger) Transfer(ctx context.Context, caller, from, to domain.Account, symbol domain.Symbol, amount int64, memoText string) (receipt *TransferReceipt, err error) {
	start := l.now()
	defer func() { observe("transfer", start, err) }()

	if from == to {
		return nil, fmt.Errorf("%w: cannot transfer to self", ErrInvalidAmount)
	}
	if caller != from {
		return nil, fmt.Errorf("%w: %s cannot move funds of %s", ErrUnauthorized, caller, from)
	}
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: empty recipient", ErrInvalidAmount)
	}
	if !symbol.IsValid() {
		return nil, fmt.Errorf("%w: bad symbol %q", ErrInvalidAmount, symbol)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: transfer amount must be positive", ErrInvalidAmount)
	}
	if len(memoText) > maxMemoLen {
		return nil, fmt.Errorf("%w: memo exceeds %d bytes", ErrInvalidAmount, maxMemoLen)
	}

	// Directives only carry routing meaning on transfers into the swap
	// counterpart. Everywhere else the memo is opaque text.
	directive := memo.Opaque(memoText)
	if to == l.swap {
		directive = memo.Parse(memoText)
	}

	var (
		path  string
		split fee.TransferSplit
		cfg   *domain.Config
		nonce = start.UnixMilli()
	)

	err = l.store.WithinTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.Supply(ctx, symbol); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: unknown symbol %s", ErrNotFound, symbol)
			}
			return err
		}

		var err error
		cfg, err = loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		path, err = l.route(ctx, tx, from, to, directive)
		if err != nil {
			return err
		}

		if err := debit(ctx, tx, from, symbol, amount); err != nil {
			return err
		}

		if path == PathStandard {
			split = fee.TransferSplit{Remainder: amount}
			return credit(ctx, tx, to, symbol, amount)
		}

		split = fee.TransferFees(amount, cfg.Fees)
		for _, part := range []struct {
			to     domain.Account
			amount int64
		}{
			{domain.BurnSink, split.Burn},
			{cfg.Airdrop, split.Airdrop},
			{cfg.Dividend, split.Dividend},
			{cfg.Liquidity, split.Liquidity},
		} {
			if part.amount <= 0 {
				continue
			}
			if err := credit(ctx, tx, part.to, symbol, part.amount); err != nil {
				return err
			}
		}
		// A remainder of zero (fees consumed the whole amount) must not
		// create a balance row for the recipient.
		if split.Remainder > 0 {
			return credit(ctx, tx, to, symbol, split.Remainder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	opID := opid.Compute("transfer", from, to, symbol, amount, nonce)
	emitAt := start.UnixMilli()

	observability.RecordTransfer(path)
	l.emit(ctx, domain.Notice{
		OpID:      opID,
		Kind:      domain.NoticeKindTransfer,
		From:      from,
		To:        to,
		Symbol:    symbol,
		Amount:    split.Remainder,
		Memo:      memoText,
		EmittedAt: emitAt,
	})

	if path == PathFeeSplit {
		observability.RecordFeeRouted("burn", split.Burn)
		observability.RecordFeeRouted("airdrop", split.Airdrop)
		observability.RecordFeeRouted("dividend", split.Dividend)
		observability.RecordFeeRouted("liquidity", split.Liquidity)
		if ft := split.FeeTotal(); ft > 0 {
			l.emit(ctx, domain.Notice{
				OpID:      opID,
				Kind:      domain.NoticeKindAudit,
				From:      from,
				To:        to,
				Symbol:    symbol,
				Amount:    ft,
				Memo:      memoText,
				EmittedAt: emitAt,
			})
		}
	}

	return &TransferReceipt{OpID: opID, Path: path, Split: split}, nil
}

// route picks the routing path for a transfer. First match wins.
func (l *Ledger) route(ctx context.Context, tx storage.Tx, from, to domain.Account, directive memo.Directive) (string, error) {
	if directive.Kind == memo.KindSwap {
		return PathFeeSplit, nil
	}
	if from == l.swap && !directive.IsDepositOrWithdraw() {
		return PathFeeSplit, nil
	}
	if directive.IsDepositOrWithdraw() {
		return PathStandard, nil
	}
	for _, acc := range []domain.Account{from, to} {
		listed, err := tx.IsWhitelisted(ctx, acc)
		if err != nil {
			return "", err
		}
		if listed {
			return PathStandard, nil
		}
	}
	return PathFeeSplit, nil
}
