package ledger

import (
	"context"
	"errors"
	"testing"

	"token-ledger/internal/domain"
	"token-ledger/internal/notify"
	"token-ledger/internal/storage/memory"
)

// setFees is a helper for tests that need a non-zero schedule.
func setFees(t *testing.T, l *Ledger, fees domain.FeeSchedule) {
	t.Helper()
	if err := l.SetFees(context.Background(), testAdmin, fees); err != nil {
		t.Fatalf("SetFees failed: %v", err)
	}
}

func TestTransfer_Validation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000)
	mustMint(t, l, "alice", "TKN", 100)

	tests := []struct {
		name   string
		caller domain.Account
		from   domain.Account
		to     domain.Account
		symbol domain.Symbol
		amount int64
		memo   string
		want   error
	}{
		{"self transfer", "alice", "alice", "alice", "TKN", 10, "", ErrInvalidAmount},
		{"caller mismatch", "mallory", "alice", "bob", "TKN", 10, "", ErrUnauthorized},
		{"bad symbol", "alice", "alice", "bob", "tkn", 10, "", ErrInvalidAmount},
		{"zero amount", "alice", "alice", "bob", "TKN", 0, "", ErrInvalidAmount},
		{"negative amount", "alice", "alice", "bob", "TKN", -5, "", ErrInvalidAmount},
		{"long memo", "alice", "alice", "bob", "TKN", 10, string(make([]byte, 257)), ErrInvalidAmount},
		{"unknown symbol", "alice", "alice", "bob", "OTHER", 10, "", ErrNotFound},
		{"no balance", "carol", "carol", "bob", "TKN", 10, "", ErrInsufficientBalance},
		{"short balance", "alice", "alice", "bob", "TKN", 101, "", ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Transfer(ctx, tt.caller, tt.from, tt.to, tt.symbol, tt.amount, tt.memo)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	// Self-transfer is checked before authorization.
	_, err := l.Transfer(ctx, "mallory", "alice", "alice", "TKN", 10, "")
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Self transfer by third party: expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransfer_StandardAtZeroFees(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000)
	mustMint(t, l, "alice", "TKN", 100)

	receipt, err := l.Transfer(ctx, "alice", "alice", "bob", "TKN", 40, "hello")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	// Zero rates still classify as fee-split; the split is just empty.
	if receipt.Path != PathFeeSplit {
		t.Errorf("Expected fee_split path, got %s", receipt.Path)
	}
	if receipt.Split.FeeTotal() != 0 || receipt.Split.Remainder != 40 {
		t.Errorf("Unexpected split: %+v", receipt.Split)
	}
	if got := balance(t, l, "alice", "TKN"); got != 60 {
		t.Errorf("Expected alice 60, got %d", got)
	}
	if got := balance(t, l, "bob", "TKN"); got != 40 {
		t.Errorf("Expected bob 40, got %d", got)
	}
}

// A 100 bp burn rate on a 40-unit transfer rounds the fee down to zero, so
// the recipient receives the full amount and supply is untouched.
func TestTransfer_SmallAmountRoundsFeeToZero(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000)
	mustMint(t, l, "alice", "TKN", 100)
	setFees(t, l, domain.FeeSchedule{BurnBP: 100})

	receipt, err := l.Transfer(ctx, "alice", "alice", "bob", "TKN", 40, "")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Split.Burn != 0 || receipt.Split.Remainder != 40 {
		t.Errorf("Unexpected split: %+v", receipt.Split)
	}
	if got := balance(t, l, "bob", "TKN"); got != 40 {
		t.Errorf("Expected bob 40, got %d", got)
	}

	sup, _ := l.SupplyOf(ctx, "TKN")
	if sup.Current != 100 {
		t.Errorf("Expected supply 100, got %d", sup.Current)
	}
}

func TestTransfer_FeeSplitConservation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000000)
	mustMint(t, l, "alice", "TKN", 100000)
	setFees(t, l, domain.FeeSchedule{
		BurnBP:      100,
		DividendBP:  200,
		AirdropBP:   50,
		LiquidityBP: 150,
	})

	receipt, err := l.Transfer(ctx, "alice", "alice", "bob", "TKN", 10000, "")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Path != PathFeeSplit {
		t.Fatalf("Expected fee_split path, got %s", receipt.Path)
	}

	s := receipt.Split
	if s.Burn != 100 || s.Dividend != 200 || s.Airdrop != 50 || s.Liquidity != 150 {
		t.Errorf("Unexpected split: %+v", s)
	}
	if s.FeeTotal()+s.Remainder != 10000 {
		t.Errorf("Split does not conserve the amount: %+v", s)
	}

	if got := balance(t, l, "alice", "TKN"); got != 90000 {
		t.Errorf("Expected alice 90000, got %d", got)
	}
	if got := balance(t, l, "bob", "TKN"); got != 9500 {
		t.Errorf("Expected bob 9500, got %d", got)
	}
	if got := balance(t, l, domain.BurnSink, "TKN"); got != 100 {
		t.Errorf("Expected burn sink 100, got %d", got)
	}
	if got := balance(t, l, "treasury.div", "TKN"); got != 200 {
		t.Errorf("Expected dividend 200, got %d", got)
	}
	if got := balance(t, l, "treasury.air", "TKN"); got != 50 {
		t.Errorf("Expected airdrop 50, got %d", got)
	}
	if got := balance(t, l, "treasury.liq", "TKN"); got != 150 {
		t.Errorf("Expected liquidity 150, got %d", got)
	}

	// Burned value sits in the sink; circulating supply is unchanged.
	sup, _ := l.SupplyOf(ctx, "TKN")
	if sup.Current != 100000 {
		t.Errorf("Expected supply 100000, got %d", sup.Current)
	}
}

// With rates at the full 10000 bp cap a small transfer can leave a zero
// remainder; the recipient must not gain a balance row from it.
func TestTransfer_ZeroRemainderCreatesNoRecipientRow(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000)
	mustMint(t, l, "alice", "TKN", 100)
	setFees(t, l, domain.FeeSchedule{BurnBP: 5000, DividendBP: 5000})

	receipt, err := l.Transfer(ctx, "alice", "alice", "bob", "TKN", 2, "")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Split.Burn != 1 || receipt.Split.Dividend != 1 || receipt.Split.Remainder != 0 {
		t.Fatalf("Unexpected split: %+v", receipt.Split)
	}

	if _, err := l.BalanceOf(ctx, "bob", "TKN"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for bob, got %v", err)
	}
	if err := l.Close(ctx, "bob", "TKN"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Close for bob: expected ErrNotFound, got %v", err)
	}
	if got := balance(t, l, domain.BurnSink, "TKN"); got != 1 {
		t.Errorf("Expected burn sink 1, got %d", got)
	}
	if got := balance(t, l, "treasury.div", "TKN"); got != 1 {
		t.Errorf("Expected dividend 1, got %d", got)
	}
	if got := balance(t, l, "alice", "TKN"); got != 98 {
		t.Errorf("Expected alice 98, got %d", got)
	}
}

func TestTransfer_WhitelistedPartyTakesStandardPath(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000)
	mustMint(t, l, "alice", "TKN", 100)
	mustMint(t, l, "exchange", "TKN", 100)
	setFees(t, l, domain.FeeSchedule{BurnBP: 1000})

	if err := l.AddWhitelist(ctx, testAdmin, "exchange"); err != nil {
		t.Fatalf("AddWhitelist failed: %v", err)
	}

	// Whitelisted recipient.
	receipt, err := l.Transfer(ctx, "alice", "alice", "exchange", "TKN", 50, "")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Path != PathStandard {
		t.Errorf("Whitelisted recipient: expected standard path, got %s", receipt.Path)
	}
	if got := balance(t, l, "exchange", "TKN"); got != 150 {
		t.Errorf("Expected exchange 150, got %d", got)
	}

	// Whitelisted sender.
	receipt, err = l.Transfer(ctx, "exchange", "exchange", "bob", "TKN", 50, "")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Path != PathStandard {
		t.Errorf("Whitelisted sender: expected standard path, got %s", receipt.Path)
	}
	if got := balance(t, l, "bob", "TKN"); got != 50 {
		t.Errorf("Expected bob 50, got %d", got)
	}

	// Remove and the fee path returns.
	if err := l.RemoveWhitelist(ctx, testAdmin, "exchange"); err != nil {
		t.Fatalf("RemoveWhitelist failed: %v", err)
	}
	receipt, err = l.Transfer(ctx, "alice", "alice", "exchange", "TKN", 50, "")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Path != PathFeeSplit {
		t.Errorf("After removal: expected fee_split path, got %s", receipt.Path)
	}
}

func TestTransfer_SwapDirectiveOverridesWhitelist(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000)
	mustMint(t, l, "alice", "TKN", 1000)
	setFees(t, l, domain.FeeSchedule{BurnBP: 1000})

	if err := l.AddWhitelist(ctx, testAdmin, "alice"); err != nil {
		t.Fatalf("AddWhitelist failed: %v", err)
	}

	// A swap directive to the swap counterpart beats the whitelist.
	receipt, err := l.Transfer(ctx, "alice", "alice", testSwap, "TKN", 100, "swap,TKN,EOS")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Path != PathFeeSplit {
		t.Errorf("Swap directive: expected fee_split path, got %s", receipt.Path)
	}
	if got := balance(t, l, testSwap, "TKN"); got != 90 {
		t.Errorf("Expected swap 90, got %d", got)
	}

	// The same memo without the directive shape is opaque, so the
	// whitelist applies.
	receipt, err = l.Transfer(ctx, "alice", "alice", testSwap, "TKN", 100, "just a memo")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Path != PathStandard {
		t.Errorf("Opaque memo to swap: expected standard path, got %s", receipt.Path)
	}
}

func TestTransfer_FromSwapCounterpart(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000)
	mustMint(t, l, testSwap, "TKN", 1000)
	setFees(t, l, domain.FeeSchedule{BurnBP: 1000})

	// From the swap counterpart the memo is opaque regardless of shape:
	// directives are only parsed on transfers INTO it. A buy leg always
	// pays the fee.
	receipt, err := l.Transfer(ctx, testSwap, testSwap, "alice", "TKN", 100, "withdraw,alice")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Path != PathFeeSplit {
		t.Errorf("From swap: expected fee_split path, got %s", receipt.Path)
	}
	if got := balance(t, l, "alice", "TKN"); got != 90 {
		t.Errorf("Expected alice 90, got %d", got)
	}
}

func TestTransfer_DepositDirectiveToSwap(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000)
	mustMint(t, l, "alice", "TKN", 100)
	setFees(t, l, domain.FeeSchedule{BurnBP: 1000})

	receipt, err := l.Transfer(ctx, "alice", "alice", testSwap, "TKN", 100, "deposit,alice")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if receipt.Path != PathStandard {
		t.Errorf("Deposit directive: expected standard path, got %s", receipt.Path)
	}
	if got := balance(t, l, testSwap, "TKN"); got != 100 {
		t.Errorf("Expected swap 100, got %d", got)
	}
}

func TestTransfer_MalformedDirectiveIsOpaque(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000000)
	mustMint(t, l, "alice", "TKN", 100000)
	setFees(t, l, domain.FeeSchedule{BurnBP: 1000})

	// Wrong arity, empty segments, wrong case: all opaque, all fee path.
	for _, m := range []string{"swap,TKN", "swap,,TKN", "Deposit,alice", "deposit"} {
		receipt, err := l.Transfer(ctx, "alice", "alice", testSwap, "TKN", 1000, m)
		if err != nil {
			t.Fatalf("Transfer with memo %q failed: %v", m, err)
		}
		if receipt.Path != PathFeeSplit {
			t.Errorf("Memo %q: expected fee_split path, got %s", m, receipt.Path)
		}
	}
}

func TestTransfer_EmitsNotices(t *testing.T) {
	l, _ := newTestLedger(t)
	notices := memory.NewNoticeStore()
	l.notifier = notify.NewSinkNotifier(notices, nil)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000000)
	mustMint(t, l, "alice", "TKN", 100000)
	setFees(t, l, domain.FeeSchedule{BurnBP: 100})

	receipt, err := l.Transfer(ctx, "alice", "alice", "bob", "TKN", 10000, "rent")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	all := notices.Notices()
	if len(all) != 2 {
		t.Fatalf("Expected transfer and audit notices, got %d", len(all))
	}

	transfer, audit := all[0], all[1]
	if transfer.Kind != domain.NoticeKindTransfer {
		t.Errorf("Expected transfer notice first, got %s", transfer.Kind)
	}
	if transfer.Amount != receipt.Split.Remainder {
		t.Errorf("Transfer notice amount: expected remainder %d, got %d", receipt.Split.Remainder, transfer.Amount)
	}
	if audit.Kind != domain.NoticeKindAudit {
		t.Errorf("Expected audit notice second, got %s", audit.Kind)
	}
	if audit.Amount != receipt.Split.FeeTotal() {
		t.Errorf("Audit notice amount: expected fee total %d, got %d", receipt.Split.FeeTotal(), audit.Amount)
	}
	if transfer.OpID != receipt.OpID || audit.OpID != receipt.OpID {
		t.Error("Notices must carry the receipt's operation ID")
	}
	if transfer.From != "alice" || transfer.To != "bob" || transfer.Memo != "rent" {
		t.Errorf("Unexpected transfer notice: %+v", transfer)
	}
}

func TestTransfer_FailureLeavesNoTrace(t *testing.T) {
	l, _ := newTestLedger(t)
	notices := memory.NewNoticeStore()
	l.notifier = notify.NewSinkNotifier(notices, nil)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000)
	mustMint(t, l, "alice", "TKN", 100)

	_, err := l.Transfer(ctx, "alice", "alice", "bob", "TKN", 200, "")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	if got := balance(t, l, "alice", "TKN"); got != 100 {
		t.Errorf("Expected alice unchanged at 100, got %d", got)
	}
	if got := balance(t, l, "bob", "TKN"); got != 0 {
		t.Errorf("Expected bob 0, got %d", got)
	}
	if len(notices.Notices()) != 0 {
		t.Error("Failed transfer must not emit notices")
	}
}

// Total value across all accounts equals circulating supply through a mix
// of standard and fee-split transfers.
func TestTransfer_ValueConservation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustCreate(t, l, "TKN", 1000000)
	mustMint(t, l, "alice", "TKN", 500000)
	setFees(t, l, domain.FeeSchedule{
		BurnBP:      300,
		DividendBP:  100,
		AirdropBP:   100,
		LiquidityBP: 100,
	})

	steps := []struct {
		from, to domain.Account
		amount   int64
		memo     string
	}{
		{"alice", "bob", 123457, ""},
		{"bob", "carol", 9999, ""},
		{"alice", testSwap, 50001, "deposit,alice"},
		{testSwap, "bob", 20000, ""},
		{"carol", "alice", 1, ""},
	}
	for _, s := range steps {
		if _, err := l.Transfer(ctx, s.from, s.from, s.to, "TKN", s.amount, s.memo); err != nil {
			t.Fatalf("Transfer %s->%s %d failed: %v", s.from, s.to, s.amount, err)
		}
	}

	holders := []domain.Account{
		"alice", "bob", "carol", testSwap, domain.BurnSink,
		"treasury.div", "treasury.air", "treasury.liq",
	}
	var total int64
	for _, h := range holders {
		total += balance(t, l, h, "TKN")
	}

	sup, _ := l.SupplyOf(ctx, "TKN")
	if total != sup.Current {
		t.Errorf("Held total %d does not match supply %d", total, sup.Current)
	}
}
