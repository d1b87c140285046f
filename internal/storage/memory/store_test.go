package memory

import (
	"context"
	"errors"
	"testing"

	"token-ledger/internal/domain"
	"token-ledger/internal/storage"
)

func TestStore_BalanceLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.Balance(ctx, "alice", "TKN"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Balance on missing row: err = %v, want ErrNotFound", err)
		}
		return tx.SetBalance(ctx, "alice", "TKN", 100)
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}

	err = store.WithinTx(ctx, func(tx storage.Tx) error {
		amount, err := tx.Balance(ctx, "alice", "TKN")
		if err != nil {
			t.Fatalf("Balance failed: %v", err)
		}
		if amount != 100 {
			t.Errorf("amount = %d, want 100", amount)
		}
		return tx.DeleteBalance(ctx, "alice", "TKN")
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}

	_ = store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteBalance(ctx, "alice", "TKN"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("DeleteBalance on missing row: err = %v, want ErrNotFound", err)
		}
		return nil
	})
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	store := New()
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := tx.SetBalance(ctx, "alice", "TKN", 55); err != nil {
			return err
		}
		if err := tx.CreateSupply(ctx, &domain.Supply{Symbol: "TKN", Max: 1000}); err != nil {
			return err
		}
		if err := tx.AddMinter(ctx, "minter"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx err = %v, want boom", err)
	}

	_ = store.WithinTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.Balance(ctx, "alice", "TKN"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("balance survived rollback: err = %v", err)
		}
		if _, err := tx.Supply(ctx, "TKN"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("supply survived rollback: err = %v", err)
		}
		isMinter, _ := tx.IsMinter(ctx, "minter")
		if isMinter {
			t.Error("minter survived rollback")
		}
		return nil
	})
}

func TestStore_StagedReadsSeeOwnWrites(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := tx.SetBalance(ctx, "alice", "TKN", 10); err != nil {
			return err
		}
		amount, err := tx.Balance(ctx, "alice", "TKN")
		if err != nil {
			return err
		}
		if amount != 10 {
			t.Errorf("staged amount = %d, want 10", amount)
		}

		if err := tx.DeleteBalance(ctx, "alice", "TKN"); err != nil {
			return err
		}
		if _, err := tx.Balance(ctx, "alice", "TKN"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("staged delete not visible: err = %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}
}

func TestStore_SupplyLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateSupply(ctx, &domain.Supply{Symbol: "TKN", Max: 1000, Issuer: "owner"}); err != nil {
			return err
		}
		if err := tx.CreateSupply(ctx, &domain.Supply{Symbol: "TKN", Max: 9}); !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("duplicate CreateSupply: err = %v, want ErrAlreadyExists", err)
		}
		return tx.SetSupplyCurrent(ctx, "TKN", 40)
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}

	_ = store.WithinTx(ctx, func(tx storage.Tx) error {
		sup, err := tx.Supply(ctx, "TKN")
		if err != nil {
			t.Fatalf("Supply failed: %v", err)
		}
		if sup.Current != 40 || sup.Max != 1000 || sup.Issuer != "owner" {
			t.Errorf("supply = %+v", sup)
		}
		if err := tx.SetSupplyCurrent(ctx, "NOPE", 1); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("SetSupplyCurrent on missing symbol: err = %v, want ErrNotFound", err)
		}
		return nil
	})
}

func TestStore_ConfigSingleton(t *testing.T) {
	store := New()
	ctx := context.Background()

	_ = store.WithinTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.Config(ctx); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Config before init: err = %v, want ErrNotFound", err)
		}
		return tx.SetConfig(ctx, &domain.Config{Admin: "admin", Team: "team"})
	})

	_ = store.WithinTx(ctx, func(tx storage.Tx) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			t.Fatalf("Config failed: %v", err)
		}
		if cfg.Admin != "admin" || cfg.Team != "team" {
			t.Errorf("config = %+v", cfg)
		}

		// Mutating the returned copy must not leak into the store.
		cfg.Admin = "mallory"
		again, _ := tx.Config(ctx)
		if again.Admin != "admin" {
			t.Error("config copy leaked mutation")
		}
		return nil
	})
}

func TestStore_WhitelistAndMinters(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(tx storage.Tx) error {
		if err := tx.AddMinter(ctx, "minter"); err != nil {
			return err
		}
		if err := tx.AddMinter(ctx, "minter"); err != nil { // idempotent
			return err
		}
		if err := tx.AddWhitelist(ctx, "vip"); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}

	_ = store.WithinTx(ctx, func(tx storage.Tx) error {
		isMinter, _ := tx.IsMinter(ctx, "minter")
		if !isMinter {
			t.Error("minter missing")
		}
		listed, _ := tx.IsWhitelisted(ctx, "vip")
		if !listed {
			t.Error("whitelist entry missing")
		}

		if err := tx.RemoveWhitelist(ctx, "vip"); err != nil {
			t.Fatalf("RemoveWhitelist failed: %v", err)
		}
		listed, _ = tx.IsWhitelisted(ctx, "vip")
		if listed {
			t.Error("removal not visible in same tx")
		}
		if err := tx.RemoveWhitelist(ctx, "vip"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second removal: err = %v, want ErrNotFound", err)
		}
		return nil
	})

	_ = store.WithinTx(ctx, func(tx storage.Tx) error {
		listed, _ := tx.IsWhitelisted(ctx, "vip")
		if listed {
			t.Error("removal did not commit")
		}
		return nil
	})
}

func TestNoticeStore(t *testing.T) {
	store := NewNoticeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Insert(nil): err = %v, want ErrInvalidInput", err)
	}

	n := &domain.Notice{OpID: "op1", Kind: domain.NoticeKindAudit, From: "a", To: "b", Symbol: "TKN", Amount: 5}
	if err := store.Insert(ctx, n); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got := store.Notices()
	if len(got) != 1 || got[0].OpID != "op1" {
		t.Errorf("Notices = %+v", got)
	}
}
