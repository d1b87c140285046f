// Package postgres provides the PostgreSQL ledger store backend.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"token-ledger/internal/domain"
	"token-ledger/internal/storage"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to PostgreSQL and verifies the connection.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// pgUniqueViolation is the SQLSTATE code raised on duplicate keys.
const pgUniqueViolation = "23505"

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Store implements storage.Store using PostgreSQL. Each ledger operation
// maps to one SQL transaction; rows read for mutation are locked with
// SELECT ... FOR UPDATE so concurrent operations serialize per row.
type Store struct {
	pool *Pool
}

// NewStore creates a new Store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

// WithinTx runs fn inside a SQL transaction. On error the transaction is
// rolled back and nothing is persisted.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	t := &tx{tx: pgtx}
	if err := fn(t); err != nil {
		_ = pgtx.Rollback(ctx)
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// tx implements storage.Tx over a pgx transaction.
type tx struct {
	tx pgx.Tx
}

// Compile-time interface check.
var _ storage.Tx = (*tx)(nil)

func (t *tx) Balance(ctx context.Context, owner domain.Account, symbol domain.Symbol) (int64, error) {
	query := `
		SELECT amount
		FROM balances
		WHERE owner = $1 AND symbol = $2
		FOR UPDATE
	`

	var amount int64
	err := t.tx.QueryRow(ctx, query, string(owner), string(symbol)).Scan(&amount)
	if err != nil {
		if isNotFoundError(err) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return amount, nil
}

func (t *tx) SetBalance(ctx context.Context, owner domain.Account, symbol domain.Symbol, amount int64) error {
	if !owner.IsValid() || amount < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO balances (owner, symbol, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner, symbol) DO UPDATE SET amount = EXCLUDED.amount
	`

	if _, err := t.tx.Exec(ctx, query, string(owner), string(symbol), amount); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func (t *tx) DeleteBalance(ctx context.Context, owner domain.Account, symbol domain.Symbol) error {
	ct, err := t.tx.Exec(ctx,
		`DELETE FROM balances WHERE owner = $1 AND symbol = $2`,
		string(owner), string(symbol),
	)
	if err != nil {
		return fmt.Errorf("delete balance: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *tx) Supply(ctx context.Context, symbol domain.Symbol) (*domain.Supply, error) {
	query := `
		SELECT symbol, current_supply, max_supply, issuer
		FROM supplies
		WHERE symbol = $1
		FOR UPDATE
	`

	var s domain.Supply
	var symbolStr, issuerStr string
	err := t.tx.QueryRow(ctx, query, string(symbol)).Scan(&symbolStr, &s.Current, &s.Max, &issuerStr)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get supply: %w", err)
	}

	s.Symbol = domain.Symbol(symbolStr)
	s.Issuer = domain.Account(issuerStr)
	return &s, nil
}

func (t *tx) CreateSupply(ctx context.Context, s *domain.Supply) error {
	if s == nil || !s.Symbol.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO supplies (symbol, current_supply, max_supply, issuer)
		VALUES ($1, $2, $3, $4)
	`

	_, err := t.tx.Exec(ctx, query, string(s.Symbol), s.Current, s.Max, string(s.Issuer))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create supply: %w", err)
	}
	return nil
}

func (t *tx) SetSupplyCurrent(ctx context.Context, symbol domain.Symbol, current int64) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE supplies SET current_supply = $2 WHERE symbol = $1`,
		string(symbol), current,
	)
	if err != nil {
		return fmt.Errorf("set supply: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *tx) Config(ctx context.Context) (*domain.Config, error) {
	query := `
		SELECT admin_account, team_account, fund_account, marketing_account,
		       dividend_account, airdrop_account, liquidity_account,
		       team_fee_bp, fund_fee_bp, marketing_fee_bp, burn_fee_bp,
		       dividend_fee_bp, airdrop_fee_bp, liquidity_fee_bp
		FROM ledger_config
		WHERE id = 1
		FOR UPDATE
	`

	var c domain.Config
	err := t.tx.QueryRow(ctx, query).Scan(
		&c.Admin, &c.Team, &c.Fund, &c.Marketing,
		&c.Dividend, &c.Airdrop, &c.Liquidity,
		&c.Fees.TeamBP, &c.Fees.FundBP, &c.Fees.MarketingBP, &c.Fees.BurnBP,
		&c.Fees.DividendBP, &c.Fees.AirdropBP, &c.Fees.LiquidityBP,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get config: %w", err)
	}
	return &c, nil
}

func (t *tx) SetConfig(ctx context.Context, c *domain.Config) error {
	if c == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ledger_config (
			id, admin_account, team_account, fund_account, marketing_account,
			dividend_account, airdrop_account, liquidity_account,
			team_fee_bp, fund_fee_bp, marketing_fee_bp, burn_fee_bp,
			dividend_fee_bp, airdrop_fee_bp, liquidity_fee_bp
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			admin_account = EXCLUDED.admin_account,
			team_account = EXCLUDED.team_account,
			fund_account = EXCLUDED.fund_account,
			marketing_account = EXCLUDED.marketing_account,
			dividend_account = EXCLUDED.dividend_account,
			airdrop_account = EXCLUDED.airdrop_account,
			liquidity_account = EXCLUDED.liquidity_account,
			team_fee_bp = EXCLUDED.team_fee_bp,
			fund_fee_bp = EXCLUDED.fund_fee_bp,
			marketing_fee_bp = EXCLUDED.marketing_fee_bp,
			burn_fee_bp = EXCLUDED.burn_fee_bp,
			dividend_fee_bp = EXCLUDED.dividend_fee_bp,
			airdrop_fee_bp = EXCLUDED.airdrop_fee_bp,
			liquidity_fee_bp = EXCLUDED.liquidity_fee_bp
	`

	_, err := t.tx.Exec(ctx, query,
		string(c.Admin), string(c.Team), string(c.Fund), string(c.Marketing),
		string(c.Dividend), string(c.Airdrop), string(c.Liquidity),
		c.Fees.TeamBP, c.Fees.FundBP, c.Fees.MarketingBP, c.Fees.BurnBP,
		c.Fees.DividendBP, c.Fees.AirdropBP, c.Fees.LiquidityBP,
	)
	if err != nil {
		return fmt.Errorf("set config: %w", err)
	}
	return nil
}

func (t *tx) IsMinter(ctx context.Context, account domain.Account) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM minters WHERE account = $1)`,
		string(account),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check minter: %w", err)
	}
	return exists, nil
}

func (t *tx) AddMinter(ctx context.Context, account domain.Account) error {
	if !account.IsValid() {
		return storage.ErrInvalidInput
	}

	_, err := t.tx.Exec(ctx,
		`INSERT INTO minters (account) VALUES ($1) ON CONFLICT (account) DO NOTHING`,
		string(account),
	)
	if err != nil {
		return fmt.Errorf("add minter: %w", err)
	}
	return nil
}

func (t *tx) IsWhitelisted(ctx context.Context, account domain.Account) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM whitelist WHERE account = $1)`,
		string(account),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check whitelist: %w", err)
	}
	return exists, nil
}

func (t *tx) AddWhitelist(ctx context.Context, account domain.Account) error {
	if !account.IsValid() {
		return storage.ErrInvalidInput
	}

	_, err := t.tx.Exec(ctx,
		`INSERT INTO whitelist (account) VALUES ($1) ON CONFLICT (account) DO NOTHING`,
		string(account),
	)
	if err != nil {
		return fmt.Errorf("add whitelist: %w", err)
	}
	return nil
}

func (t *tx) RemoveWhitelist(ctx context.Context, account domain.Account) error {
	ct, err := t.tx.Exec(ctx,
		`DELETE FROM whitelist WHERE account = $1`,
		string(account),
	)
	if err != nil {
		return fmt.Errorf("remove whitelist: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
