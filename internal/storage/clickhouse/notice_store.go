package clickhouse

import (
	"context"
	"fmt"

	"token-ledger/internal/domain"
	"token-ledger/internal/storage"
)

// NoticeStore implements storage.NoticeStore using ClickHouse. Notices are
// append-only bookkeeping records; MergeTree without uniqueness is a fit.
type NoticeStore struct {
	conn *Conn
}

// NewNoticeStore creates a new NoticeStore.
func NewNoticeStore(conn *Conn) *NoticeStore {
	return &NoticeStore{conn: conn}
}

// Compile-time interface checks.
var (
	_ storage.NoticeStore   = (*NoticeStore)(nil)
	_ storage.NoticeQuerier = (*NoticeStore)(nil)
)

// Insert appends a notice.
func (s *NoticeStore) Insert(ctx context.Context, n *domain.Notice) error {
	if n == nil || n.OpID == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ledger_notices (
			op_id, kind, from_account, to_account, symbol, amount, memo, emitted_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		n.OpID, n.Kind, string(n.From), string(n.To),
		string(n.Symbol), n.Amount, n.Memo, uint64(n.EmittedAt),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByOpID retrieves notices for one operation, ordered by emission time.
func (s *NoticeStore) GetByOpID(ctx context.Context, opID string) ([]*domain.Notice, error) {
	query := `
		SELECT op_id, kind, from_account, to_account, symbol, amount, memo, emitted_at
		FROM ledger_notices
		WHERE op_id = ?
		ORDER BY emitted_at ASC
	`

	rows, err := s.conn.Query(ctx, query, opID)
	if err != nil {
		return nil, fmt.Errorf("query by op id: %w", err)
	}
	defer rows.Close()

	var notices []*domain.Notice
	for rows.Next() {
		var n domain.Notice
		var from, to, symbol string
		var emittedAt uint64

		err := rows.Scan(&n.OpID, &n.Kind, &from, &to, &symbol, &n.Amount, &n.Memo, &emittedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notice row: %w", err)
		}

		n.From = domain.Account(from)
		n.To = domain.Account(to)
		n.Symbol = domain.Symbol(symbol)
		n.EmittedAt = int64(emittedAt)
		notices = append(notices, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notice rows: %w", err)
	}

	return notices, nil
}
