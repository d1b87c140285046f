package memory

import (
	"context"
	"sync"

	"token-ledger/internal/domain"
	"token-ledger/internal/storage"
)

// NoticeStore is an in-memory implementation of storage.NoticeStore.
type NoticeStore struct {
	mu      sync.RWMutex
	notices []domain.Notice
}

// NewNoticeStore creates a new in-memory notice store.
func NewNoticeStore() *NoticeStore {
	return &NoticeStore{}
}

// Compile-time interface checks.
var (
	_ storage.NoticeStore   = (*NoticeStore)(nil)
	_ storage.NoticeQuerier = (*NoticeStore)(nil)
)

// Insert appends a notice.
func (s *NoticeStore) Insert(_ context.Context, n *domain.Notice) error {
	if n == nil || n.OpID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notices = append(s.notices, *n)
	return nil
}

// GetByOpID returns the notices for one operation in insertion order.
func (s *NoticeStore) GetByOpID(_ context.Context, opID string) ([]*domain.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Notice
	for _, n := range s.notices {
		if n.OpID == opID {
			noticeCopy := n
			out = append(out, &noticeCopy)
		}
	}
	return out, nil
}

// Notices returns a copy of all stored notices in insertion order.
func (s *NoticeStore) Notices() []domain.Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Notice, len(s.notices))
	copy(out, s.notices)
	return out
}
