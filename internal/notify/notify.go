// Package notify delivers ledger notices to interested parties. The ledger
// emits a notice after every committed transfer: both original parties are
// named, and on the fee-split path the notice is the audit record authorized
// by the ledger itself.
package notify

import (
	"context"
	"log"
	"os"

	"token-ledger/internal/domain"
	"token-ledger/internal/storage"
)

// Notifier receives notices after the emitting operation has committed.
// Delivery is best-effort: a failing notifier must not fail the operation.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notice)
}

// Multi fans a notice out to several notifiers in order.
type Multi []Notifier

// Notify delivers the notice to every notifier.
func (m Multi) Notify(ctx context.Context, n domain.Notice) {
	for _, nf := range m {
		nf.Notify(ctx, n)
	}
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(os.Stdout, "[notify] ", log.LstdFlags)
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notice.
func (l *LogNotifier) Notify(_ context.Context, n domain.Notice) {
	l.logger.Printf("notice %s kind=%s from=%s to=%s amount=%d %s memo=%q",
		n.OpID, n.Kind, n.From, n.To, n.Amount, n.Symbol, n.Memo)
}

// SinkNotifier persists notices to a NoticeStore.
type SinkNotifier struct {
	store  storage.NoticeStore
	logger *log.Logger
}

// NewSinkNotifier creates a SinkNotifier.
func NewSinkNotifier(store storage.NoticeStore, logger *log.Logger) *SinkNotifier {
	if logger == nil {
		logger = log.New(os.Stdout, "[notify] ", log.LstdFlags)
	}
	return &SinkNotifier{store: store, logger: logger}
}

// Notify appends the notice to the store. Failures are logged, not
// propagated: the ledger operation has already committed.
func (s *SinkNotifier) Notify(ctx context.Context, n domain.Notice) {
	if err := s.store.Insert(ctx, &n); err != nil {
		s.logger.Printf("notice sink insert failed for %s: %v", n.OpID, err)
	}
}
