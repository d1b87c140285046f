package domain

// Notice kind constants
const (
	NoticeKindTransfer = "transfer" // standard-path transfer, notifies both parties
	NoticeKindAudit    = "audit"    // fee-split bookkeeping notice, authorized by the ledger itself
)

// Notice is the bookkeeping record emitted to both parties after a completed
// transfer. On the fee-split path Amount is the recipient remainder, not the
// requested amount. Corresponds to the ledger_notices table in ClickHouse.
type Notice struct {
	OpID      string  // deterministic operation identifier
	Kind      string  // NoticeKindTransfer | NoticeKindAudit
	From      Account // original sender
	To        Account // original recipient
	Symbol    Symbol  // token symbol
	Amount    int64   // amount credited to the recipient
	Memo      string  // memo as supplied by the caller
	EmittedAt int64   // Unix timestamp in milliseconds
}
