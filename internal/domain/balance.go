package domain

// Balance represents one (owner, symbol) ledger row.
// Corresponds to the balances table in PostgreSQL.
type Balance struct {
	Owner  Account // account holding the balance
	Symbol Symbol  // token symbol
	Amount int64   // current balance, never negative
}
