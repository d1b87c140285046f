package domain

// Supply represents the issuance state of one token symbol.
// Corresponds to the supplies table in PostgreSQL. One row per symbol,
// created once, never deleted. Invariant: 0 <= Current <= Max.
type Supply struct {
	Symbol  Symbol  // token symbol, primary key
	Current int64   // tokens currently in circulation
	Max     int64   // fixed ceiling, set at creation
	Issuer  Account // principal that created the symbol
}
