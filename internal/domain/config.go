package domain

// BasisPointDenom is the fee-rate denominator: rates are parts per 10,000.
const BasisPointDenom = 10000

// FeeSchedule holds the seven fee rates in basis points.
// Team, fund and marketing apply on the mint path (added on top of the
// requested amount). Burn, dividend, airdrop and liquidity apply on the
// transfer path (subtracted from the requested amount).
type FeeSchedule struct {
	TeamBP      int64
	FundBP      int64
	MarketingBP int64
	BurnBP      int64
	DividendBP  int64
	AirdropBP   int64
	LiquidityBP int64
}

// TransferRateSum returns the combined transfer-path rate.
func (f FeeSchedule) TransferRateSum() int64 {
	return f.BurnBP + f.DividendBP + f.AirdropBP + f.LiquidityBP
}

// Config is the ledger configuration singleton: the admin principal, the
// treasury accounts fees are routed to, and the fee schedule.
// Corresponds to the ledger_config table in PostgreSQL (single row).
type Config struct {
	Admin     Account // may run the admin mutators
	Team      Account // mint-path treasury
	Fund      Account // mint-path treasury
	Marketing Account // mint-path treasury
	Dividend  Account // transfer-path treasury
	Airdrop   Account // transfer-path treasury
	Liquidity Account // transfer-path treasury
	Fees      FeeSchedule
}
