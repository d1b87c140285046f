// Package fee computes fee splits from an amount and a fee schedule.
// All functions are pure; rounding is integer floor division.
package fee

import "token-ledger/internal/domain"

// MintSplit holds the mint-path fees for one mint. Mint fees are
// inflationary: they are created on top of the requested amount.
type MintSplit struct {
	Team      int64
	Fund      int64
	Marketing int64
}

// Total returns the sum of all mint-path fees.
func (s MintSplit) Total() int64 {
	return s.Team + s.Fund + s.Marketing
}

// TransferSplit holds the transfer-path fees and the recipient remainder for
// one transfer. Supply is unchanged: the requested amount is redistributed
// among the sinks and the recipient.
type TransferSplit struct {
	Burn      int64
	Airdrop   int64
	Dividend  int64
	Liquidity int64
	Remainder int64 // amount - all transfer-path fees
}

// FeeTotal returns the sum of all transfer-path fees.
func (s TransferSplit) FeeTotal() int64 {
	return s.Burn + s.Airdrop + s.Dividend + s.Liquidity
}

// MintFees computes the mint-path split for amount under the schedule.
func MintFees(amount int64, fees domain.FeeSchedule) MintSplit {
	return MintSplit{
		Team:      apply(amount, fees.TeamBP),
		Fund:      apply(amount, fees.FundBP),
		Marketing: apply(amount, fees.MarketingBP),
	}
}

// TransferFees computes the transfer-path split for amount under the
// schedule. The remainder is non-negative as long as the transfer-path
// rates sum to at most 10000 bp, which configuration validation enforces.
func TransferFees(amount int64, fees domain.FeeSchedule) TransferSplit {
	s := TransferSplit{
		Burn:      apply(amount, fees.BurnBP),
		Airdrop:   apply(amount, fees.AirdropBP),
		Dividend:  apply(amount, fees.DividendBP),
		Liquidity: apply(amount, fees.LiquidityBP),
	}
	s.Remainder = amount - s.FeeTotal()
	return s
}

// apply returns floor(amount * rateBP / 10000) without overflowing int64.
// Splitting amount into quotient and remainder of the denominator keeps the
// intermediate products small while preserving the exact floor.
func apply(amount, rateBP int64) int64 {
	q := amount / domain.BasisPointDenom
	r := amount % domain.BasisPointDenom
	return q*rateBP + r*rateBP/domain.BasisPointDenom
}
