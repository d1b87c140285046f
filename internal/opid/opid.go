// Package opid computes deterministic operation identifiers.
package opid

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"token-ledger/internal/domain"
)

// Compute computes a deterministic operation ID using SHA256.
// Formula: SHA256(op|from|to|symbol|amount|nonce), base58-encoded.
// The nonce disambiguates otherwise identical operations; callers pass a
// per-operation value such as a millisecond timestamp.
func Compute(op string, from, to domain.Account, symbol domain.Symbol, amount int64, nonce int64) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		op,
		from,
		to,
		symbol,
		amount,
		nonce,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
