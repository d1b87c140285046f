package domain

// Account identifies a ledger principal. Accounts are opaque identifiers;
// existence and authentication are validated by the caller's environment
// before an operation reaches the ledger.
type Account string

// String returns the string representation of Account.
func (a Account) String() string {
	return string(a)
}

// IsValid checks that the account is non-empty.
func (a Account) IsValid() bool {
	return a != ""
}

// BurnSink is the reserved account credited by fee-split burns. Value sent
// here is permanently out of circulation; supply is not reduced.
const BurnSink Account = "sink.burn"
