package domain

// Symbol identifies a token. Symbols are 1 to 7 uppercase ASCII letters.
type Symbol string

// MaxSymbolLen is the maximum symbol length.
const MaxSymbolLen = 7

// String returns the string representation of Symbol.
func (s Symbol) String() string {
	return string(s)
}

// IsValid checks the symbol format: 1..7 uppercase ASCII letters.
func (s Symbol) IsValid() bool {
	if len(s) == 0 || len(s) > MaxSymbolLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
