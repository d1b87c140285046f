// Package memo parses transfer memos into routing directives.
//
// The grammar is comma-separated with a case-sensitive first token:
//
//	swap,<arg>,<arg>
//	deposit,<arg>
//	withdraw,<arg>
//
// Anything else is opaque memo text with no routing significance.
// Empty segments are dropped before matching, so "swap,,x" is opaque.
package memo

import "strings"

// MaxLen is the maximum memo length in bytes.
const MaxLen = 256

// Kind classifies a parsed directive.
type Kind int

const (
	KindOpaque Kind = iota
	KindSwap
	KindDeposit
	KindWithdraw
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSwap:
		return "swap"
	case KindDeposit:
		return "deposit"
	case KindWithdraw:
		return "withdraw"
	default:
		return "opaque"
	}
}

// Directive is a parsed memo. Args holds the directive arguments, in order,
// for the structured kinds; it is nil for opaque memos.
type Directive struct {
	Kind Kind
	Args []string
	Raw  string
}

// IsDepositOrWithdraw reports whether the directive is a deposit or
// withdraw, which always routes through the standard path.
func (d Directive) IsDepositOrWithdraw() bool {
	return d.Kind == KindDeposit || d.Kind == KindWithdraw
}

// Opaque wraps raw memo text as an opaque directive without parsing.
func Opaque(raw string) Directive {
	return Directive{Kind: KindOpaque, Raw: raw}
}

// Parse parses a memo once into a Directive.
func Parse(raw string) Directive {
	fields := split(raw)

	switch {
	case len(fields) == 3 && fields[0] == "swap":
		return Directive{Kind: KindSwap, Args: fields[1:], Raw: raw}
	case len(fields) == 2 && fields[0] == "deposit":
		return Directive{Kind: KindDeposit, Args: fields[1:], Raw: raw}
	case len(fields) == 2 && fields[0] == "withdraw":
		return Directive{Kind: KindWithdraw, Args: fields[1:], Raw: raw}
	default:
		return Opaque(raw)
	}
}

// split breaks the memo on commas and drops empty segments.
func split(raw string) []string {
	if raw == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
