package flow

// PatternKind enumerates the closed set of input shapes a transition can
// match. The dialog needs exactly these four; a general regex engine is
// deliberately avoided.
type PatternKind int

const (
	// PatternLiteral matches the input token exactly.
	PatternLiteral PatternKind = iota
	// PatternWildcard matches any non-empty input.
	PatternWildcard
	// PatternDigits matches one or more ASCII digits and nothing else.
	PatternDigits
	// PatternDate matches the DD-MM-YYYY shape (digits and dashes only;
	// calendar validity is the receiving action's concern).
	PatternDate
)

// Pattern is one matchable input shape.
type Pattern struct {
	Kind    PatternKind
	Literal string
}

// Literal builds an exact-token pattern.
func Literal(token string) Pattern {
	return Pattern{Kind: PatternLiteral, Literal: token}
}

// Wildcard matches any non-empty input.
func Wildcard() Pattern {
	return Pattern{Kind: PatternWildcard}
}

// Digits matches digit-only input.
func Digits() Pattern {
	return Pattern{Kind: PatternDigits}
}

// DateShaped matches DD-MM-YYYY shaped input.
func DateShaped() Pattern {
	return Pattern{Kind: PatternDate}
}

// Matches reports whether input fits the pattern.
func (p Pattern) Matches(input string) bool {
	switch p.Kind {
	case PatternLiteral:
		return input == p.Literal
	case PatternWildcard:
		return input != ""
	case PatternDigits:
		return isDigits(input)
	case PatternDate:
		return isDateShaped(input)
	default:
		return false
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isDateShaped checks the DD-MM-YYYY silhouette: 2 digits, dash, 2 digits,
// dash, 4 digits.
func isDateShaped(s string) bool {
	if len(s) != 10 || s[2] != '-' || s[5] != '-' {
		return false
	}
	for i, r := range s {
		if i == 2 || i == 5 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
