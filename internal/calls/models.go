package calls

import (
	"errors"
	"strings"
)

var ErrInvalidArgument = errors.New("calls: invalid argument")

// NormalizeNumber strips formatting from a dialable number: spaces, dashes,
// dots and parentheses go, a leading '+' is kept. Internal extensions and
// SIP URIs (sip:user@host, sips:user@host) pass through unchanged. It returns
// "" for anything else.
func NormalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsSIPURI(s) {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return ""
		}
	}
	out := b.String()
	if out == "" || out == "+" {
		return ""
	}
	return out
}

// NormalizeExtension accepts an internal extension only: digits after the
// same formatting cleanup as NormalizeNumber, no '+' and no SIP URI.
func NormalizeExtension(s string) string {
	n := NormalizeNumber(s)
	if n == "" || IsSIPURI(n) || strings.HasPrefix(n, "+") {
		return ""
	}
	return n
}

// IsSIPURI reports whether s looks like sip:user@host or sips:user@host.
func IsSIPURI(s string) bool {
	lower := strings.ToLower(s)
	var rest string
	switch {
	case strings.HasPrefix(lower, "sip:"):
		rest = s[len("sip:"):]
	case strings.HasPrefix(lower, "sips:"):
		rest = s[len("sips:"):]
	default:
		return false
	}
	at := strings.IndexByte(rest, '@')
	if at <= 0 || at == len(rest)-1 {
		return false
	}
	return !strings.ContainsAny(rest, " \t\r\n")
}
