package textrepair

import "strings"

// QuoteEscape fixes JSON text containing raw double quotes inside string
// literals, a common defect when a provider double-encodes a nested
// document. Quotes that act as structural delimiters are left alone;
// quotes that are string content are escaped. The function is pure, never
// panics, and is idempotent on already-valid JSON.
func QuoteEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]

		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		// Inside a string literal an escape consumes the next byte verbatim.
		if c == '\\' {
			b.WriteByte(c)
			if i+1 < len(s) {
				b.WriteByte(s[i+1])
				i++
			}
			continue
		}

		if c != '"' {
			b.WriteByte(c)
			continue
		}

		if isStructuralClose(s, i+1) {
			b.WriteByte('"')
			inString = false
		} else {
			b.WriteString(`\"`)
		}
	}

	return b.String()
}

// isStructuralClose decides whether the quote preceding s[pos:] closes a
// string literal. Two-level lookahead: the next significant character,
// and for ':'/',' what can follow it.
func isStructuralClose(s string, pos int) bool {
	i := skipSpace(s, pos)
	if i >= len(s) {
		// End of input: a close quote at the very end is structural.
		return true
	}

	switch s[i] {
	case '}', ']':
		return true
	case ':':
		// Closing a key string only when a value can start after the colon.
		j := skipSpace(s, i+1)
		return j < len(s) && isValueStart(s[j])
	case ',':
		// Closing a value only when another value, or a container close,
		// follows the comma (the latter covers trailing-comma-ish output).
		j := skipSpace(s, i+1)
		if j >= len(s) {
			return false
		}
		return isValueStart(s[j]) || s[j] == ']' || s[j] == '}'
	default:
		return false
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

// isValueStart reports whether c can begin a JSON value.
func isValueStart(c byte) bool {
	switch c {
	case '"', '{', '[', 't', 'f', 'n', '-':
		return true
	}
	return c >= '0' && c <= '9'
}
