// Package util provides small string helpers shared across packages.
package util

// SafeTruncate safely truncates a string to maxLen characters without
// panicking. Returns the original string if it's shorter than maxLen.
// Used when logging token keys so full credentials never reach logs.
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// upperhex holds the digits used for percent-encoding.
const upperhex = "0123456789ABCDEF"

// PercentEncode escapes a string per RFC 3986 section 2.1 as required by
// the OAuth 1.0a signing rules: everything except unreserved characters
// is percent-encoded with uppercase hex digits. net/url's escaping is
// close but not identical (it encodes space as "+" in query context and
// leaves sub-delimiters alone), so the exact form is implemented here.
func PercentEncode(s string) string {
	hexCount := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			hexCount++
		}
	}
	if hexCount == 0 {
		return s
	}

	out := make([]byte, 0, len(s)+2*hexCount)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			out = append(out, '%', upperhex[c>>4], upperhex[c&0x0F])
		} else {
			out = append(out, c)
		}
	}
	return string(out)
}

// shouldEscape reports whether the byte is outside the RFC 3986
// unreserved set.
func shouldEscape(c byte) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '.', '_', '~':
		return false
	}
	return true
}
