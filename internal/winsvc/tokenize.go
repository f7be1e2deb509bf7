package winsvc

import "strings"

// FirstToken returns the first argument of an invocation string, honoring
// double-quoted segments so paths with embedded spaces survive intact.
// Quotes are stripped from the returned token.
func FirstToken(invocation string) string {
	s := strings.TrimSpace(invocation)
	if s == "" {
		return ""
	}

	if s[0] != '"' {
		if idx := strings.IndexAny(s, " \t"); idx >= 0 {
			return s[:idx]
		}

		return s
	}

	var token strings.Builder

	inQuotes := true
	for _, r := range s[1:] {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}

		if !inQuotes && (r == ' ' || r == '\t') {
			break
		}

		token.WriteRune(r)
	}

	return token.String()
}
