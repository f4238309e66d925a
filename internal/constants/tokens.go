package constants

import (
	"strconv"
	"strings"
	"unicode"
)

// Tokens splits a map script into tokens. Whitespace, parentheses, commas
// and semicolons separate tokens; a double-quoted string is one token
// (quotes included) even when it holds separators. An unterminated quote
// runs to the end of the script.
func Tokens(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	inQuote := false
	for _, r := range script {
		switch {
		case inQuote:
			cur.WriteRune(r)
			if r == '"' {
				inQuote = false
				flush()
			}
		case r == '"':
			flush()
			cur.WriteRune(r)
			inQuote = true
		case unicode.IsSpace(r) || strings.ContainsRune("(),;", r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// CountTokens returns the number of tokens in script.
func CountTokens(script string) int {
	return len(Tokens(script))
}

// UnknownCommands returns the words of script that are neither numbers,
// quoted strings nor commands known to the catalog, in order of first
// appearance.
func (c *Catalog) UnknownCommands(script string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range Tokens(script) {
		if strings.HasPrefix(tok, `"`) || c.IsCommand(tok) {
			continue
		}
		if _, err := strconv.Atoi(tok); err == nil {
			continue
		}
		key := strings.ToLower(tok)
		if !seen[key] {
			seen[key] = true
			out = append(out, tok)
		}
	}
	return out
}
