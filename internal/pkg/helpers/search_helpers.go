package helpers

import (
	"fmt"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SplitSearchTerms splits free text on whitespace. Blank input yields nil.
func SplitSearchTerms(search string) []string {
	return strings.Fields(search)
}

// ContainsPattern builds an ILIKE pattern matching term as a literal substring.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// ParseBoolParam accepts the boolean spellings HTML forms and query strings use.
func ParseBoolParam(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q", raw)
}
