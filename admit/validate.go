package admit

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the longest player name (in runes) the board accepts.
const MaxNameLength = 32

// normalizeName produces the canonical form stored on the leaderboard: NFKC
// normalized and trimmed. The client truncates names in its UI, but nothing
// from the client can be trusted, so the same limits are enforced here.
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(norm.NFKC.String(name))
	if name == "" {
		return "", fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: name contains invalid UTF-8", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name exceeds maximum length of %d", ErrInvalidInput, MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: name contains control character", ErrInvalidInput)
		}
	}
	return name, nil
}
