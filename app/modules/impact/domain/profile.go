package impactdomain

import (
	"strings"
	"unicode/utf8"
)

// MaxDisplayNameLength bounds leaderboard names, in runes.
const MaxDisplayNameLength = 50

// NormalizeDisplayName trims name and checks it fits on the leaderboard.
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", newValidationError("display_name", "is required")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", newValidationError("display_name", "must be at most %d characters", MaxDisplayNameLength)
	}
	if name == SelfDisplayName {
		return "", newValidationError("display_name", "%q is reserved", SelfDisplayName)
	}
	return name, nil
}
