package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/optiprice/backend/internal/domain"
)

// previewLength is the number of runes of assembled text exposed on a candidate
const previewLength = 100

// AssembleText builds the single description string used for embedding a listing.
//
// The rule is title + ". " + the bullets joined by spaces, or the long description
// when there are no bullets. Results shorter than minLength runes fall back to the
// title alone. The result is empty only when every source field is empty.
func AssembleText(text domain.ProductText, minLength int) string {
	if text.IsEmpty() {
		return ""
	}

	assembled := text.Title + ". "
	if len(text.Bullets) > 0 {
		assembled += strings.Join(text.Bullets, " ")
	} else {
		assembled += text.LongDescription
	}

	if text.Title != "" && utf8.RuneCountInString(assembled) < minLength {
		return text.Title
	}

	return assembled
}

// previewText returns the leading part of an assembled text for display
func previewText(s string) string {
	return Truncate(s, previewLength)
}

// Truncate shortens s to at most n runes, marking the cut with "..."
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
