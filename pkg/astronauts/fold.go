package astronauts

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold returns s lower cased for case-insensitive comparison. Lowering keeps
// the character count stable, so "ß" never matches "ss".
func Fold(s string) string {
	// cases.Caser is stateful and not safe for concurrent use.
	return cases.Lower(language.Und).String(s)
}
