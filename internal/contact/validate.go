// internal/contact/validate.go
//
// Contact form – field predicates.
//
// Context
//   Three pure predicates decide whether a field value is acceptable.  They
//   never touch form state; the controller pairs them with the error
//   presentation helpers in form.go.
//
//   The email check is a shape check only: something, “@”, something, “.”,
//   something, with no whitespace and no second “@” anywhere.  It is not an
//   RFC 5322 parser and does not look at domain structure.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package contact

import (
	"regexp"
	"strings"
	"unicode"
)

// notSpaceOrAt matches one character that is neither “@” nor whitespace.
// Whitespace is the browser's set: the ASCII set, vertical tab, BOM, and
// every Unicode space, line, or paragraph separator.  NEL (U+0085) is a
// control character there and so counts as content.
const notSpaceOrAt = `[^@\s\v\x{FEFF}\p{Z}]`

var emailPattern = regexp.MustCompile(
	`^` + notSpaceOrAt + `+@` + notSpaceOrAt + `+\.` + notSpaceOrAt + `+$`,
)

// Trim strips leading and trailing whitespace using the same set the email
// pattern treats as whitespace.
func Trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func isSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// IsValidName reports whether s has at least one non-whitespace character.
func IsValidName(s string) bool {
	return Trim(s) != ""
}

// IsValidEmail reports whether s has the local@domain.tld shape.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidMessage reports whether s has at least one non-whitespace
// character.  Same contract as IsValidName today; kept separate so the two
// rules can diverge.
func IsValidMessage(s string) bool {
	return Trim(s) != ""
}

// Validator returns the predicate bound to f.
func Validator(f Field) func(string) bool {
	switch f {
	case FieldName:
		return IsValidName
	case FieldEmail:
		return IsValidEmail
	case FieldMessage:
		return IsValidMessage
	default:
		return func(string) bool { return false }
	}
}
