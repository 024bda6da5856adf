package validate

import "regexp"

// MinPasswordLength is the shortest password accepted by [Password].
const MinPasswordLength = 8

var (
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,}$`)
)

// Email reports whether s looks like local@domain.tld.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Username reports whether s has at least three characters, all letters,
// digits or underscores.
func Username(s string) bool {
	return usernamePattern.MatchString(s)
}

// Password reports whether s has at least [MinPasswordLength] alphanumeric
// characters including at least one letter and one digit.
func Password(s string) bool {
	if len(s) < MinPasswordLength {
		return false
	}

	var hasLetter, hasDigit bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			return false
		}
	}
	return hasLetter && hasDigit
}

// PasswordsMatch reports whether the confirmation equals the password.
func PasswordsMatch(password, confirm string) bool {
	return password == confirm
}
