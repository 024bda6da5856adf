package flows

import (
	"strings"

	"github.com/MrEthical07/authflow/validate"
)

// Field names reported in a Violation.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldConfirm  = "confirmPassword"
)

// Fields is the union of every credential a screen may hold.
type Fields struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// Rule is one link of a chain. Broken reports whether f violates it.
type Rule struct {
	Field   string
	Message string
	Broken  func(f Fields) bool
}

// Violation names the first rule a set of fields broke.
type Violation struct {
	Field   string
	Message string
}

// Check runs rules in order and stops at the first broken one.
func Check(rules []Rule, f Fields) *Violation {
	for _, r := range rules {
		if r.Broken(f) {
			return &Violation{Field: r.Field, Message: r.Message}
		}
	}
	return nil
}

const (
	msgEnterEmail     = "Please enter your email address"
	msgValidEmail     = "Please enter a valid email address"
	msgPasswordFormat = "Password must be at least 8 characters with at least one letter and one number"
)

// LoginRules is the login screen chain.
var LoginRules = []Rule{
	{Field: FieldEmail, Message: "Please enter both email and password", Broken: func(f Fields) bool {
		return f.Email == "" && f.Password == ""
	}},
	{Field: FieldEmail, Message: msgEnterEmail, Broken: func(f Fields) bool { return f.Email == "" }},
	{Field: FieldPassword, Message: "Please enter your password", Broken: func(f Fields) bool { return f.Password == "" }},
	{Field: FieldEmail, Message: msgValidEmail, Broken: func(f Fields) bool { return !validate.Email(f.Email) }},
}

// RegisterRules is the registration screen chain.
var RegisterRules = []Rule{
	{Field: FieldUsername, Message: "Please fill in all fields", Broken: func(f Fields) bool {
		return f.Username == "" && f.Email == "" && f.Password == "" && f.Confirm == ""
	}},
	{Field: FieldUsername, Message: "Please enter a username", Broken: func(f Fields) bool { return f.Username == "" }},
	{Field: FieldEmail, Message: msgEnterEmail, Broken: func(f Fields) bool { return f.Email == "" }},
	{Field: FieldPassword, Message: "Please enter a password", Broken: func(f Fields) bool { return f.Password == "" }},
	{Field: FieldConfirm, Message: "Please confirm your password", Broken: func(f Fields) bool { return f.Confirm == "" }},
	{Field: FieldUsername, Message: "Username must be at least 3 characters and contain only letters, numbers, and underscores", Broken: func(f Fields) bool {
		return !validate.Username(f.Username)
	}},
	{Field: FieldEmail, Message: msgValidEmail, Broken: func(f Fields) bool { return !validate.Email(f.Email) }},
	{Field: FieldPassword, Message: msgPasswordFormat, Broken: func(f Fields) bool { return !validate.Password(f.Password) }},
	{Field: FieldConfirm, Message: "Passwords do not match", Broken: func(f Fields) bool {
		return !validate.PasswordsMatch(f.Password, f.Confirm)
	}},
}

// ForgotPasswordRules checks the trimmed email only.
var ForgotPasswordRules = []Rule{
	{Field: FieldEmail, Message: msgEnterEmail, Broken: func(f Fields) bool { return strings.TrimSpace(f.Email) == "" }},
	{Field: FieldEmail, Message: msgValidEmail, Broken: func(f Fields) bool { return !validate.Email(strings.TrimSpace(f.Email)) }},
}

// ResetPasswordRules is the new-password form chain.
var ResetPasswordRules = []Rule{
	{Field: FieldPassword, Message: "Please enter and confirm your new password", Broken: func(f Fields) bool {
		return f.Password == "" && f.Confirm == ""
	}},
	{Field: FieldPassword, Message: "Please enter your new password", Broken: func(f Fields) bool { return f.Password == "" }},
	{Field: FieldConfirm, Message: "Please confirm your new password", Broken: func(f Fields) bool { return f.Confirm == "" }},
	{Field: FieldPassword, Message: msgPasswordFormat, Broken: func(f Fields) bool { return !validate.Password(f.Password) }},
	{Field: FieldConfirm, Message: "Passwords don't match", Broken: func(f Fields) bool {
		return !validate.PasswordsMatch(f.Password, f.Confirm)
	}},
}

// EmailCaptureRules guards a typed-in email on the token screens.
var EmailCaptureRules = ForgotPasswordRules
