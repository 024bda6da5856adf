package flows

import "strings"

// LoginPayload is the body of POST /api/auth/login.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload is the body of POST /api/auth/register. The confirmation
// never leaves the client.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailPayload is the body of forgot-password and resend-verification.
type EmailPayload struct {
	Email string `json:"email"`
}

// ResetPayload is the body of POST /api/auth/reset-password.
type ResetPayload struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// NewLoginPayload builds the login body from the submitted fields.
func NewLoginPayload(f Fields) LoginPayload {
	return LoginPayload{Email: f.Email, Password: f.Password}
}

// NewRegisterPayload builds the registration body. The confirmation is
// never sent.
func NewRegisterPayload(f Fields) RegisterPayload {
	return RegisterPayload{Username: f.Username, Email: f.Email, Password: f.Password}
}

// NewEmailPayload trims the address the way the forgot-password form does.
func NewEmailPayload(email string) EmailPayload {
	return EmailPayload{Email: strings.TrimSpace(email)}
}

// NewResetPayload pairs the reset token with the new password.
func NewResetPayload(token string, f Fields) ResetPayload {
	return ResetPayload{Token: token, Password: f.Password}
}
