package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Request describes one call. Body is JSON-encoded when non-nil.
type Request struct {
	Method          string
	Path            string
	Query           url.Values
	Body            any
	WithCredentials bool
}

// ActionLink is a server-suggested follow-up (e.g. "Go to login").
type ActionLink struct {
	Target string `json:"target"`
	Text   string `json:"text"`
}

// Result is the normalized response body.
type Result struct {
	HTTPStatus  int
	OK          bool
	Success     bool
	Message     string
	Details     string
	ShowResend  *bool
	ActionLink  *ActionLink
	RedirectURL string

	fields map[string]json.RawMessage
}

// RateLimited reports whether the server answered 429.
func (r Result) RateLimited() bool {
	return r.HTTPStatus == http.StatusTooManyRequests
}

// ResendOffered returns showResendButton, or fallback when the server did
// not send it.
func (r Result) ResendOffered(fallback bool) bool {
	if r.ShowResend == nil {
		return fallback
	}
	return *r.ShowResend
}

// Field decodes an extra top-level body field into v. It reports false when
// the field is absent or null.
func (r Result) Field(name string, v any) (bool, error) {
	raw, ok := r.fields[name]
	if !ok || isNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, err
	}
	return true, nil
}
