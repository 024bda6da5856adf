package authflow

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/authflow/gateway"
)

var (
	// ErrValidation marks a submission the client rejected before any call.
	ErrValidation = errors.New("validation failed")
	// ErrTransport marks a call that produced no usable response.
	ErrTransport = gateway.ErrTransport
	// ErrApplication marks a response that did not report success.
	ErrApplication = errors.New("request rejected by server")
	// ErrRateLimited marks an application failure answered with 429.
	ErrRateLimited = errors.New("rate limited by server")
	// ErrSubmissionInFlight is returned when a submit or resend is already running.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrNoPendingEmail is returned by Resend before any email was captured.
	ErrNoPendingEmail = errors.New("no pending email to resend to")
	// ErrResendUnavailable is returned when the current feedback does not offer resend.
	ErrResendUnavailable = errors.New("resend not offered")
	// ErrMissingToken is the cause recorded when a token screen mounts without a token.
	ErrMissingToken = errors.New("token missing from entry parameters")
	// ErrAlreadyMounted is returned by a second Mount on the same token screen.
	ErrAlreadyMounted = errors.New("screen already mounted")
	// ErrTokenNotValidated is returned when the reset form is requested before the token checked out.
	ErrTokenNotValidated = errors.New("reset token not validated")
	// ErrClientNotReady is returned by a nil or closed Client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrNoActionLink is returned by FollowActionLink when the feedback has no link.
	ErrNoActionLink = errors.New("no action link to follow")
	// ErrNoSession is returned by Client.Session when no session cookie is held.
	ErrNoSession = errors.New("no session cookie")
)

// ValidationError names the first field that failed a screen's rule chain.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ApplicationError is a parsed response that did not report success.
// RateLimited is set for 429 answers; it does not change how the screen
// behaves.
type ApplicationError struct {
	Status      int
	Message     string
	RateLimited bool
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *ApplicationError) Is(target error) bool {
	switch target {
	case ErrApplication:
		return true
	case ErrRateLimited:
		return e.RateLimited
	default:
		return false
	}
}
