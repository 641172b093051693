package domain

import (
	"encoding/json"
	"errors"
)

var (
	ErrUnauthorized    = errors.New("remote service rejected the credential")
	ErrNotFound        = errors.New("remote user not found")
	ErrCaptchaRequired = errors.New("remote login requires a captcha")
	ErrLoginFailed     = errors.New("remote login failed")
)

// RawProgress is the untyped payload of one fetch: the user record and the
// daily summaries, exactly as the remote service returned them.
type RawProgress struct {
	User      json.RawMessage
	Summaries []json.RawMessage
}

// RemoteErrorKind names the access error category for operator output.
// It returns "" for errors outside that category.
func RemoteErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrCaptchaRequired):
		return "CaptchaRequired"
	case errors.Is(err, ErrLoginFailed):
		return "LoginFailed"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	default:
		return ""
	}
}
