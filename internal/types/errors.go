package types

import (
	"errors"
	"fmt"
)

// Kind tags a publish failure so callers never match on message text
type Kind string

const (
	KindAuth      Kind = "auth_failure"
	KindQuota     Kind = "quota_exceeded"
	KindMalformed Kind = "malformed_request"
	KindTransient Kind = "transient_network"
	KindUnknown   Kind = "unknown"
)

// PublishError is returned by a publish capability on failure
type PublishError struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *PublishError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *PublishError) Unwrap() error { return e.Err }

// KindOf returns the kind carried by err, or KindUnknown
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *PublishError
	if errors.As(err, &pe) && pe.Kind != "" {
		return pe.Kind
	}
	return KindUnknown
}
