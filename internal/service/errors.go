package service

import "errors"

// Kind classifies a workflow error for transport mapping.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindForbidden
	KindInvalidInput
	KindEncodingFailed
	KindFatal
)

// Error is an expected workflow failure with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrEventNotFound     = &Error{KindNotFound, "event_not_found", "Event not found."}
	ErrUserNotFound      = &Error{KindNotFound, "user_not_found", "User not found."}
	ErrInvalidToken      = &Error{KindNotFound, "invalid_token", "Invalid QR code or registration not found."}
	ErrEventMismatch     = &Error{KindInvalidInput, "event_mismatch", "This QR code is for another event."}
	ErrForbidden         = &Error{KindForbidden, "forbidden", "You are not allowed to manage this event."}
	ErrAlreadyUsed       = &Error{KindConflict, "already_used", "This QR code has already been used."}
	ErrAlreadyRegistered = &Error{KindConflict, "already_registered", "Participant is already registered."}
	ErrNotRegistered     = &Error{KindInvalidInput, "not_registered", "Participant is not registered for this event."}
	ErrTicketingDisabled = &Error{KindInvalidInput, "ticketing_disabled", "This event does not issue QR tickets."}
	ErrTicketingFailed   = &Error{KindFatal, "ticketing_failed", "Registration saved but the QR ticket could not be issued."}
)

// KindOf returns the kind of the first *Error in err's chain, or KindFatal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}
