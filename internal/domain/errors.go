package domain

import "errors"

// Error codes sent back to clients.
const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeBookingNotFound   = "BOOKING_NOT_FOUND"
	CodeDuplicateSession  = "DUPLICATE_SESSION"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeNotAParticipant   = "NOT_A_PARTICIPANT"
	CodeAlreadyEnded      = "ALREADY_ENDED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeRateLimited       = "RATE_LIMITED"
	CodeBadPayload        = "BAD_PAYLOAD"
	CodeInternal          = "INTERNAL"
)

var (
	ErrUnauthorized      = errors.New("caller is not a participant of the booking")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrDuplicateSession  = errors.New("call already in progress for booking")
	ErrSessionNotFound   = errors.New("call session not found")
	ErrNotAParticipant   = errors.New("identity is not a participant of the call")
	ErrAlreadyEnded      = errors.New("call already ended")
	ErrInvalidTransition = errors.New("event not allowed in current call state")
	ErrRateLimited       = errors.New("too many call attempts")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, CodeUnauthorized},
	{ErrBookingNotFound, CodeBookingNotFound},
	{ErrDuplicateSession, CodeDuplicateSession},
	{ErrSessionNotFound, CodeSessionNotFound},
	{ErrNotAParticipant, CodeNotAParticipant},
	{ErrAlreadyEnded, CodeAlreadyEnded},
	{ErrInvalidTransition, CodeInvalidTransition},
	{ErrRateLimited, CodeRateLimited},
	{ErrIdentityEmpty, CodeBadPayload},
	{ErrIdentityTooLong, CodeBadPayload},
}

// CodeOf maps an error to its wire code.
func CodeOf(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
