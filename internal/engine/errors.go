package engine

import "errors"

// Sentinel errors returned by the session engine. Handlers map these to typed
// response codes; everything else is an internal failure.
var (
	// ErrBadConfiguration marks a malformed or empty TestConfiguration.
	// It is the only error allowed to halt attempt creation.
	ErrBadConfiguration = errors.New("bad test configuration")

	// ErrSessionTerminal is returned when a mutation reaches a session that
	// has already been submitted or expired.
	ErrSessionTerminal = errors.New("session is terminal")

	ErrUnknownSection   = errors.New("unknown section")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrIndexOutOfRange  = errors.New("question index out of range")
	ErrWrongKind        = errors.New("operation does not match question kind")
	ErrUnknownOption    = errors.New("option is not one of the question's choices")
	ErrEmptyAnswer      = errors.New("answer value is empty")
	ErrSnapshotMismatch = errors.New("snapshot does not belong to this configuration")
)
