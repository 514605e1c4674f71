package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrConfigInvalid   ErrCode = "CONFIG_INVALID"
	ErrAttemptNotFound ErrCode = "ATTEMPT_NOT_FOUND"
	ErrSessionTerminal ErrCode = "SESSION_TERMINAL"

	// ─── Navigation / answering ────────────────────────────────────────
	ErrUnknownSection  ErrCode = "UNKNOWN_SECTION"
	ErrUnknownQuestion ErrCode = "UNKNOWN_QUESTION"
	ErrIndexOutOfRange ErrCode = "INDEX_OUT_OF_RANGE"
	ErrWrongKind       ErrCode = "WRONG_QUESTION_KIND"
	ErrUnknownOption   ErrCode = "UNKNOWN_OPTION"
	ErrEmptyAnswer     ErrCode = "EMPTY_ANSWER"

	// ─── Results ───────────────────────────────────────────────────────
	ErrResultNotFound ErrCode = "RESULT_NOT_FOUND"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrConfigInvalid:
		return "The test configuration is malformed or empty."
	case ErrAttemptNotFound:
		return "No live attempt matches this session."
	case ErrSessionTerminal:
		return "This attempt has already been submitted."
	case ErrUnknownSection:
		return "The section does not belong to this test."
	case ErrUnknownQuestion:
		return "The question does not belong to this test."
	case ErrIndexOutOfRange:
		return "The question index is outside the section."
	case ErrWrongKind:
		return "The operation does not match the question type."
	case ErrUnknownOption:
		return "The option is not one of the question's choices."
	case ErrEmptyAnswer:
		return "An empty answer cannot be recorded."
	case ErrResultNotFound:
		return "No result exists for this session."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
