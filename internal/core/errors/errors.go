package errors

import (
	stderrors "errors"
	"fmt"
)

const (
	HttpInternalError          = "internal_error"
	HttpInvalidJsonError       = "invalid_json"
	HttpValidationError        = "validation_failed"
	HttpUnknownAudioTypeError  = "unknown_audio_type"
	HttpReferenceNotFoundError = "reference_not_found"
	HttpConflictError          = "conflict"
	HttpStorageUnavailable     = "storage_unavailable"
	HttpNotFoundError          = "not_found"
	HttpUpdatesDisabledError   = "reference_updates_disabled"
)

// ErrorResponse is the error response body for ingestion errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Kind classifies a pipeline failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnknownAudioType
	KindReferenceNotFound
	KindHashCollision
	KindDeferredWriteFailure
	KindConflict
	KindStorageUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindUnknownAudioType:
		return "UnknownAudioType"
	case KindReferenceNotFound:
		return "ReferenceNotFound"
	case KindHashCollision:
		return "HashCollisionError"
	case KindDeferredWriteFailure:
		return "DeferredWriteFailure"
	case KindConflict:
		return "ConflictError"
	case KindStorageUnavailable:
		return "StorageUnavailable"
	default:
		return "Unknown"
	}
}

// ParseKind is the inverse of Kind.String. It returns 0 for unknown names.
func ParseKind(name string) Kind {
	for k := KindValidation; k <= KindStorageUnavailable; k++ {
		if k.String() == name {
			return k
		}
	}
	return 0
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrValidation           = stderrors.New("validation error")
	ErrUnknownAudioType     = stderrors.New("unknown audio type")
	ErrReferenceNotFound    = stderrors.New("reference not found")
	ErrHashCollision        = stderrors.New("hash collision")
	ErrDeferredWriteFailure = stderrors.New("deferred write failure")
	ErrConflict             = stderrors.New("conflicting call record")
	ErrStorageUnavailable   = stderrors.New("storage unavailable")
)

var sentinels = map[Kind]error{
	KindValidation:           ErrValidation,
	KindUnknownAudioType:     ErrUnknownAudioType,
	KindReferenceNotFound:    ErrReferenceNotFound,
	KindHashCollision:        ErrHashCollision,
	KindDeferredWriteFailure: ErrDeferredWriteFailure,
	KindConflict:             ErrConflict,
	KindStorageUnavailable:   ErrStorageUnavailable,
}

// Error is a classified pipeline failure. Hash is zero for call-level errors.
type Error struct {
	Kind   Kind
	CallID string
	Hash   int64
	Field  string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.CallID != "" {
		msg += " call=" + e.CallID
	}
	if e.Hash != 0 {
		msg += fmt.Sprintf(" hash=%d", e.Hash)
	}
	if e.Field != "" {
		msg += " field=" + e.Field
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// New returns a classified error.
func New(kind Kind, callID, msg string) *Error {
	return &Error{Kind: kind, CallID: callID, Msg: msg}
}

// Wrap classifies cause under kind.
func Wrap(kind Kind, callID string, cause error) *Error {
	return &Error{Kind: kind, CallID: callID, Err: cause}
}

// Validation reports a field that failed validation.
func Validation(callID, field, msg string) *Error {
	return &Error{Kind: KindValidation, CallID: callID, Field: field, Msg: msg}
}

// KindOf extracts the kind from err, or 0 when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	for k, s := range sentinels {
		if stderrors.Is(err, s) {
			return k
		}
	}
	return 0
}

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	return KindOf(err) == KindStorageUnavailable
}
