package models

import "errors"

// Authentication errors. Surfaced verbatim, never retried.
var (
	ErrNoSuchUser             = errors.New("no such user")
	ErrInvalidPublicKeyFormat = errors.New("invalid public key format")
	ErrInvalidSignatureFormat = errors.New("invalid signature format")
	ErrBadSignature           = errors.New("signature verification failed")
	ErrUserBlocked            = errors.New("user is blocked")
	ErrUserUnregistered       = errors.New("user has not validated their email")
	ErrBadCommandFormat       = errors.New("could not parse signed command")
)

// Validation errors. The caller may retry after refreshing state.
var (
	ErrQuestionDoesNotExist  = errors.New("question does not exist")
	ErrNotCurrentVersion     = errors.New("last update is not current")
	ErrJustAskedThatQuestion = errors.New("you just asked that question")
	ErrAlreadyReported       = errors.New("already reported")
	ErrNotAnUncensoredAnswer = errors.New("not an uncensored answer")
	ErrBadContentLen         = errors.New("content length limits not respected")
	ErrPermDenied            = errors.New("not enough permissions to execute this action")
	ErrBadReason             = errors.New("unknown reason")
	ErrEmailAlreadyUsed      = errors.New("the email is already used")
	ErrUIDAlreadyUsed        = errors.New("the uid is already taken")
	ErrInvalidFormat         = errors.New("invalid format")
	ErrWeakPasswd            = errors.New("weak password")
)

// ErrHistoryCorrupt means the backward chain of a question could not be
// resolved. Logged server-side with detail, surfaced opaque.
var ErrHistoryCorrupt = errors.New("bulletin board history is corrupt")
