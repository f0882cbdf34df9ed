package services

import "errors"

// Validation errors. Every one of them aborts the operation with no state change.
var (
	ErrCaseNotFound           = errors.New("case not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrLookupNotFound         = errors.New("lookup entry not found")
	ErrDuplicateProcessNumber = errors.New("process number already registered")
	ErrDuplicateEmail         = errors.New("email already registered")
	ErrDuplicateName          = errors.New("name already registered")
	ErrMissingField           = errors.New("required field missing")
	ErrInvalidInput           = errors.New("invalid input")
	ErrFileTooLarge           = errors.New("file exceeds the maximum attachment size of 2MB")
	ErrAttachmentRead         = errors.New("failed to read attachment")
	ErrAttachmentNotFound     = errors.New("attachment not found")
	ErrInvalidCredentials     = errors.New("invalid email or password")
)

// ErrSaveFailed is returned when a command was applied in memory but the
// snapshot could not be written. The in-memory state is kept.
var ErrSaveFailed = errors.New("failed to persist snapshot")
