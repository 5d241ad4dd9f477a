package services

import "errors"

// Sentinel errors controllers map onto HTTP responses. Not-found conditions
// are distinct from validation failures by contract.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrHoaxNotFound       = errors.New("hoax not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrAttachmentInUse    = errors.New("attachment already belongs to a hoax")
	ErrContentLength      = errors.New("content must be between 10 and 5000 characters")
	ErrNotOwner           = errors.New("hoax belongs to another user")
	ErrImageType          = errors.New("only PNG and JPG images are allowed")
)
