package domain

import "errors"

var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("invalid input data")
	// ErrUnauthorized indicates a missing or invalid caller identity.
	ErrUnauthorized = errors.New("missing or invalid credentials")
	// ErrForbidden indicates an authenticated caller is not authorized for
	// the target resource.
	ErrForbidden = errors.New("action forbidden")
	// ErrNotFound indicates a referenced entity is absent. Archived posts
	// are reported as not found to outside callers.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict indicates the request collides with current state:
	// duplicate review, duplicate favorite, already a seller.
	ErrConflict = errors.New("conflict with current state")
	// ErrUpload indicates a media transfer to the object store failed.
	ErrUpload = errors.New("media upload failed")
	// ErrOptimisticLock indicates a concurrent writer modified the document
	// between read and write.
	ErrOptimisticLock = errors.New("optimistic lock conflict: data was modified by another process")
)
