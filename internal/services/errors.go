package services

import "errors"

// Common service errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrValidation          = errors.New("validation failed")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidState        = errors.New("invalid state transition")
	ErrDuplicate           = errors.New("duplicate record")
	ErrInvalidRecoveryCode = errors.New("invalid or expired recovery code")

	ErrUserBanned        = errors.New("user is banned from borrowing")
	ErrUserNotApproved   = errors.New("user account is not approved")
	ErrItemNotAvailable  = errors.New("item is not available")
	ErrAlreadyReturned   = errors.New("item has already been returned")
	ErrBorrowLimit       = errors.New("borrow limit reached")
	ErrInsufficientStock = errors.New("insufficient stock")
)
