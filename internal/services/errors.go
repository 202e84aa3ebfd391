// Package services defines the business logic for direct messages and the
// identities exchanging them. This file centralizes the service-level error
// values so they can be returned consistently by service methods and mapped
// by callers (HTTP handlers, the realtime hub) with errors.Is.
package services

import "errors"

// Validation errors. None of them ever reaches persistence.
var (
	// ErrMissingRecipient is returned when a send names no recipient.
	ErrMissingRecipient = errors.New("recipient id is required")

	// ErrEmptyContent is returned when the normalized content is empty.
	ErrEmptyContent = errors.New("content is empty")

	// ErrContentTooLong is returned when content exceeds the configured
	// maximum rune length.
	ErrContentTooLong = errors.New("content too long")

	// ErrInvalidMessageType is returned for a message type outside the
	// supported set.
	ErrInvalidMessageType = errors.New("unsupported message type")
)

// Lookup errors.
var (
	// ErrMessageNotFound indicates the message does not exist or is not
	// accessible to the requester (or, for read receipts, is already read).
	ErrMessageNotFound = errors.New("message not found")

	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// ErrInactiveAccount is returned when a credential resolves to an account that
// has not completed activation.
var ErrInactiveAccount = errors.New("account not activated")

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingRecipient) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrInvalidMessageType)
}
