package service

import (
	"errors"
)

// Business errors returned across the engine boundary. Validation and
// not-found/invalid-state failures abort an operation with no side effects;
// rail failures never surface here, they degrade the response instead.
var (
	ErrInvalidParams   = errors.New("missing or invalid invoice parameters")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvalidState    = errors.New("invoice is not in escrow status")
)
