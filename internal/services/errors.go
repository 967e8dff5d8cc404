package services

import (
	"errors"

	"github.com/workoai/referrals/internal/store"
)

// Errors returned by the services. Callers match them with errors.Is; most
// are wrapped with a short human-readable detail.
var (
	ErrValidation      = errors.New("invalid input")
	ErrConflict        = errors.New("email already registered")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = store.ErrNotFound
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)
