// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionAlreadyExists  = errors.New("session already exists")
	ErrSessionNotActive      = errors.New("session not active")
	ErrSessionAlreadySettled = errors.New("session already settled")

	ErrBotNotFound    = errors.New("bot performance record not found")
	ErrPlayerNotFound = errors.New("player stats not found")

	// Redemption errors
	ErrRedemptionNotFound      = errors.New("redemption not found")
	ErrRedemptionAlreadyExists = errors.New("redemption already exists for pass token")
	ErrRedemptionNotProcessing = errors.New("redemption not in processing state")
	ErrInvalidStatusTransition = errors.New("invalid redemption status transition")

	// Token / chain errors
	ErrInvalidAddress      = errors.New("invalid wallet address")
	ErrUnsupportedNetwork  = errors.New("unsupported network")
	ErrChainUnavailable    = errors.New("chain rpc unavailable")
	ErrContractNotDeployed = errors.New("contract address not found in deployments file")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
