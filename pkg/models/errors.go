package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed account address. Nothing is fetched.
	ErrValidation = errors.New("invalid address")
	// ErrNetwork marks a transport-level failure talking to the account-data API.
	ErrNetwork = errors.New("network error")
	// ErrProvider marks a well-formed response that reports a failure or has an unexpected shape.
	ErrProvider = errors.New("provider error")
	// ErrOracle marks an RPC failure during price or name resolution.
	ErrOracle = errors.New("oracle error")
)

// ProviderError carries the envelope message and the provider's
// human-readable detail, which it sends in the result field on failure.
type ProviderError struct {
	Message string
	Detail  string
}

func (e *ProviderError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("provider error: %s", e.Message)
	}
	return fmt.Sprintf("provider error: %s: %s", e.Message, e.Detail)
}

func (e *ProviderError) Unwrap() error {
	return ErrProvider
}
