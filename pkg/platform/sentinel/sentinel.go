package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so handlers can translate them into HTTP responses.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrExpired: token/session has expired
// - ErrUnauthorized: credential missing, malformed, revoked or otherwise not accepted
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: store, cache or verifier temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
