package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and ledgers return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record or challenge does not exist in the store
// - ErrExpired: challenge or token past its TTL
// - ErrAlreadyUsed: uniqueness field (email, id-hash) held by an active record
// - ErrConflict: address already holds an active record
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrAlreadyUsed = errors.New("already used")
)
