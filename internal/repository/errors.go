// Package repository defines the data access layer and the sentinel
// error values reused across repositories and services.  The sentinels
// let handlers distinguish failure kinds with errors.Is instead of
// matching on strings: a bad credential, an exhausted room, and an
// unavailable database must all look different to callers.
package repository

import "errors"

// ErrInvalidToken is returned when a presented credential matches no
// stored hash.  An unknown token and a wrong token are deliberately the
// same error; nothing may leak whether a token ever existed.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenExpired is returned when an entry token is past its expiry.
// Expiry is evaluated at verification time, not by a background sweep.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenAlreadyUsed is returned when an entry token has already been
// redeemed.  Entry tokens are one-time by design and never re-issued.
var ErrTokenAlreadyUsed = errors.New("token already used")

// ErrNoRoomsConfigured is returned when admission runs for a
// competition that has no rooms.  Operator-fatal: rooms must be added.
var ErrNoRoomsConfigured = errors.New("no rooms configured")

// ErrCapacityExhausted is returned when every room of the competition
// is full, or when seat-conflict retries are exhausted.  Operator-fatal.
var ErrCapacityExhausted = errors.New("room capacity exhausted")

// ErrSheetNotFound is returned when a scan's embedded credential
// resolves to no answer sheet.  Surfaced for manual lookup.
var ErrSheetNotFound = errors.New("answer sheet not found")

// ErrAttemptInvalidated is returned when an operation targets an
// attempt in the administrative terminal state.
var ErrAttemptInvalidated = errors.New("attempt invalidated")

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as publishing an unscored attempt or deleting
// an institution that seated participants reference.  Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation their
// role does not permit.  Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")
