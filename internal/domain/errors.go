// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the entity collides with an existing one
// (duplicate id, name, or address+name pair).
var ErrConflict = errors.New("conflict")

// ErrValidation indicates malformed caller input.
var ErrValidation = errors.New("validation failed")

// ErrSendFailed covers every transport or protocol failure while sending a
// task to a remote agent: connection errors, timeouts, non-2xx statuses,
// unparseable bodies, and correlation mismatches. An agent that answers with
// a failed task state is not a send failure.
var ErrSendFailed = errors.New("send failed")

// ErrDelegationFailed indicates a delegated task finished canceled or failed.
var ErrDelegationFailed = errors.New("delegation failed")
