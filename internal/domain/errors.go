// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the case was already finalized by another request.
var ErrConflict = errors.New("conflict: case already resolved")

// ErrValidation indicates a request failed domain validation.
var ErrValidation = errors.New("validation failed")
