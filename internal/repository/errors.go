// Package repository implements the entity accessors over MongoDB. Sentinel
// values defined here let handlers distinguish failure scenarios without
// inspecting driver errors; the apperror layer translates them into the
// client-facing taxonomy.
package repository

import "errors"

// ErrNotFound is returned when an identifier does not resolve to a live
// document. Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("document not found")

// ErrEmailExists is returned when signup collides with an existing account
// email. Handlers translate this into an HTTP 400 response.
var ErrEmailExists = errors.New("email already exists")
