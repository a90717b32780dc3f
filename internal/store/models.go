// Package store contains the database layer for Fletcher: Postgres-backed
// persistence for datasets, data products, and their dependency edges.
package store

import "errors"

// ErrNotFound is returned by lookups that find no matching row. Callers
// translate it to apierr.KindNotFound at the engine boundary.
var ErrNotFound = errors.New("store: not found")

// ErrUniqueViolation is returned when a write collides with a unique
// constraint (Postgres SQLSTATE 23505).
var ErrUniqueViolation = errors.New("store: unique violation")

// ErrIntegrity is returned when a write violates a foreign key, not-null,
// or check constraint (Postgres SQLSTATE 23503/23502/23514).
var ErrIntegrity = errors.New("store: integrity violation")

// ErrTransient is returned when a write fails because Postgres detected a
// serialization conflict under SERIALIZABLE isolation (SQLSTATE
// 40001/40P01). WithRetry retries the owning transaction once before
// giving up.
var ErrTransient = errors.New("store: transient conflict")

// ErrConflict is the error WithRetry surfaces once a transaction has
// failed with ErrTransient on both its original attempt and its one retry.
var ErrConflict = errors.New("store: conflict")
