// Package shared holds utilities used across the codebase that do not
// belong to any one layer.
//
// The testutil subpackage provides a capturing slog handler, fixture
// identities, and a sqlmock-backed store for database tests. Nothing
// in this tree may carry business logic or depend on the transport or
// dispatch layers.
package shared
