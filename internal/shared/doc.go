// Package shared holds helpers used by more than one vaxpulse package.
//
// The testutil subpackage provides a capturing slog handler and builders for
// vaccination records and raw tables. It must only be imported from tests.
package shared
