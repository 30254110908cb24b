// Package domain defines the core business entities for actual-monzo.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Credential: the Monzo OAuth client and token set
//   - Transaction: a bank transaction fetched from the Monzo API
//   - AccountMapping: a Monzo account paired with an Actual Budget account
//   - ConfigState: the derived setup state of a persisted configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
