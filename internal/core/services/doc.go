// Package services contains the application core: the authorization
// code flow orchestrator, the token lifecycle manager, and the import
// pipeline. Services depend only on domain types and port interfaces.
package services
