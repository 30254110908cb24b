// Package driven defines the outbound interfaces the core services
// depend on: the OAuth gateway, the callback listener, the Monzo
// transaction source, and the persistence collaborators. Adapters under
// internal/adapters/driven and internal/adapters/driving implement them.
package driven
