// Package monzo implements the Monzo API adapters: the OAuth gateway
// for token exchange and refresh, and the client that fetches accounts
// and transactions with cursor pagination and bounded retries.
package monzo
