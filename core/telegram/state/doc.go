// Package state provides a lightweight FSM/session manager for Telegram bots.
// Sessions are kept in a pluggable Store (in-memory or Redis) so conversations
// survive restarts when a shared store is configured.
package state
