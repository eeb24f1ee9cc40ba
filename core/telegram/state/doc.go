// Package state keeps per-user conversation sessions: a state name plus a
// small map of string temp data. It knows nothing about transports or about
// which states exist; callers define their own State values.
package state
