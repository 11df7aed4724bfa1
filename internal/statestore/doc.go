// Package statestore saves in-progress questionnaire sessions.
//
// An Adapter implements questionnaire.Persistence on top of a byte-oriented
// Backend. It never surfaces storage failures to the questionnaire:
//   - entries that fail to parse or validate are deleted and read as "no saved state"
//   - failed writes are logged and the stale entry is removed
//   - writing an unchanged state is skipped
//
// FileBackend keeps one JSON envelope per key under a directory, with TTL
// expiry and atomic replace-on-write. MemoryBackend keeps entries in memory.
package statestore
