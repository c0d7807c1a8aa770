// Package repositories implements SQLite persistence for playctl.
//
// Repositories exclude soft-deleted rows (non-NULL deleted_at) from queries by default.
//
// Key Implementations:
//   - [SessionRepository] : stored logins, also the token persister used by the auth store
//   - [PlaybackStateRepository] : the last known playback state, a single row
package repositories
