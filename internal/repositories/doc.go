// Package repositories implements persistence for tubelist: the token mirror and saved playlists.
//
// Key Implementations:
//   - [TokenRepository] : SQLite mirror of session token records keyed by account email
//   - [RedisTokenRepository] : Redis mirror of the same records for multi-instance deployments
//   - [NopTokenStore] : used when the mirror is disabled
//   - [PlaylistRepository] : playlists saved from the dashboard, listed by owner email
//
// The signed session cookie remains the source of truth for a browser session. Token stores are
// written through on sign-in and refresh so the CLI and TUI can reuse a web sign-in.
package repositories
