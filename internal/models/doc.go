// Package models defines the domain entities shared by the tubelist web app, CLI, and TUI.
//
// The package contains two categories of types:
//
// 1. Provider records: typed views of YouTube Data API and Google userinfo payloads
//   - [Playlist] : Playlist metadata from the playlists endpoint
//   - [PlaylistItem] : A video entry from the playlistItems endpoint
//   - [PlaylistList] : One page of playlists with its continuation cursor
//   - [Profile] : Signed-in user's email, name and avatar
//
// 2. Session and persistent entities
//   - [TokenRecord] : OAuth access/refresh token state carried by the session
//   - [SavedPlaylist] : A playlist saved to the local database, keyed by owner email
//
// Provider records implement [Validator] so malformed payloads are rejected at the boundary.
package models
