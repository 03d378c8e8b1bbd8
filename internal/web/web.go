// Package web implements the tubelist web application: Google sign-in, playlist pages, and JSON routes.
//
// # Routes
//
//	GET  /                                 → Landing page, redirects to /dashboard when signed in
//	GET  /auth/signin                      → Sets the OAuth state cookie, redirects to Google
//	GET  /auth/callback                    → Verifies state, exchanges the code, issues the session cookie
//	POST /auth/signout                     → Clears the session cookie and the token mirror
//	GET  /dashboard                        → "Your YouTube Playlists" (requires session)
//	GET  /dashboard/{playlistID}           → Every video in a playlist (requires session)
//	GET  /channel?channelId=               → A channel's public playlists via the server API key
//	GET  /channel/playlist/{playlistID}    → Every video in a public playlist via the API key
//	GET  /api/channel-playlists?channelId= → JSON proxy of the channel playlists lookup
//	GET  /api/playlists                    → JSON playlists for the session user
//	GET  /api/playlists/{playlistID}/items → JSON items for the session user
//	GET  /api/playlists/{playlistID}/export?format= → Download of the items as json, yaml, csv, markdown, html or txt
//	GET  /api/saved-playlists              → JSON playlists saved for the session user (when enabled)
//	GET  /healthz                          → Liveness
//
// # Sessions
//
// The session travels in a signed cookie (see package session). Every request passes through
// [session.Codec.Load]; protected routes then run the token through [services.TokenRefresher].
// A refreshed token re-issues the cookie and is written to the token mirror. A token flagged
// [models.RefreshFailed] clears the cookie and sends the browser back through /auth/signin
// (JSON routes answer 401 instead).
//
// # Templates
//
// Pages are html/template files embedded from templates/. Each page defines "content" and is
// executed inside layout.html.
package web
