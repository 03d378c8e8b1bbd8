// Package services implements the provider side of tubelist: Google OAuth token handling and YouTube Data API reads.
//
// # Token Manager
//
// [TokenManager] wraps [oauth2.Config] for the authorization-code exchange and refresh-on-expiry.
// [TokenManager.EnsureValidToken] never returns an error: a failed refresh is recorded on the
// token record as [models.RefreshFailed] and the caller decides whether to force re-authentication.
// Each refresh is a single attempt.
//
// # YouTube Service
//
// [YouTubeService] implements [PlaylistFetcher] against the YouTube Data API v3.
// Playlist items are collected by following nextPageToken until it is empty, strictly one page
// at a time. A non-2xx page aborts the walk and no partial result is returned.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : non-2xx provider response, wrapped by [APIError]
//   - [shared.ErrNetwork] : transport failure
//   - [shared.ErrMalformedResponse] : body did not decode into the expected record
//   - [shared.ErrPageLimitExceeded] : pagination exceeded the configured page cap
//   - [shared.ErrMissingArgument] : required identifier or key not supplied
//   - [shared.ErrAuthExchangeFailed] : authorization code could not be exchanged
package services
