package shared

import "errors"

var (
	ErrNotImplemented = errors.New("not implemented")

	// Configuration errors
	ErrMissingConfig      = errors.New("configuration not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing credentials")

	// Authentication errors
	ErrAuthExchangeFailed = errors.New("authorization code exchange failed")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrRefreshFailed      = errors.New("token refresh failed")
	ErrNoRefreshToken     = errors.New("no refresh token available")
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidState       = errors.New("invalid oauth state")
	ErrTimeout            = errors.New("operation timed out")

	// API and service errors
	ErrAPIRequest         = errors.New("API request failed")
	ErrNetwork            = errors.New("network error")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrPageLimitExceeded  = errors.New("page limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Storage errors
	ErrNotFound = errors.New("not found")

	// Input validation errors
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)
