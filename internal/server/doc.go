// Package server provides HTTP routing, middleware, and the CLI OAuth callback for tubelist.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] and [Recoverer] are the stock middleware used by the web app.
//
// The [BasicRouter] implementation registers method-qualified patterns on [http.ServeMux], so
// wildcards such as /dashboard/{playlistID} are available through [http.Request.PathValue].
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback for `tubelist auth login`.
// A temporary server on the redirect address handles the callback and shuts down after one result.
//
// The handler validates the state parameter, exchanges the code through a [CodeExchanger],
// and sends the result through a channel. It only processes one callback to prevent replays.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
