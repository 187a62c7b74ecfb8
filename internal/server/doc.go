// Package server provides HTTP routing, middleware, and a CORS-enabling reverse proxy for the
// aggregator API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses
// [http.ServeMux] internally with optional method filtering. [Middleware] added first wraps
// outermost.
//
// # Reverse Proxy
//
// [Proxy] lets a browser-based client call the aggregator directly. It serves exactly one
// path:
//
//   - /api is forwarded to {target}/api.php with the query string unchanged
//   - OPTIONS /api is answered locally with a 204 preflight (Max-Age 86400)
//   - responses gain Access-Control-Allow-Origin: * and Vary: Origin, and lose
//     X-Powered-By and Server
//   - an unreachable upstream yields 502
//
// Every other path is a 404 (see [NewProxyRouter]).
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
