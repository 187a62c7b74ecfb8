// Package services implements the client for the upstream music aggregator API.
//
// # Aggregator Interface
//
// Higher layers (search, cover cache, resolution, download) depend on the [Aggregator]
// interface so they can be tested against fakes. [AggregatorClient] is the HTTP implementation.
//
// # Wire Contract
//
// The aggregator exposes a single endpoint selected by the `types` query parameter:
//   - search : `source, name, count, pages` → array of track objects
//   - pic    : `source, id, size` → `{url}`
//   - url    : `source, id, br` → `{url, size, br}`
//   - lyric  : `source, id` → `{lyric, tlyric}`
//
// Requests are plain GETs without authentication. Responses may carry arbitrary extra headers
// and fields; only the fields above are decoded. URLs may contain JSON escaping artifacts
// (literal backslashes) which the client strips.
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrAPIRequest] : transport failure, non-2xx status or undecodable body
//   - [shared.ErrEmptyURL] : a pic or url response without a URL
//   - [shared.ErrTimeout] : the per-request timeout elapsed
package services
