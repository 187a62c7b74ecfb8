// Package tasks implements the user-facing operations that sit on top of the aggregator client.
//
// # Search
//
// [SearchService] queries one catalog and keeps the latest result list. Each result is
// decorated with a cover URL from the cover cache by a bounded, rate limited pool of
// goroutines. Cover failures fall back to the placeholder and never fail a search; a
// failed search leaves the previous results in place.
//
// # Download
//
// [DownloadService.Download] resolves a fresh stream URL and derives the file name
// "{name} - {artist}.{ext}", with the extension taken from the URL (see [InferExtension]).
// [DownloadService.Save] streams the file to disk.
//
// # Progress Reporting
//
// Both operations accept an optional channel of [ProgressUpdate]. Updates are sent with
// select/default and are dropped when the channel is full.
package tasks
