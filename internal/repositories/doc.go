// Package repositories implements SQLite persistence.
//
// [CoverRepository] backs the cover cache when `cache.driver = "sqlite"`. It satisfies
// cover.Store, so the cache can swap between the in-memory map and a table without
// changing how lookups are coalesced.
package repositories
