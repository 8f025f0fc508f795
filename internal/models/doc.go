// Package models defines the domain entities for resolving and archiving songs.
//
// The package contains two categories of types:
//
// 1. Resolution values: short-lived structs that flow through a single run
//   - [SongQuery] : partial song identity supplied by the user (every field optional)
//   - [CatalogRecord] : canonical track identity returned by the metadata catalog
//   - [VideoCandidate] : one video platform search result
//   - [ResolvedSong] : catalog (or manual) identity merged with the chosen video URL
//
// 2. Persistent entities: database-backed records
//   - [HistoryEntry] : a song that was downloaded, converted and tagged
//
// Persistent entities implement the Model interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
