// Package tasks identifies songs and turns them into tagged audio files with real-time progress reporting.
//
// # Resolution
//
// [Resolver] is a small state machine (NeedInput → Resolving → Disambiguating → Resolved, or Failed)
// that decides which collaborators to call for the fields a [models.SongQuery] carries:
//
//  1. Video URL: the page title is normalized and searched as free text. On a miss the user is
//     prompted for track and artist and an exact lookup is retried once; if that misses too the
//     entered identity is kept with the video thumbnail as artwork.
//  2. Track and artist: [Lookup.Find] must return an exact catalog match, then [Locator.Locate]
//     picks the video.
//  3. Track or artist alone: the catalog list is shown through a [Selector]; an out-of-range
//     choice is [shared.ErrCancelled].
//
// # Video Selection
//
// [Locator] searches "<track> <artist>" and takes the first single-video link within the duration
// tolerance of the catalog record whose page album contains the requested album. Signals the
// platform does not expose never reject a candidate.
//
// # Processing
//
// [SongPipeline] downloads, converts, fetches cover art, tags, and records history. [PlaylistRunner]
// resolves playlist entries sequentially and processes them with a small worker pool.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
