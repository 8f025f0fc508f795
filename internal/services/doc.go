// Package services defines the [Catalog] and [VideoPlatform] collaborators and implements them
// for the iTunes Search API and YouTube (through yt-dlp).
//
// # Catalog
//
// [ITunesService] talks to the public iTunes Search API. Track searches use entity=song;
// artist searches resolve the artist id, enumerate every album credited to it, then
// flatten the songs of those albums. Requests are paced with a [rate.Limiter] because
// the API throttles at roughly twenty calls per minute.
//
// # Video Platform
//
// [YouTubeService] shells out to yt-dlp via go-ytdlp for search, page metadata, playlist
// enumeration and best-audio downloads. Output is requested as tab separated --print
// templates and parsed line by line.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrLookupFailed] : the catalog returned zero results
//   - [shared.ErrAPIRequest] : HTTP request failed or returned a non-2xx status
//   - [shared.ErrServiceUnavailable] : yt-dlp could not be run
//   - [shared.ErrDownloadFailed] : yt-dlp ran but produced no file
package services
