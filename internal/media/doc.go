// Package media turns a downloaded stream into a tagged mp3 on disk.
//
// [FFmpegTranscoder] converts with ffmpeg through floostack/transcoder, [ID3Tagger] writes
// ID3v2.4 frames with bogem/id3v2, [CoverFetcher] downloads artwork, and [Layout] owns
// the output tree: one directory per artist plus the transient temp and cover-art
// directories that [Layout.Cleanup] removes after a run.
package media
