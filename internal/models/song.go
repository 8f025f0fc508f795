package models

import (
	"fmt"
	"strings"
	"time"
)

// Opt returns a pointer to the trimmed value, or nil when the value is blank.
//
// Used to build [SongQuery] values from flags and prompts so that absence is never an empty string.
func Opt(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Val dereferences an optional string, returning "" when absent.
func Val(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SongQuery is the partial song identity supplied by the user for a single run.
//
// A nil field is absent.
type SongQuery struct {
	Track    *string
	Artist   *string
	Album    *string
	VideoURL *string
	Duration *time.Duration // Target duration, usually taken from a catalog record
}

func (q SongQuery) HasTrack() bool    { return q.Track != nil }
func (q SongQuery) HasArtist() bool   { return q.Artist != nil }
func (q SongQuery) HasAlbum() bool    { return q.Album != nil }
func (q SongQuery) HasVideoURL() bool { return q.VideoURL != nil }

// Validate checks that at least one of track, artist or video URL is present.
func (q SongQuery) Validate() error {
	if !q.HasTrack() && !q.HasArtist() && !q.HasVideoURL() {
		return fmt.Errorf("query needs a track, an artist or a video URL")
	}
	return nil
}

// String renders the present fields for logging.
func (q SongQuery) String() string {
	var parts []string
	if q.HasTrack() {
		parts = append(parts, "track="+*q.Track)
	}
	if q.HasArtist() {
		parts = append(parts, "artist="+*q.Artist)
	}
	if q.HasAlbum() {
		parts = append(parts, "album="+*q.Album)
	}
	if q.HasVideoURL() {
		parts = append(parts, "url="+*q.VideoURL)
	}
	return strings.Join(parts, " ")
}

// CatalogRecord is a resolved entry from the metadata catalog.
type CatalogRecord struct {
	TrackID     int64         `json:"track_id"`
	Track       string        `json:"track"`
	Artist      string        `json:"artist"`
	Album       string        `json:"album"`
	Genre       string        `json:"genre"`
	TrackNumber int           `json:"track_number"`
	TrackCount  int           `json:"track_count"`
	DiscNumber  int           `json:"disc_number"`
	DiscCount   int           `json:"disc_count"`
	ReleaseDate string        `json:"release_date"`
	ArtworkURL  string        `json:"artwork_url"`
	Duration    time.Duration `json:"duration"`
}

// Year returns the first four characters of the release date.
func (r CatalogRecord) Year() string {
	if len(r.ReleaseDate) < 4 {
		return r.ReleaseDate
	}
	return r.ReleaseDate[:4]
}

// VideoCandidate is a single video platform search result.
//
// Duration and Metadata are optional signals; a zero Duration or nil Metadata means unknown.
type VideoCandidate struct {
	URL      string
	Title    string
	Duration time.Duration
	Metadata map[string]string
}

// Source identifies where a [ResolvedSong]'s identity came from.
type Source string

const (
	SourceCatalog Source = "catalog"
	SourceManual  Source = "manual"
)

// ResolvedSong is the final identity plus chosen video URL handed to the download pipeline.
type ResolvedSong struct {
	CatalogRecord
	VideoURL string `json:"video_url"`
	Source   Source `json:"source"`
}

// NewResolvedSong merges a catalog record with a video URL.
func NewResolvedSong(rec CatalogRecord, videoURL string) *ResolvedSong {
	return &ResolvedSong{CatalogRecord: rec, VideoURL: videoURL, Source: SourceCatalog}
}

// NewManualSong builds a song from a user-typed identity when the catalog has no match.
func NewManualSong(track, artist, artworkURL, videoURL string) *ResolvedSong {
	return &ResolvedSong{
		CatalogRecord: CatalogRecord{Track: track, Artist: artist, ArtworkURL: artworkURL},
		VideoURL:      videoURL,
		Source:        SourceManual,
	}
}
