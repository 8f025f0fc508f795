package models

import (
	"fmt"
	"strings"
	"time"
)

var _ Model = (*HistoryEntry)(nil)

// UnknownArtist names the folder and history artist of songs saved without an artist.
const UnknownArtist = "Unknown Artist"

// HistoryEntry records a song that completed the download, convert and tag pipeline.
type HistoryEntry struct {
	id        string
	sequence  int
	track     string
	artist    string
	album     string
	videoURL  string
	filePath  string
	source    Source
	createdAt time.Time
	updatedAt time.Time
}

// NewHistoryEntry creates a [HistoryEntry] from a finished [ResolvedSong] and its output path.
func NewHistoryEntry(sequence int, song ResolvedSong, filePath string) *HistoryEntry {
	artist := strings.TrimSpace(song.Artist)
	if artist == "" {
		artist = UnknownArtist
	}

	now := time.Now()
	return &HistoryEntry{
		sequence:  sequence,
		track:     song.Track,
		artist:    artist,
		album:     song.Album,
		videoURL:  song.VideoURL,
		filePath:  filePath,
		source:    song.Source,
		createdAt: now,
		updatedAt: now,
	}
}

func (h *HistoryEntry) ID() string           { return h.id }
func (h *HistoryEntry) Sequence() int        { return h.sequence }
func (h *HistoryEntry) Track() string        { return h.track }
func (h *HistoryEntry) Artist() string       { return h.artist }
func (h *HistoryEntry) Album() string        { return h.album }
func (h *HistoryEntry) VideoURL() string     { return h.videoURL }
func (h *HistoryEntry) FilePath() string     { return h.filePath }
func (h *HistoryEntry) Source() Source       { return h.source }
func (h *HistoryEntry) CreatedAt() time.Time { return h.createdAt }
func (h *HistoryEntry) UpdatedAt() time.Time { return h.updatedAt }

func (h *HistoryEntry) SetID(id string)              { h.id = id }
func (h *HistoryEntry) SetSequence(seq int)          { h.sequence = seq }
func (h *HistoryEntry) SetFilePath(path string)      { h.filePath = path }
func (h *HistoryEntry) SetCreatedAt(t time.Time)     { h.createdAt = t }
func (h *HistoryEntry) SetUpdatedAt(t time.Time)     { h.updatedAt = t }

// Validate requires the identity and output fields used by duplicate detection.
func (h *HistoryEntry) Validate() error {
	if h.track == "" {
		return fmt.Errorf("track is required")
	}
	if h.artist == "" {
		return fmt.Errorf("artist is required")
	}
	if h.filePath == "" {
		return fmt.Errorf("file path is required")
	}
	return nil
}
