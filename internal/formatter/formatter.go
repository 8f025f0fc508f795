// package formatter renders songs, catalog results and download history as menu options, text, CSV and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

// CatalogOption renders one selection menu row.
//
// Track lists show a padded track column and the artist; an artist's catalogue shows the track only.
func CatalogOption(rec models.CatalogRecord, withArtist bool) string {
	if !withArtist {
		return rec.Track
	}
	return fmt.Sprintf("%-30.25s %10.25s", rec.Track, rec.Artist)
}

// CatalogOptions renders every record with [CatalogOption].
func CatalogOptions(records []models.CatalogRecord, withArtist bool) []string {
	options := make([]string, len(records))
	for i, rec := range records {
		options[i] = CatalogOption(rec, withArtist)
	}
	return options
}

// CatalogToText renders catalog results as a numbered list: "1. Artist - Track (Album) [m:ss]"
func CatalogToText(records []models.CatalogRecord) []byte {
	var buf bytes.Buffer
	for i, rec := range records {
		albumPart := ""
		if rec.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", rec.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, rec.Artist, rec.Track, albumPart, shared.FormatDuration(rec.Duration)))
	}
	return buf.Bytes()
}

// SongToText renders a resolved song as aligned "Field: value" lines. Empty fields are omitted.
func SongToText(song *models.ResolvedSong) []byte {
	var buf bytes.Buffer
	line := func(label, value string) {
		if value != "" {
			buf.WriteString(fmt.Sprintf("%-8s %s\n", label+":", value))
		}
	}

	line("Track", song.Track)
	line("Artist", song.Artist)
	line("Album", song.Album)
	line("Genre", song.Genre)
	if song.TrackNumber > 0 {
		line("Number", positionInSet(song.TrackNumber, song.TrackCount))
	}
	if song.DiscNumber > 0 {
		line("Disc", positionInSet(song.DiscNumber, song.DiscCount))
	}
	line("Year", song.Year())
	if song.Duration > 0 {
		line("Length", shared.FormatDuration(song.Duration))
	}
	line("Video", song.VideoURL)
	line("Source", string(song.Source))
	return buf.Bytes()
}

func positionInSet(n, count int) string {
	if count <= 0 {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%d/%d", n, count)
}

// historyRow is the exported shape of a [models.HistoryEntry].
type historyRow struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Track     string    `json:"track"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album,omitempty"`
	VideoURL  string    `json:"video_url,omitempty"`
	FilePath  string    `json:"file_path"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func toHistoryRows(entries []*models.HistoryEntry) []historyRow {
	rows := make([]historyRow, len(entries))
	for i, e := range entries {
		rows[i] = historyRow{
			ID:        e.ID(),
			Sequence:  e.Sequence(),
			Track:     e.Track(),
			Artist:    e.Artist(),
			Album:     e.Album(),
			VideoURL:  e.VideoURL(),
			FilePath:  e.FilePath(),
			Source:    string(e.Source()),
			CreatedAt: e.CreatedAt(),
		}
	}
	return rows
}

// HistoryToCSV converts history to CSV with columns: Sequence, Track, Artist, Album, Video, Path, Source, Downloaded
func HistoryToCSV(entries []*models.HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Track", "Artist", "Album", "Video", "Path", "Source", "Downloaded"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range toHistoryRows(entries) {
		record := []string{
			strconv.Itoa(row.Sequence),
			row.Track,
			row.Artist,
			row.Album,
			row.VideoURL,
			row.FilePath,
			row.Source,
			row.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// HistoryToJSON converts history to an indented JSON array.
func HistoryToJSON(entries []*models.HistoryEntry) ([]byte, error) {
	return shared.MarshalJSON(toHistoryRows(entries), true)
}

// HistoryToText renders history as "#seq  date  Artist - Track  → path" lines.
func HistoryToText(entries []*models.HistoryEntry) []byte {
	var buf bytes.Buffer
	if len(entries) == 0 {
		buf.WriteString("No downloads yet.\n")
		return buf.Bytes()
	}

	for _, e := range entries {
		buf.WriteString(fmt.Sprintf("#%-4d %s  %s - %s  → %s\n",
			e.Sequence(), e.CreatedAt().Format("2006-01-02"), e.Artist(), e.Track(), e.FilePath()))
	}
	return buf.Bytes()
}

// ManifestEntry is one line of a playlist manifest.
type ManifestEntry struct {
	VideoURL string `json:"video_url"`
	Title    string `json:"title,omitempty"`
	Track    string `json:"track,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Path     string `json:"path,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// PlaylistManifest summarises a playlist run.
type PlaylistManifest struct {
	URL       string          `json:"url"`
	Succeeded int             `json:"succeeded"`
	Skipped   int             `json:"skipped"`
	Failed    int             `json:"failed"`
	Entries   []ManifestEntry `json:"entries"`
	WrittenAt time.Time       `json:"written_at"`
}

// WritePlaylistManifest writes manifest as indented JSON to path, creating parent directories.
func WritePlaylistManifest(manifest PlaylistManifest, path string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
