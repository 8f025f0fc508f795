// YouTube [VideoPlatform] implementation backed by yt-dlp
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

const (
	defaultSearchLimit = 10
	// yt-dlp prints NA for template fields the extractor did not populate.
	ytdlpMissing = "NA"

	candidateTemplate = "%(url)s\t%(title)s\t%(duration)s"
	metadataTemplate  = "%(id)s\t%(title)s\t%(duration)s\t%(album)s\t%(artist)s\t%(track)s\t%(uploader)s"
)

var metadataKeys = []string{"id", "title", "duration", "album", "artist", "track", "uploader"}

// ytdlpRun executes a prepared command and returns its stdout.
type ytdlpRun func(ctx context.Context, cmd *ytdlp.Command, args ...string) (string, error)

// YouTubeService implements [VideoPlatform] by driving yt-dlp.
type YouTubeService struct {
	executable string
	run        ytdlpRun
}

// NewYouTubeService creates a yt-dlp backed service. An empty executable uses yt-dlp from PATH
// (or the copy installed by [InstallYTDLP]).
func NewYouTubeService(executable string) *YouTubeService {
	return &YouTubeService{executable: executable, run: runYTDLP}
}

// InstallYTDLP downloads a yt-dlp binary into go-ytdlp's cache when none is available.
func InstallYTDLP(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("%w: failed to install yt-dlp: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

func runYTDLP(ctx context.Context, cmd *ytdlp.Command, args ...string) (string, error) {
	res, err := cmd.Run(ctx, args...)
	if err != nil {
		if res != nil && strings.TrimSpace(res.Stderr) != "" {
			return "", fmt.Errorf("%w: yt-dlp: %s", shared.ErrServiceUnavailable, lastLine(res.Stderr))
		}
		return "", fmt.Errorf("%w: yt-dlp: %v", shared.ErrServiceUnavailable, err)
	}
	return res.Stdout, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

func (y *YouTubeService) command() *ytdlp.Command {
	cmd := ytdlp.New().NoWarnings().IgnoreConfig()
	if y.executable != "" {
		cmd = cmd.SetExecutable(y.executable)
	}
	return cmd
}

// Search runs a ytsearch query and returns candidates in result order.
func (y *YouTubeService) Search(ctx context.Context, query string, limit int) ([]models.VideoCandidate, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	cmd := y.command().
		FlatPlaylist().
		Print(candidateTemplate).
		PlaylistItems(fmt.Sprintf("1-%d", limit))

	out, err := y.run(ctx, cmd, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, err
	}
	return parseCandidates(out), nil
}

// PlaylistVideos lists the entries of a playlist without resolving each one.
func (y *YouTubeService) PlaylistVideos(ctx context.Context, url string) ([]models.VideoCandidate, error) {
	cmd := y.command().
		FlatPlaylist().
		Print(candidateTemplate)

	out, err := y.run(ctx, cmd, url)
	if err != nil {
		return nil, err
	}
	return parseCandidates(out), nil
}

// Metadata returns the watch page fields yt-dlp extracts, keyed by id, title, duration,
// album, artist, track and uploader. Fields yt-dlp reports as NA are omitted.
func (y *YouTubeService) Metadata(ctx context.Context, url string) (map[string]string, error) {
	cmd := y.command().
		NoPlaylist().
		Print(metadataTemplate)

	out, err := y.run(ctx, cmd, "--skip-download", url)
	if err != nil {
		return nil, err
	}

	meta := parseMetadata(out)
	if meta == nil {
		return nil, fmt.Errorf("%w: no metadata for %s", shared.ErrServiceUnavailable, url)
	}
	return meta, nil
}

// Title returns the page title of a video.
func (y *YouTubeService) Title(ctx context.Context, url string) (string, error) {
	meta, err := y.Metadata(ctx, url)
	if err != nil {
		return "", err
	}
	return meta["title"], nil
}

// Duration returns the length of a video, or zero when unknown.
func (y *YouTubeService) Duration(ctx context.Context, url string) (time.Duration, error) {
	meta, err := y.Metadata(ctx, url)
	if err != nil {
		return 0, err
	}
	return parseSeconds(meta["duration"]), nil
}

// Download fetches the best audio stream, falling back to the best combined format,
// into dir and returns the final file path.
func (y *YouTubeService) Download(ctx context.Context, url, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create download directory: %v", shared.ErrDownloadFailed, err)
	}

	cmd := y.command().
		Format("bestaudio/best").
		Output(filepath.Join(dir, "%(id)s.%(ext)s")).
		NoPlaylist().
		NoSimulate().
		Print("after_move:filepath")

	out, err := y.run(ctx, cmd, url)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}

	path := lastLine(out)
	if path == "" {
		return "", fmt.Errorf("%w: yt-dlp reported no file for %s", shared.ErrDownloadFailed, url)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	return path, nil
}

// parseCandidates reads url, title and duration columns. Rows with fewer columns are skipped.
func parseCandidates(out string) []models.VideoCandidate {
	var candidates []models.VideoCandidate
	for line := range strings.SplitSeq(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 || parts[0] == "" || parts[0] == ytdlpMissing {
			continue
		}
		candidates = append(candidates, models.VideoCandidate{
			URL:      parts[0],
			Title:    naToEmpty(parts[1]),
			Duration: parseSeconds(parts[2]),
		})
	}
	return candidates
}

// parseMetadata reads the first complete metadata row into a map.
func parseMetadata(out string) map[string]string {
	for line := range strings.SplitSeq(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < len(metadataKeys) {
			continue
		}

		meta := make(map[string]string, len(metadataKeys))
		for i, key := range metadataKeys {
			if v := naToEmpty(parts[i]); v != "" {
				meta[key] = v
			}
		}
		return meta
	}
	return nil
}

// parseSeconds accepts integer or fractional seconds. Unknown values are zero.
func parseSeconds(s string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func naToEmpty(s string) string {
	s = strings.TrimSpace(s)
	if s == ytdlpMissing {
		return ""
	}
	return s
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
