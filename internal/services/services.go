package services

import (
	"context"
	"time"

	"github.com/desertthunder/yt2mp3/internal/models"
)

// Catalog is a track/artist metadata service.
//
// Every search method fails with [shared.ErrLookupFailed] when there are zero results,
// so an empty slice with a nil error never escapes.
type Catalog interface {
	// SearchTrack returns catalog songs matching a track name.
	SearchTrack(ctx context.Context, name string) ([]models.CatalogRecord, error)

	// SearchArtist resolves an artist and returns every song across every album credited to it.
	SearchArtist(ctx context.Context, name string) ([]models.CatalogRecord, error)

	// Search performs a best-effort free-text search.
	Search(ctx context.Context, text string) ([]models.CatalogRecord, error)

	Name() string
}

// VideoPlatform searches, inspects and downloads videos.
type VideoPlatform interface {
	// Search returns up to limit results for query in platform order.
	Search(ctx context.Context, query string, limit int) ([]models.VideoCandidate, error)

	// Title returns the page title of a video.
	Title(ctx context.Context, url string) (string, error)

	// Duration returns the length of a video, or zero when the platform does not expose it.
	Duration(ctx context.Context, url string) (time.Duration, error)

	// Metadata returns page metadata such as album and artist. Missing fields are absent from the map.
	Metadata(ctx context.Context, url string) (map[string]string, error)

	// PlaylistVideos lists the entries of a playlist.
	PlaylistVideos(ctx context.Context, url string) ([]models.VideoCandidate, error)

	// Download fetches the best available audio (or video) into dir and returns the file path.
	Download(ctx context.Context, url, dir string) (string, error)

	Name() string
}
