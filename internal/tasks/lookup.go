package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/services"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

// LookupResult is either a single exact catalog match or a list the user must choose from.
type LookupResult struct {
	Record     *models.CatalogRecord
	Candidates []models.CatalogRecord
}

// Exact reports whether the lookup resolved to a single record.
func (r *LookupResult) Exact() bool {
	return r != nil && r.Record != nil
}

// Lookup resolves song identities against a [services.Catalog].
type Lookup struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewLookup creates a Lookup. A nil logger discards output.
func NewLookup(catalog services.Catalog, logger *log.Logger) *Lookup {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Lookup{catalog: catalog, logger: logger}
}

// Find picks a lookup path from the fields present in q:
//
//   - track and artist: search by track, keep exact case-insensitive artist matches,
//     narrow by album substring when an album is given, return the first as Record
//   - track only: every search result for the track as Candidates
//   - artist only: every song of every album by the artist as Candidates
//
// In the list paths an album narrows the candidates by substring.
// No match is [shared.ErrLookupFailed], never an empty result.
func (l *Lookup) Find(ctx context.Context, q models.SongQuery) (*LookupResult, error) {
	switch {
	case q.HasTrack() && q.HasArtist():
		rec, err := l.exact(ctx, *q.Track, *q.Artist, models.Val(q.Album))
		if err != nil {
			return nil, err
		}
		return &LookupResult{Record: rec}, nil
	case q.HasTrack():
		records, err := l.catalog.SearchTrack(ctx, *q.Track)
		if err != nil {
			return nil, err
		}
		return l.list(records, q, "track "+*q.Track)
	case q.HasArtist():
		records, err := l.catalog.SearchArtist(ctx, *q.Artist)
		if err != nil {
			return nil, err
		}
		return l.list(records, q, "artist "+*q.Artist)
	default:
		return nil, fmt.Errorf("%w: lookup needs a track or an artist", shared.ErrInvalidInput)
	}
}

// Keywords runs a best-effort free-text search and returns the top hit.
func (l *Lookup) Keywords(ctx context.Context, text string) (*models.CatalogRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no keywords to search", shared.ErrLookupFailed)
	}

	records, err := l.catalog.Search(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no catalog results for %q", shared.ErrLookupFailed, text)
	}

	l.logger.Debug("keyword lookup", "keywords", text, "hit", records[0].Track, "artist", records[0].Artist)
	return &records[0], nil
}

func (l *Lookup) exact(ctx context.Context, track, artist, album string) (*models.CatalogRecord, error) {
	records, err := l.catalog.SearchTrack(ctx, track)
	if err != nil {
		return nil, err
	}

	for i := range records {
		rec := &records[i]
		if !strings.EqualFold(strings.TrimSpace(rec.Artist), strings.TrimSpace(artist)) {
			continue
		}
		if album != "" && !containsFold(rec.Album, album) {
			continue
		}
		l.logger.Debug("exact match", "track", rec.Track, "artist", rec.Artist, "album", rec.Album)
		return rec, nil
	}

	if album != "" {
		return nil, fmt.Errorf("%w: no match for %q by %q on %q", shared.ErrLookupFailed, track, artist, album)
	}
	return nil, fmt.Errorf("%w: no match for %q by %q", shared.ErrLookupFailed, track, artist)
}

func (l *Lookup) list(records []models.CatalogRecord, q models.SongQuery, what string) (*LookupResult, error) {
	if q.HasAlbum() {
		filtered := records[:0:0]
		for _, rec := range records {
			if containsFold(rec.Album, *q.Album) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no catalog results for %s", shared.ErrLookupFailed, what)
	}
	return &LookupResult{Candidates: records}, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}
