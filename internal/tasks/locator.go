package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/services"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

const (
	DefaultDurationTolerance = 20 * time.Second
	DefaultSearchLimit       = 10
)

// LocatorOpts tunes video selection.
type LocatorOpts struct {
	Limit     int           // Search results to consider
	Tolerance time.Duration // Maximum distance from the target duration (exclusive)
}

// Locator picks the video that best matches a song identity.
type Locator struct {
	platform services.VideoPlatform
	opts     LocatorOpts
	logger   *log.Logger
}

// NewLocator creates a Locator, filling zero options with defaults.
func NewLocator(platform services.VideoPlatform, opts LocatorOpts, logger *log.Logger) *Locator {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultDurationTolerance
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Locator{platform: platform, opts: opts, logger: logger}
}

// Locate searches for "<track> <artist>" and returns the first result that is a
// single-video link, lies within the duration tolerance of q.Duration when both are
// known, and carries q.Album in its page album field when both are known.
//
// Missing signals never reject a candidate. If every valid link is rejected the first
// valid link is returned with a warning. No valid link at all is [shared.ErrNoVideoCandidate].
func (l *Locator) Locate(ctx context.Context, q models.SongQuery) (string, error) {
	query := strings.TrimSpace(models.Val(q.Track) + " " + models.Val(q.Artist))
	if query == "" {
		return "", fmt.Errorf("%w: nothing to search for", shared.ErrInvalidInput)
	}

	candidates, err := l.platform.Search(ctx, query, l.opts.Limit)
	if err != nil {
		return "", err
	}

	var fallback string
	for _, c := range candidates {
		if !shared.ValidateURL(c.URL, false) {
			continue
		}
		if fallback == "" {
			fallback = c.URL
		}

		if q.Duration != nil && !l.durationMatches(ctx, c, *q.Duration) {
			continue
		}
		if q.HasAlbum() && !l.albumMatches(ctx, c, *q.Album) {
			continue
		}

		l.logger.Debug("video selected", "url", c.URL, "title", c.Title)
		return c.URL, nil
	}

	if fallback == "" {
		return "", fmt.Errorf("%w: no results for %q", shared.ErrNoVideoCandidate, query)
	}

	l.logger.Warn("no video matched duration or album, using first result", "query", query, "url", fallback)
	return fallback, nil
}

func (l *Locator) durationMatches(ctx context.Context, c models.VideoCandidate, target time.Duration) bool {
	d := c.Duration
	if d <= 0 {
		var err error
		if d, err = l.platform.Duration(ctx, c.URL); err != nil {
			l.logger.Debug("duration unavailable", "url", c.URL, "err", err)
			return true
		}
	}
	if d <= 0 {
		return true
	}

	diff := d - target
	if diff < 0 {
		diff = -diff
	}
	if diff >= l.opts.Tolerance {
		l.logger.Debug("duration rejected", "url", c.URL, "duration", d, "target", target)
		return false
	}
	return true
}

func (l *Locator) albumMatches(ctx context.Context, c models.VideoCandidate, album string) bool {
	meta := c.Metadata
	if meta == nil {
		var err error
		if meta, err = l.platform.Metadata(ctx, c.URL); err != nil {
			l.logger.Debug("metadata unavailable", "url", c.URL, "err", err)
			return true
		}
	}

	pageAlbum := meta["album"]
	if pageAlbum == "" {
		return true
	}
	if !containsFold(pageAlbum, album) {
		l.logger.Debug("album rejected", "url", c.URL, "album", pageAlbum, "want", album)
		return false
	}
	return true
}
