package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
	tu "github.com/desertthunder/yt2mp3/internal/testing"
)

const (
	urlA = "https://www.youtube.com/watch?v=AAAAAAAAAAA"
	urlB = "https://www.youtube.com/watch?v=BBBBBBBBBBB"
	urlC = "https://www.youtube.com/watch?v=CCCCCCCCCCC"
)

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestLocator(t *testing.T) {
	ctx := context.Background()
	query := "Have a Cigar Pink Floyd"
	target := models.SongQuery{
		Track:    models.Opt("Have a Cigar"),
		Artist:   models.Opt("Pink Floyd"),
		Duration: durationPtr(308 * time.Second),
	}

	t.Run("duration filter prefers the candidate within tolerance", func(t *testing.T) {
		orders := map[string][]models.VideoCandidate{
			"far first": {
				{URL: urlA, Duration: 348 * time.Second},
				{URL: urlB, Duration: 313 * time.Second},
			},
			"near first": {
				{URL: urlB, Duration: 313 * time.Second},
				{URL: urlA, Duration: 348 * time.Second},
			},
		}

		for name, candidates := range orders {
			t.Run(name, func(t *testing.T) {
				platform := &tu.MockPlatform{Results: map[string][]models.VideoCandidate{query: candidates}}
				url, err := NewLocator(platform, LocatorOpts{}, nil).Locate(ctx, target)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if url != urlB {
					t.Errorf("expected the 5s-off candidate %s, got %s", urlB, url)
				}
			})
		}
	})

	t.Run("tolerance boundary is exclusive", func(t *testing.T) {
		platform := &tu.MockPlatform{Results: map[string][]models.VideoCandidate{query: {
			{URL: urlA, Duration: 328 * time.Second},
			{URL: urlB, Duration: 327 * time.Second},
		}}}

		url, err := NewLocator(platform, LocatorOpts{}, nil).Locate(ctx, target)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != urlB {
			t.Errorf("expected 19s-off candidate, got %s", url)
		}
	})

	t.Run("missing durations are fetched", func(t *testing.T) {
		platform := &tu.MockPlatform{
			Results:   map[string][]models.VideoCandidate{query: {{URL: urlA}, {URL: urlB}}},
			Durations: map[string]time.Duration{urlA: 600 * time.Second, urlB: 310 * time.Second},
		}

		url, err := NewLocator(platform, LocatorOpts{}, nil).Locate(ctx, target)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != urlB {
			t.Errorf("expected fetched-duration match %s, got %s", urlB, url)
		}
	})

	t.Run("unknown duration accepts the first valid link", func(t *testing.T) {
		platform := &tu.MockPlatform{Results: map[string][]models.VideoCandidate{query: {
			{URL: "https://example.com/not-a-video"},
			{URL: urlC},
			{URL: urlA},
		}}}

		url, err := NewLocator(platform, LocatorOpts{}, nil).Locate(ctx, target)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != urlC {
			t.Errorf("expected first valid link %s, got %s", urlC, url)
		}
	})

	t.Run("album metadata narrows candidates", func(t *testing.T) {
		platform := &tu.MockPlatform{
			Results: map[string][]models.VideoCandidate{query: {{URL: urlA}, {URL: urlB}}},
			Meta: map[string]map[string]string{
				urlA: {"album": "Live at Pompeii"},
				urlB: {"album": "Wish You Were Here"},
			},
		}

		q := target
		q.Duration = nil
		q.Album = models.Opt("wish you were here")

		url, err := NewLocator(platform, LocatorOpts{}, nil).Locate(ctx, q)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != urlB {
			t.Errorf("expected album match %s, got %s", urlB, url)
		}
	})

	t.Run("falls back to first valid link when every filter rejects", func(t *testing.T) {
		platform := &tu.MockPlatform{Results: map[string][]models.VideoCandidate{query: {
			{URL: urlA, Duration: 30 * time.Second},
			{URL: urlB, Duration: 900 * time.Second},
		}}}

		url, err := NewLocator(platform, LocatorOpts{}, nil).Locate(ctx, target)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != urlA {
			t.Errorf("expected fallback %s, got %s", urlA, url)
		}
	})

	t.Run("no valid links", func(t *testing.T) {
		platform := &tu.MockPlatform{Results: map[string][]models.VideoCandidate{query: {
			{URL: "https://vimeo.com/123"},
		}}}

		_, err := NewLocator(platform, LocatorOpts{}, nil).Locate(ctx, target)
		if !errors.Is(err, shared.ErrNoVideoCandidate) {
			t.Errorf("expected ErrNoVideoCandidate, got %v", err)
		}
	})

	t.Run("search errors propagate", func(t *testing.T) {
		platform := &tu.MockPlatform{SearchErr: shared.ErrServiceUnavailable}

		_, err := NewLocator(platform, LocatorOpts{}, nil).Locate(ctx, target)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("limit is passed to search", func(t *testing.T) {
		platform := &tu.MockPlatform{Results: map[string][]models.VideoCandidate{query: {
			{URL: urlA, Duration: 30 * time.Second},
			{URL: urlB, Duration: 308 * time.Second},
		}}}

		url, err := NewLocator(platform, LocatorOpts{Limit: 1}, nil).Locate(ctx, target)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != urlA {
			t.Errorf("expected only the first result to be considered, got %s", url)
		}
	})
}
