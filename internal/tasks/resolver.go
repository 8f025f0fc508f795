package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/yt2mp3/internal/formatter"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/services"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

// State is a step of song resolution.
type State int

const (
	StateNeedInput State = iota
	StateResolving
	StateDisambiguating
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNeedInput:
		return "need_input"
	case StateResolving:
		return "resolving"
	case StateDisambiguating:
		return "disambiguating"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return ""
	}
}

// Selector presents options and returns the chosen index.
// Any index outside [0, len(options)) means the user backed out.
type Selector interface {
	Select(title string, options []string) (int, error)
}

// Prompter asks the user for a single line of text.
type Prompter interface {
	Prompt(label, placeholder string) (string, error)
}

// Resolver turns a [models.SongQuery] into a [models.ResolvedSong].
type Resolver struct {
	lookup   *Lookup
	locator  *Locator
	platform services.VideoPlatform
	selector Selector
	prompter Prompter
	logger   *log.Logger
	state    State
}

// ResolverOpts wires the interactive collaborators. A nil Prompter disables manual entry.
type ResolverOpts struct {
	Selector Selector
	Prompter Prompter
	Logger   *log.Logger
}

// NewResolver creates a Resolver.
func NewResolver(lookup *Lookup, locator *Locator, platform services.VideoPlatform, opts ResolverOpts) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{
		lookup:   lookup,
		locator:  locator,
		platform: platform,
		selector: opts.Selector,
		prompter: opts.Prompter,
		logger:   logger,
		state:    StateNeedInput,
	}
}

// State returns the state the last call to Resolve ended in.
func (r *Resolver) State() State {
	return r.state
}

func (r *Resolver) transition(s State) {
	r.logger.Debug("resolver", "from", r.state, "to", s)
	r.state = s
}

// Resolve runs the resolution flow for q:
//
//   - a video URL is identified from its normalized page title, then by manual entry,
//     and finally kept as a manual song with the video thumbnail as artwork
//   - track and artist must match the catalog exactly
//   - a lone track or artist lists catalog songs for the user to choose from
//
// A cancelled selection returns [shared.ErrCancelled]. Every error leaves the resolver in [StateFailed].
func (r *Resolver) Resolve(ctx context.Context, q models.SongQuery) (*models.ResolvedSong, error) {
	r.state = StateNeedInput
	if err := q.Validate(); err != nil {
		r.transition(StateFailed)
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	r.transition(StateResolving)

	var (
		song *models.ResolvedSong
		err  error
	)
	switch {
	case q.HasVideoURL():
		song, err = r.fromVideo(ctx, q)
	case q.HasTrack() && q.HasArtist():
		song, err = r.fromExact(ctx, q)
	default:
		song, err = r.fromList(ctx, q)
	}

	if err != nil {
		r.transition(StateFailed)
		return nil, err
	}

	r.transition(StateResolved)
	return song, nil
}

func (r *Resolver) fromExact(ctx context.Context, q models.SongQuery) (*models.ResolvedSong, error) {
	res, err := r.lookup.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.locate(ctx, *res.Record, q.Album)
}

func (r *Resolver) fromList(ctx context.Context, q models.SongQuery) (*models.ResolvedSong, error) {
	res, err := r.lookup.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	candidates := res.Candidates
	if res.Exact() {
		candidates = []models.CatalogRecord{*res.Record}
	}

	// Tracks are shown with their artist; an artist's catalogue only needs the track name.
	withArtist := q.HasTrack()
	if withArtist {
		candidates = rankByTrack(candidates, *q.Track)
	}

	r.transition(StateDisambiguating)
	rec, err := r.choose("Select a song", candidates, withArtist)
	if err != nil {
		return nil, err
	}
	return r.locate(ctx, rec, q.Album)
}

func (r *Resolver) fromVideo(ctx context.Context, q models.SongQuery) (*models.ResolvedSong, error) {
	videoURL := shared.VideoLink(*q.VideoURL)
	if !shared.ValidateURL(videoURL, false) {
		return nil, fmt.Errorf("%w: %s", shared.ErrInvalidURL, videoURL)
	}

	title, err := r.platform.Title(ctx, videoURL)
	if err != nil {
		r.logger.Warn("could not read video title", "url", videoURL, "err", err)
	}

	keywords := shared.NormalizeTitle(title)
	if rec, err := r.lookup.Keywords(ctx, keywords); err == nil {
		r.logger.Info("identified video", "keywords", keywords, "track", rec.Track, "artist", rec.Artist)
		return models.NewResolvedSong(*rec, videoURL), nil
	} else if !errors.Is(err, shared.ErrLookupFailed) {
		r.logger.Warn("keyword lookup failed", "keywords", keywords, "err", err)
	}

	track, artist, err := r.manualIdentity(q, title)
	if err != nil {
		return nil, err
	}

	if track != "" && artist != "" {
		retry := models.SongQuery{Track: models.Opt(track), Artist: models.Opt(artist), Album: q.Album}
		if res, err := r.lookup.Find(ctx, retry); err == nil && res.Exact() {
			return models.NewResolvedSong(*res.Record, videoURL), nil
		} else if err != nil {
			r.logger.Warn("manual lookup failed, keeping entered identity", "track", track, "artist", artist, "err", err)
		}
	}

	if track == "" {
		track = title
	}
	if track == "" {
		return nil, fmt.Errorf("%w: no title or track name for %s", shared.ErrLookupFailed, videoURL)
	}

	song := models.NewManualSong(track, artist, shared.ThumbnailURL(videoURL), videoURL)
	song.Album = models.Val(q.Album)
	return song, nil
}

// manualIdentity fills track and artist from the query, prompting for whatever is missing.
func (r *Resolver) manualIdentity(q models.SongQuery, title string) (string, string, error) {
	track, artist := models.Val(q.Track), models.Val(q.Artist)
	if r.prompter == nil {
		return track, artist, nil
	}

	var err error
	if track == "" {
		if track, err = r.prompter.Prompt("Track", title); err != nil {
			return "", "", err
		}
	}
	if artist == "" {
		if artist, err = r.prompter.Prompt("Artist", ""); err != nil {
			return "", "", err
		}
	}
	return track, artist, nil
}

func (r *Resolver) choose(title string, candidates []models.CatalogRecord, withArtist bool) (models.CatalogRecord, error) {
	if len(candidates) == 0 {
		return models.CatalogRecord{}, fmt.Errorf("%w: nothing to choose from", shared.ErrLookupFailed)
	}
	if r.selector == nil {
		return models.CatalogRecord{}, fmt.Errorf("%w: %d matches and no way to choose", shared.ErrInvalidInput, len(candidates))
	}

	idx, err := r.selector.Select(title, formatter.CatalogOptions(candidates, withArtist))
	if err != nil {
		return models.CatalogRecord{}, err
	}
	if idx < 0 || idx >= len(candidates) {
		return models.CatalogRecord{}, shared.ErrCancelled
	}
	return candidates[idx], nil
}

func (r *Resolver) locate(ctx context.Context, rec models.CatalogRecord, album *string) (*models.ResolvedSong, error) {
	target := models.SongQuery{
		Track:  models.Opt(rec.Track),
		Artist: models.Opt(rec.Artist),
		Album:  album,
	}
	if rec.Duration > 0 {
		d := rec.Duration
		target.Duration = &d
	}

	url, err := r.locator.Locate(ctx, target)
	if err != nil {
		return nil, err
	}
	return models.NewResolvedSong(rec, url), nil
}

// rankByTrack orders records by title similarity to track, keeping catalog order between equals.
func rankByTrack(records []models.CatalogRecord, track string) []models.CatalogRecord {
	metric := &metrics.Hamming{CaseSensitive: false}
	scores := make([]float64, len(records))
	for i, rec := range records {
		scores[i] = strutil.Similarity(rec.Track, track, metric)
	}

	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	ranked := make([]models.CatalogRecord, len(records))
	for i, j := range idx {
		ranked[i] = records[j]
	}
	return ranked
}
