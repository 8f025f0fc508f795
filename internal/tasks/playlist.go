package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yt2mp3/internal/formatter"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/services"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

const maxPlaylistWorkers = 4

// PlaylistOpts contains configuration for playlist runs.
type PlaylistOpts struct {
	Pipeline PipelineOpts
	Workers  int // Concurrent download/convert workers (default 1, max 4)
}

// EntryResult is the outcome for a single playlist entry.
type EntryResult struct {
	Index    int
	VideoURL string
	Title    string
	SongResult
}

// PlaylistResult summarises a playlist run.
type PlaylistResult struct {
	URL       string
	Entries   []EntryResult
	Succeeded int
	Skipped   int
	Failed    int
}

// PlaylistRunner resolves and processes every video of a playlist.
type PlaylistRunner struct {
	platform services.VideoPlatform
	resolver *Resolver
	pipeline *SongPipeline
	logger   *log.Logger
}

// NewPlaylistRunner creates a PlaylistRunner.
func NewPlaylistRunner(platform services.VideoPlatform, resolver *Resolver, pipeline *SongPipeline, logger *log.Logger) *PlaylistRunner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistRunner{platform: platform, resolver: resolver, pipeline: pipeline, logger: logger}
}

type playlistJob struct {
	index int
	song  *models.ResolvedSong
}

// Run lists the playlist, resolves each entry in order (resolution may prompt, so it
// stays on the calling goroutine) and hands resolved songs to a worker pool.
//
// A failing entry is recorded and the run continues; only listing the playlist is fatal.
func (r *PlaylistRunner) Run(ctx context.Context, url string, opts PlaylistOpts, progress chan<- ProgressUpdate) (*PlaylistResult, error) {
	if !shared.ValidateURL(url, true) {
		return nil, fmt.Errorf("%w: not a playlist link: %s", shared.ErrInvalidURL, url)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Workers > maxPlaylistWorkers {
		opts.Workers = maxPlaylistWorkers
	}

	sendProgress(progress, fetchPlaylistUpdate(url))
	videos, err := r.platform.PlaylistVideos(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("%w: playlist %s is empty", shared.ErrNoVideoCandidate, url)
	}

	total := len(videos)
	result := &PlaylistResult{URL: url, Entries: make([]EntryResult, total)}
	for i, v := range videos {
		result.Entries[i] = EntryResult{Index: i, VideoURL: v.URL, Title: v.Title}
	}

	jobs := make(chan playlistJob, total)
	done := make(chan EntryResult, total)

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go r.worker(ctx, &wg, jobs, done, opts.Pipeline)
	}

	go func() {
		defer close(jobs)
		for i, v := range videos {
			if ctx.Err() != nil {
				return
			}

			sendProgress(progress, resolveEntryUpdate(i+1, total, v.Title))
			song, err := r.resolver.Resolve(ctx, models.SongQuery{VideoURL: models.Opt(v.URL)})
			if err != nil {
				done <- EntryResult{Index: i, SongResult: SongResult{Error: err}}
				continue
			}
			jobs <- playlistJob{index: i, song: song}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for entry := range done {
		completed++
		base := result.Entries[entry.Index]
		base.SongResult = entry.SongResult
		result.Entries[entry.Index] = base

		switch {
		case entry.Error != nil:
			result.Failed++
			r.logger.Warn("playlist entry failed", "url", base.VideoURL, "err", entry.Error)
			sendProgress(progress, entryFailedUpdate(completed, total, base.Title, entry.Error))
		case entry.Skipped:
			result.Skipped++
			sendProgress(progress, entryDoneUpdate(completed, total, &base.SongResult))
		default:
			result.Succeeded++
			sendProgress(progress, entryDoneUpdate(completed, total, &base.SongResult))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// worker processes resolved songs from the jobs channel.
func (r *PlaylistRunner) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan playlistJob, done chan<- EntryResult, opts PipelineOpts) {
	defer wg.Done()
	for job := range jobs {
		entry := EntryResult{Index: job.index}
		res, err := r.pipeline.Process(ctx, job.song, opts, nil)
		if err != nil {
			entry.SongResult = SongResult{Song: job.song, Error: err}
		} else {
			entry.SongResult = *res
		}
		done <- entry
	}
}

// Manifest converts the result into the JSON manifest written next to the downloads.
func (r *PlaylistResult) Manifest() formatter.PlaylistManifest {
	manifest := formatter.PlaylistManifest{
		URL:       r.URL,
		Succeeded: r.Succeeded,
		Skipped:   r.Skipped,
		Failed:    r.Failed,
		Entries:   make([]formatter.ManifestEntry, len(r.Entries)),
		WrittenAt: time.Now(),
	}

	for i, e := range r.Entries {
		entry := formatter.ManifestEntry{VideoURL: e.VideoURL, Title: e.Title, Path: e.Path}
		if e.Song != nil {
			entry.Track = e.Song.Track
			entry.Artist = e.Song.Artist
			entry.Album = e.Song.Album
		}

		switch {
		case e.Error != nil:
			entry.Status = "failed"
			entry.Error = e.Error.Error()
		case e.Skipped:
			entry.Status = "skipped"
		case e.Song == nil:
			entry.Status = "pending"
		default:
			entry.Status = "saved"
		}
		manifest.Entries[i] = entry
	}
	return manifest
}
