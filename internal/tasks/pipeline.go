package tasks

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yt2mp3/internal/media"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/services"
)

// Recorder persists completed downloads.
type Recorder interface {
	Record(ctx context.Context, song *models.ResolvedSong, path string) error
}

// CoverSource downloads artwork bytes.
type CoverSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PipelineOpts controls a single song run.
type PipelineOpts struct {
	Overwrite       bool
	CoverResolution int
}

// SongResult is the outcome of processing one song.
type SongResult struct {
	Song    *models.ResolvedSong
	Path    string
	Skipped bool
	Error   error
}

// SongPipeline downloads, converts, tags and records a [models.ResolvedSong].
type SongPipeline struct {
	platform   services.VideoPlatform
	transcoder media.Transcoder
	tagger     media.Tagger
	covers     CoverSource
	layout     media.Layout
	recorder   Recorder
	logger     *log.Logger
}

// PipelineDeps are the collaborators of a [SongPipeline]. Covers and Recorder are optional.
type PipelineDeps struct {
	Platform   services.VideoPlatform
	Transcoder media.Transcoder
	Tagger     media.Tagger
	Covers     CoverSource
	Layout     media.Layout
	Recorder   Recorder
	Logger     *log.Logger
}

// NewSongPipeline creates a pipeline from its dependencies.
func NewSongPipeline(deps PipelineDeps) *SongPipeline {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &SongPipeline{
		platform:   deps.Platform,
		transcoder: deps.Transcoder,
		tagger:     deps.Tagger,
		covers:     deps.Covers,
		layout:     deps.Layout,
		recorder:   deps.Recorder,
		logger:     logger,
	}
}

// Layout returns the output layout the pipeline writes into.
func (p *SongPipeline) Layout() media.Layout {
	return p.layout
}

const pipelineSteps = 4

// Process writes song to disk. An existing copy of the same song is skipped unless
// opts.Overwrite is set. Cover art and history failures are logged, not returned.
func (p *SongPipeline) Process(ctx context.Context, song *models.ResolvedSong, opts PipelineOpts, progress chan<- ProgressUpdate) (*SongResult, error) {
	if song == nil {
		return nil, fmt.Errorf("no song to process")
	}
	logger := p.logger.With("track", song.Track, "artist", song.Artist)

	dest, skip := p.layout.Destination(song, opts.Overwrite, p.tagger)
	if skip {
		logger.Info("already downloaded", "path", dest)
		sendProgress(progress, skipUpdate(dest))
		return &SongResult{Song: song, Path: dest, Skipped: true}, nil
	}

	if err := p.layout.Prepare(); err != nil {
		return nil, err
	}

	sendProgress(progress, downloadUpdate(1, pipelineSteps, song))
	downloaded, err := p.platform.Download(ctx, song.VideoURL, p.layout.TempDir)
	if err != nil {
		return nil, err
	}
	defer os.Remove(downloaded)
	logger.Debug("downloaded", "file", downloaded)

	sendProgress(progress, convertUpdate(2, pipelineSteps, 0))
	onProgress := func(pct float64) { sendProgress(progress, convertUpdate(2, pipelineSteps, pct)) }
	if err := p.transcoder.Convert(ctx, downloaded, dest, onProgress); err != nil {
		return nil, err
	}

	sendProgress(progress, coverUpdate(3, pipelineSteps))
	cover := p.cover(ctx, song, opts.CoverResolution, logger)

	sendProgress(progress, tagUpdate(4, pipelineSteps))
	if err := p.tagger.Write(dest, media.TagsFor(song, cover)); err != nil {
		return nil, err
	}

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, song, dest); err != nil {
			logger.Warn("failed to record history", "err", err)
		}
	}

	logger.Info("saved", "path", dest)
	sendProgress(progress, doneUpdate(pipelineSteps, pipelineSteps, song, dest))
	return &SongResult{Song: song, Path: dest}, nil
}

// cover fetches artwork and stages it in the layout's cover directory.
func (p *SongPipeline) cover(ctx context.Context, song *models.ResolvedSong, res int, logger *log.Logger) []byte {
	if p.covers == nil || song.ArtworkURL == "" {
		return nil
	}

	data, err := p.covers.Fetch(ctx, media.CoverURL(song.ArtworkURL, res))
	if err != nil {
		logger.Warn("no cover art", "err", err)
		return nil
	}

	if err := os.WriteFile(p.layout.CoverPath(song), data, 0644); err != nil {
		logger.Debug("could not stage cover art", "err", err)
	}
	return data
}
