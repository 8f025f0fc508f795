package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/yt2mp3/internal/formatter"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
	"github.com/desertthunder/yt2mp3/internal/tasks"
	"github.com/desertthunder/yt2mp3/internal/ui"
	"github.com/urfave/cli/v3"
)

// Download resolves the song described by the root flags (or a playlist) and saves it.
//
// The temp and cover directories are removed when the run ends, whether it succeeded or not.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}

	layout := r.layout()
	defer func() {
		if err := layout.Cleanup(); err != nil {
			r.logger.Warn("cleanup failed", "err", err)
		}
	}()

	if playlist := cmd.String("playlist"); playlist != "" {
		return r.downloadPlaylist(ctx, cmd, playlist)
	}

	q, err := r.query(cmd)
	if err != nil {
		return err
	}
	r.logger.Debug("resolving", "query", q.String())

	song, err := r.resolver(true).Resolve(ctx, q)
	if err != nil {
		return err
	}
	if !cmd.Bool("quiet") {
		r.writePlain("%s\n", formatter.SongToText(song))
	}

	opts := tasks.PipelineOpts{Overwrite: cmd.Bool("overwrite"), CoverResolution: r.resolution(cmd)}
	pipeline := r.pipeline()

	var res *tasks.SongResult
	err = r.withProgress(ctx, cmd, "Downloading "+song.Artist+" - "+song.Track, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
		var err error
		res, err = pipeline.Process(ctx, song, opts, progress)
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("quiet"):
	case res.Skipped:
		r.writePlain("%s\n", ui.Warning("Already downloaded: "+res.Path+" (use --overwrite to replace)"))
	default:
		r.writePlain("%s\n", ui.Success("✔ Saved "+res.Path))
	}
	return nil
}

func (r *Runner) downloadPlaylist(ctx context.Context, cmd *cli.Command, url string) error {
	// Entries resolve while the progress view owns the terminal, so they never prompt.
	runner := tasks.NewPlaylistRunner(r.platform, r.resolver(false), r.pipeline(), r.logger)
	opts := tasks.PlaylistOpts{
		Pipeline: tasks.PipelineOpts{Overwrite: cmd.Bool("overwrite"), CoverResolution: r.resolution(cmd)},
		Workers:  int(cmd.Int("workers")),
	}

	var result *tasks.PlaylistResult
	err := r.withProgress(ctx, cmd, "Downloading playlist", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = runner.Run(ctx, url, opts, progress)
		return err
	})
	if result == nil {
		return err
	}

	if path := cmd.String("manifest"); path != "" {
		if werr := formatter.WritePlaylistManifest(result.Manifest(), path); werr != nil {
			r.logger.Warn("failed to write manifest", "path", path, "err", werr)
		} else {
			r.logger.Info("manifest written", "path", path)
		}
	}

	if !cmd.Bool("quiet") {
		r.writePlainHeader("Playlist Complete")
		r.writePlain("Saved: %d  Skipped: %d  Failed: %d\n", result.Succeeded, result.Skipped, result.Failed)
		for _, e := range result.Entries {
			if e.Error != nil {
				r.writePlain("%s\n", ui.Failure(fmt.Sprintf("✘ %d. %s: %v", e.Index+1, e.Title, e.Error)))
			}
		}
	}

	if err != nil {
		return err
	}
	if result.Succeeded == 0 && result.Skipped == 0 {
		return fmt.Errorf("%w: no playlist entry could be saved", shared.ErrDownloadFailed)
	}
	return nil
}

// query builds a [models.SongQuery] from flags, prompting for every field when none was given.
func (r *Runner) query(cmd *cli.Command) (models.SongQuery, error) {
	q := models.SongQuery{
		Track:    models.Opt(cmd.String("track")),
		Artist:   models.Opt(cmd.String("artist")),
		Album:    models.Opt(cmd.String("album")),
		VideoURL: models.Opt(cmd.String("url")),
	}
	if q.Validate() == nil {
		return q, nil
	}

	if r.prompter == nil {
		return q, fmt.Errorf("%w: give --track, --artist, --url or --playlist", shared.ErrMissingArgument)
	}

	for _, field := range []struct {
		label string
		dest  **string
	}{
		{"Track", &q.Track},
		{"Artist", &q.Artist},
		{"Album", &q.Album},
	} {
		answer, err := r.prompter.Prompt(field.label, "")
		if err != nil {
			return q, err
		}
		*field.dest = models.Opt(answer)
	}

	if err := q.Validate(); err != nil {
		return q, fmt.Errorf("%w: %v", shared.ErrMissingArgument, err)
	}
	return q, nil
}

func (r *Runner) resolution(cmd *cli.Command) int {
	if res := int(cmd.Int("resolution")); res > 0 {
		return res
	}
	return r.config.Output.CoverResolution
}

// resolver wires lookup and locator from config. Without prompts, ambiguous lists fail and
// unidentified videos keep their page title.
func (r *Runner) resolver(prompts bool) *tasks.Resolver {
	lookup := tasks.NewLookup(r.catalog, r.logger)
	locator := tasks.NewLocator(r.platform, tasks.LocatorOpts{
		Limit:     r.config.YouTube.SearchLimit,
		Tolerance: r.config.YouTube.DurationTolerance(),
	}, r.logger)

	opts := tasks.ResolverOpts{Logger: r.logger}
	if prompts {
		opts.Selector = r.selector
		opts.Prompter = r.prompter
	}
	return tasks.NewResolver(lookup, locator, r.platform, opts)
}

func (r *Runner) pipeline() *tasks.SongPipeline {
	deps := tasks.PipelineDeps{
		Platform:   r.platform,
		Transcoder: r.transcoder,
		Tagger:     r.tagger,
		Covers:     r.covers,
		Layout:     r.layout(),
		Logger:     r.logger,
	}

	if repo, err := r.historyRepo(); err != nil {
		r.logger.Warn("history disabled", "err", err)
	} else {
		deps.Recorder = repo
	}
	return tasks.NewSongPipeline(deps)
}

// withProgress runs fn with a progress channel rendered for the current mode: a bubbletea
// view for interactive runs, plain lines otherwise, nothing with --quiet.
func (r *Runner) withProgress(ctx context.Context, cmd *cli.Command, title string, fn func(context.Context, chan<- tasks.ProgressUpdate) error) error {
	switch {
	case cmd.Bool("quiet"):
		return fn(ctx, nil)
	case r.interactive && !cmd.Bool("verbose"):
		return ui.RunProgress(ctx, r.output, title, fn)
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			switch update.Phase {
			case tasks.Convert:
				// Only the boundaries; ffmpeg reports many percentages.
				if pct, ok := update.Data.(float64); ok && pct > 0 && pct < 100 {
					continue
				}
			case tasks.Failed:
				r.writePlain("%s\n", ui.Failure(update.Message))
				continue
			}
			r.writePlain("%s\n", update.Message)
		}
	}()

	err := fn(ctx, progress)
	close(progress)
	wg.Wait()
	return err
}
