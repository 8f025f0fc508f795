package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/yt2mp3/internal/formatter"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
	"github.com/desertthunder/yt2mp3/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Search prints the catalog records for --track, --artist and --album without downloading.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}

	q := models.SongQuery{
		Track:  models.Opt(cmd.String("track")),
		Artist: models.Opt(cmd.String("artist")),
		Album:  models.Opt(cmd.String("album")),
	}
	if !q.HasTrack() && !q.HasArtist() {
		return fmt.Errorf("%w: search needs --track or --artist", shared.ErrMissingArgument)
	}

	r.logger.Debug("searching catalog", "query", q.String(), "catalog", r.catalog.Name())

	res, err := tasks.NewLookup(r.catalog, r.logger).Find(ctx, q)
	if err != nil {
		return err
	}

	records := res.Candidates
	if res.Exact() {
		records = []models.CatalogRecord{*res.Record}
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%d result(s) for %s", len(records), q.String()))
	return r.writePlain("%s", formatter.CatalogToText(records))
}
