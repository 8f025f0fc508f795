package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/yt2mp3/internal/formatter"
	"github.com/urfave/cli/v3"
)

// History lists recorded downloads, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}

	repo, err := r.historyRepo()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	if cmd.Bool("clear") {
		n, err := repo.Clear(ctx)
		if err != nil {
			return err
		}
		r.logger.Info("history cleared", "entries", n)
		return r.writePlain("Removed %d history entries\n", n)
	}

	entries, err := repo.List(map[string]any{
		"artist": cmd.String("artist"),
		"track":  cmd.String("track"),
		"limit":  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if path := cmd.String("csv"); path != "" {
		data, err := formatter.HistoryToCSV(entries)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		r.logger.Info("history exported", "path", path, "entries", len(entries))
		return nil
	}

	if cmd.Bool("json") {
		data, err := formatter.HistoryToJSON(entries)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", data)
	}

	return r.writePlain("%s", formatter.HistoryToText(entries))
}
