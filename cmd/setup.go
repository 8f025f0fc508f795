package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/desertthunder/yt2mp3/internal/services"
	"github.com/desertthunder/yt2mp3/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the config file when missing, initializes the database and reports whether
// the external tools are reachable.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Config written to %s\n", configPath)
	} else {
		r.writePlain("✓ Config found at %s\n", configPath)
	}

	if err := r.load(cmd); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if _, err := r.historyRepo(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	statuses, err := shared.Migrations(r.db)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		r.logger.Debug("migration", "version", s.Version, "name", s.Name, "state", state)
	}
	r.writePlain("✓ Database ready at %s (%d migrations)\n", shared.ExpandPath(r.config.Database.Path), len(statuses))

	if cmd.Bool("install-ytdlp") {
		r.logger.Info("installing yt-dlp")
		if err := services.InstallYTDLP(ctx); err != nil {
			return err
		}
		r.writePlain("✓ yt-dlp installed\n")
	}

	r.checkTool("yt-dlp", r.config.YouTube.YTDLPPath, "yt-dlp")
	r.checkTool("ffmpeg", r.config.FFmpeg.FFmpegPath, "ffmpeg")
	return nil
}

// checkTool reports whether a binary is on PATH (or at its configured location).
func (r *Runner) checkTool(name, configured, fallback string) {
	bin := configured
	if bin == "" {
		bin = fallback
	}
	if path, err := exec.LookPath(shared.ExpandPath(bin)); err == nil {
		r.writePlain("✓ %s: %s\n", name, path)
		return
	}
	r.writePlain("✗ %s not found (looked for %q)\n", name, bin)
}

// Clean removes the temp download and cover art directories under the output directory.
func (r *Runner) Clean(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(cmd); err != nil {
		return err
	}

	layout := r.layout()
	if err := layout.Cleanup(); err != nil {
		return err
	}

	r.logger.Debug("removed", "temp", layout.TempDir, "covers", layout.CoverDir)
	return r.writePlain("✓ Removed %s and %s\n", layout.TempDir, layout.CoverDir)
}
