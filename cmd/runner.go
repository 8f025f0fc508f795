package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yt2mp3/internal/media"
	"github.com/desertthunder/yt2mp3/internal/repositories"
	"github.com/desertthunder/yt2mp3/internal/services"
	"github.com/desertthunder/yt2mp3/internal/shared"
	"github.com/desertthunder/yt2mp3/internal/tasks"
	"github.com/desertthunder/yt2mp3/internal/ui"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators left nil in [RunnerOpts] are built from the loaded config on first use.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	interactive bool

	catalog    services.Catalog
	platform   services.VideoPlatform
	transcoder media.Transcoder
	tagger     media.Tagger
	covers     tasks.CoverSource
	selector   tasks.Selector
	prompter   tasks.Prompter

	dbOnce  sync.Once
	db      *sql.DB
	dbErr   error
	history *repositories.HistoryRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Input       io.Reader
	Interactive bool // Draw menus, prompts and progress with bubbletea

	Catalog    services.Catalog
	Platform   services.VideoPlatform
	Transcoder media.Transcoder
	Tagger     media.Tagger
	Covers     tasks.CoverSource
	Selector   tasks.Selector
	Prompter   tasks.Prompter
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
		interactive: opts.Interactive,
		catalog:     opts.Catalog,
		platform:    opts.Platform,
		transcoder:  opts.Transcoder,
		tagger:      opts.Tagger,
		covers:      opts.Covers,
		selector:    opts.Selector,
		prompter:    opts.Prompter,
	}
}

// app builds the root command. Running it without a subcommand downloads a song.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:      "yt2mp3",
		Usage:     "Download songs from YouTube as tagged MP3s",
		UsageText: "yt2mp3 [-t track] [-a artist] [-c album] [-u url | -p playlist] [options]",
		Version:   version,
		Flags:     rootFlags(),
		Action:    r.Download,
		Commands:  r.register(),
		After: func(ctx context.Context, cmd *cli.Command) error {
			return r.Close()
		},
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, historyCommand, setupCommand, cleanCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// load reads the config named by --config (keeping defaults when the default file is missing),
// applies log flags and builds any collaborator that was not injected.
func (r *Runner) load(cmd *cli.Command) error {
	if r.configPath == "" || cmd.IsSet("config") {
		r.configPath = cmd.String("config")
	}

	if r.config == nil {
		_, statErr := os.Stat(r.configPath)
		if statErr != nil && cmd.IsSet("config") {
			return fmt.Errorf("%w: %s", shared.ErrMissingConfig, r.configPath)
		}

		r.config = shared.DefaultConfig()
		if statErr == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return err
			}
			r.config = config
			r.logger.Debug("loaded config", "path", r.configPath)
		}
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	switch {
	case cmd.Bool("verbose"):
		level = log.DebugLevel
	case cmd.Bool("quiet"):
		level = log.ErrorLevel
	}
	shared.SetLogLevel(r.logger, level)

	if r.catalog == nil {
		r.catalog = services.NewITunesService(r.config.Catalog, r.httpClient)
	}
	if r.platform == nil {
		r.platform = services.NewYouTubeService(r.config.YouTube.YTDLPPath)
	}
	if r.transcoder == nil {
		r.transcoder = media.NewFFmpegTranscoder(r.config.FFmpeg, r.config.Output.Format, r.logger)
	}
	if r.tagger == nil {
		r.tagger = media.NewID3Tagger()
	}
	if r.covers == nil {
		r.covers = media.NewCoverFetcher(r.httpClient)
	}
	if r.interactive {
		if r.selector == nil {
			r.selector = ui.NewSelector(r.input, os.Stderr)
		}
		if r.prompter == nil {
			r.prompter = ui.NewPrompter(r.input, os.Stderr)
		}
	}
	return nil
}

// historyRepo opens the history database once, running pending migrations.
func (r *Runner) historyRepo() (*repositories.HistoryRepository, error) {
	r.dbOnce.Do(func() {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			r.dbErr = err
			return
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			r.dbErr = fmt.Errorf("failed to run migrations: %w", err)
			return
		}
		r.db = db
		r.history = repositories.NewHistoryRepository(db)
	})
	return r.history, r.dbErr
}

// Close releases the history database if it was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.history, r.dbErr = nil, nil, nil
	r.dbOnce = sync.Once{}
	return err
}

// layout is the output layout for the loaded config.
func (r *Runner) layout() media.Layout {
	return media.NewLayout(r.config.Output)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
