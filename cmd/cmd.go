// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootFlags are shared by every command. Subcommands read the song fields for their own filters.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "track",
			Aliases: []string{"t"},
			Usage:   "Track name",
		},
		&cli.StringFlag{
			Name:    "artist",
			Aliases: []string{"a"},
			Usage:   "Artist name",
		},
		&cli.StringFlag{
			Name:    "album",
			Aliases: []string{"c"},
			Usage:   "Album name (narrows catalog and video matches)",
		},
		&cli.StringFlag{
			Name:    "url",
			Aliases: []string{"u"},
			Usage:   "Video link or 11 character id to download",
		},
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Playlist link to download",
		},
		&cli.IntFlag{
			Name:    "resolution",
			Aliases: []string{"r"},
			Usage:   "Cover art resolution in pixels (default from config)",
		},
		&cli.BoolFlag{
			Name:    "overwrite",
			Aliases: []string{"o"},
			Usage:   "Replace songs that were already downloaded",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Concurrent downloads in playlist mode (max 4)",
			Value:   1,
		},
		&cli.StringFlag{
			Name:  "manifest",
			Usage: "Write a JSON summary of a playlist run to this path",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to configuration file",
			Value: "config.toml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Debug logging",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
	}
}

// searchCommand prints catalog matches without downloading anything.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Look up songs in the catalog (uses --track, --artist and --album)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// historyCommand lists or clears recorded downloads.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List downloaded songs (filter with --artist and --track)",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries to show",
				Value: 50,
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Write the history to a CSV file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Delete every history entry",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles first-run setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a config file, initialize the database and check external tools",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "install-ytdlp",
				Usage: "Download a yt-dlp binary into the user cache directory",
			},
		},
		Action: r.Setup,
	}
}

// cleanCommand removes the temporary directories of a run.
func cleanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "clean",
		Usage:  "Remove leftover temp and cover art directories",
		Action: r.Clean,
	}
}
