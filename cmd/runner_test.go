package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/yt2mp3/internal/media"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
	tu "github.com/desertthunder/yt2mp3/internal/testing"
)

const hendrixVideo = "https://www.youtube.com/watch?v=HNDRX000001"

type fixture struct {
	runner   *Runner
	output   *bytes.Buffer
	logs     *bytes.Buffer
	config   *shared.Config
	catalog  *tu.MockCatalog
	platform *tu.MockPlatform
	selector *tu.MockSelector
	prompter *tu.MockPrompter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	config := shared.DefaultConfig()
	config.Output.Dir = t.TempDir()
	config.Database.Path = filepath.Join(t.TempDir(), "history.db")

	rec := models.CatalogRecord{
		TrackID:     1442,
		Track:       "Bold As Love",
		Artist:      "Jimi Hendrix",
		Album:       "Experience Hendrix: The Best of Jimi Hendrix",
		Genre:       "Rock",
		TrackNumber: 12,
		TrackCount:  20,
		ReleaseDate: "1997-09-16T07:00:00Z",
		ArtworkURL:  "https://is1-ssl.mzstatic.com/image/thumb/Music/v4/ab/cd/100x100bb.jpg",
		Duration:    251 * time.Second,
	}

	f := &fixture{
		output: &bytes.Buffer{},
		logs:   &bytes.Buffer{},
		config: config,
		catalog: &tu.MockCatalog{
			Tracks:   map[string][]models.CatalogRecord{"bold as love": {rec}},
			Artists:  map[string][]models.CatalogRecord{"jimi hendrix": {rec}},
			Keywords: map[string][]models.CatalogRecord{"jimi hendrix bold as love": {rec}},
		},
		platform: &tu.MockPlatform{
			Results: map[string][]models.VideoCandidate{
				"Bold As Love Jimi Hendrix": {{URL: hendrixVideo, Duration: 252 * time.Second}},
			},
			Titles: map[string]string{hendrixVideo: "Jimi Hendrix - Bold As Love (Official Audio)"},
			Playlists: map[string][]models.VideoCandidate{
				"https://www.youtube.com/playlist?list=PLhendrix": {
					{URL: hendrixVideo, Title: "Jimi Hendrix - Bold As Love (Official Audio)"},
					{URL: "https://www.youtube.com/watch?v=PRIVATE0001", Title: "[Private video]"},
				},
			},
		},
		selector: &tu.MockSelector{},
	}

	f.runner = NewRunner(RunnerOpts{
		Config:     config,
		Logger:     shared.NewLogger(f.logs),
		Output:     f.output,
		Catalog:    f.catalog,
		Platform:   f.platform,
		Transcoder: &tu.MockTranscoder{},
		Tagger:     media.NewID3Tagger(),
		Covers:     &tu.MockCoverSource{Data: []byte("\xff\xd8\xff\xe0cover")},
		Selector:   f.selector,
	})
	return f
}

func (f *fixture) run(args ...string) error {
	f.output.Reset()
	return f.runner.app().Run(context.Background(), append([]string{"yt2mp3"}, args...))
}

func (f *fixture) songPath() string {
	return filepath.Join(f.config.Output.Dir, "Jimi Hendrix", "Bold As Love.mp3")
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := &tu.MockCatalog{}
			platform := &tu.MockPlatform{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    catalog,
				Platform:   platform,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.platform != platform {
				t.Error("expected platform to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("fails on unencodable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected error for channel value")
			}
		})

		t.Run("write error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("load", func(t *testing.T) {
		t.Run("reads the config file and keeps defaults for missing keys", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.toml")
			conf := fmt.Sprintf("[output]\ndir = %q\n\n[log]\nlevel = \"warn\"\n", dir)
			if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
			err := runner.app().Run(context.Background(), []string{"yt2mp3", "--config", path, "clean"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.config.Output.Dir != dir {
				t.Errorf("expected output dir from file, got %s", runner.config.Output.Dir)
			}
			if runner.config.Output.CoverResolution != 480 {
				t.Errorf("expected default cover resolution, got %d", runner.config.Output.CoverResolution)
			}
			if runner.catalog == nil || runner.platform == nil || runner.transcoder == nil || runner.tagger == nil {
				t.Error("expected collaborators to be built from config")
			}
		})

		t.Run("missing explicit config fails", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.toml")

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
			err := runner.app().Run(context.Background(), []string{"yt2mp3", "--config", path, "clean"})
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("invalid config fails", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[youtube]\nsearch_limit = 0\n"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
			err := runner.app().Run(context.Background(), []string{"yt2mp3", "--config", path, "clean"})
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestDownload(t *testing.T) {
	t.Run("track and artist end to end", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("-t", "Bold As Love", "-a", "Jimi Hendrix"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := f.output.String()
		if !strings.Contains(out, "Experience Hendrix: The Best of Jimi Hendrix") {
			t.Errorf("expected resolved album in output, got %s", out)
		}
		if !strings.Contains(out, "Saved "+f.songPath()) {
			t.Errorf("expected saved path in output, got %s", out)
		}

		album, err := media.NewID3Tagger().Album(f.songPath())
		if err != nil {
			t.Fatalf("expected tagged file: %v", err)
		}
		if album != "Experience Hendrix: The Best of Jimi Hendrix" {
			t.Errorf("unexpected album tag %q", album)
		}

		layout := media.NewLayout(f.config.Output)
		tu.AssertFileNotExists(t, layout.TempDir)
		tu.AssertFileNotExists(t, layout.CoverDir)
	})

	t.Run("second run is skipped", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("-t", "Bold As Love", "-a", "Jimi Hendrix"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := f.run("-t", "Bold As Love", "-a", "Jimi Hendrix"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Already downloaded") {
			t.Errorf("expected skip message, got %s", f.output.String())
		}
		if len(f.platform.Downloads) != 1 {
			t.Errorf("expected one download, got %d", len(f.platform.Downloads))
		}

		if err := f.run("-t", "Bold As Love", "-a", "Jimi Hendrix", "--overwrite"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.platform.Downloads) != 2 {
			t.Errorf("expected overwrite to download again, got %d", len(f.platform.Downloads))
		}
	})

	t.Run("video link", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("--url", hendrixVideo, "--quiet"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.output.Len() != 0 {
			t.Errorf("expected no output with --quiet, got %s", f.output.String())
		}
		if _, err := os.Stat(f.songPath()); err != nil {
			t.Errorf("expected song file: %v", err)
		}
	})

	t.Run("bare video id", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("-u", "HNDRX000001"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.platform.Downloads) != 1 || f.platform.Downloads[0] != hendrixVideo {
			t.Errorf("expected download of %s, got %v", hendrixVideo, f.platform.Downloads)
		}
		tu.AssertFileExists(t, f.songPath())
	})

	t.Run("lookup failure exits non-zero", func(t *testing.T) {
		f := newFixture(t)

		err := f.run("-t", "Bold As Love", "-a", "Cream")
		if !errors.Is(err, shared.ErrLookupFailed) {
			t.Fatalf("expected ErrLookupFailed, got %v", err)
		}
		if code := exitCode(err, f.runner.logger); code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
		if !strings.Contains(f.logs.String(), "no catalog match") {
			t.Errorf("expected diagnostic in logs, got %s", f.logs.String())
		}
	})

	t.Run("cancelled selection exits silently", func(t *testing.T) {
		f := newFixture(t)
		f.selector.Index = -1

		err := f.run("-a", "Jimi Hendrix")
		if !errors.Is(err, shared.ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}

		f.logs.Reset()
		if code := exitCode(err, f.runner.logger); code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
		if f.logs.Len() != 0 {
			t.Errorf("expected no diagnostic, got %s", f.logs.String())
		}
	})

	t.Run("no input and no prompter", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("no input prompts for the song", func(t *testing.T) {
		f := newFixture(t)
		prompter := &tu.MockPrompter{Answers: map[string]string{"Track": "Bold As Love", "Artist": "Jimi Hendrix"}}
		f.runner.prompter = prompter

		if err := f.run(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Join(prompter.Asked, ",") != "Track,Artist,Album" {
			t.Errorf("expected three prompts, got %v", prompter.Asked)
		}
	})

	t.Run("playlist with manifest", func(t *testing.T) {
		f := newFixture(t)
		manifestPath := filepath.Join(t.TempDir(), "manifest.json")

		err := f.run("-p", "https://www.youtube.com/playlist?list=PLhendrix", "--manifest", manifestPath)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Saved: 1  Skipped: 0  Failed: 1") {
			t.Errorf("unexpected summary %s", f.output.String())
		}

		var manifest struct {
			Succeeded int `json:"succeeded"`
			Failed    int `json:"failed"`
		}
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, manifestPath)), &manifest); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if manifest.Succeeded != 1 || manifest.Failed != 1 {
			t.Errorf("unexpected manifest %+v", manifest)
		}
	})
}

func TestSubcommands(t *testing.T) {
	t.Run("search", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("search", "-t", "Bold As Love", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var records []models.CatalogRecord
		if err := json.Unmarshal(f.output.Bytes(), &records); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(records) != 1 || records[0].Genre != "Rock" {
			t.Errorf("unexpected records %+v", records)
		}

		if err := f.run("search", "-a", "Jimi Hendrix"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "1. Jimi Hendrix - Bold As Love") {
			t.Errorf("unexpected text output %s", f.output.String())
		}

		if err := f.run("search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("history", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "No downloads yet.") {
			t.Errorf("expected empty history, got %s", f.output.String())
		}

		if err := f.run("-t", "Bold As Love", "-a", "Jimi Hendrix"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if err := f.run("history", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), `"track": "Bold As Love"`) {
			t.Errorf("expected recorded song, got %s", f.output.String())
		}

		csvPath := filepath.Join(t.TempDir(), "history.csv")
		if err := f.run("history", "--csv", csvPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileContains(t, csvPath, "Sequence,Track,Artist")

		if err := f.run("history", "--clear"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Removed 1 history entries") {
			t.Errorf("unexpected clear output %s", f.output.String())
		}
	})

	t.Run("clean", func(t *testing.T) {
		f := newFixture(t)
		layout := media.NewLayout(f.config.Output)
		if err := layout.Prepare(); err != nil {
			t.Fatalf("failed to prepare layout: %v", err)
		}

		if err := f.run("clean"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileNotExists(t, layout.TempDir)
		tu.AssertFileNotExists(t, layout.CoverDir)
	})

	t.Run("setup", func(t *testing.T) {
		f := newFixture(t)
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := f.run("--config", configPath, "setup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileContains(t, configPath, "[output]")
		if !strings.Contains(f.output.String(), "Database ready") {
			t.Errorf("unexpected setup output %s", f.output.String())
		}
	})
}
