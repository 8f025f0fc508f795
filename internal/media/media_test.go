package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
	tu "github.com/desertthunder/yt2mp3/internal/testing"
)

func testSong() *models.ResolvedSong {
	return models.NewResolvedSong(models.CatalogRecord{
		Track:       "Bold As Love",
		Artist:      "Jimi Hendrix",
		Album:       "Experience Hendrix: The Best of Jimi Hendrix",
		Genre:       "Rock",
		TrackNumber: 12,
		TrackCount:  20,
		DiscNumber:  1,
		DiscCount:   1,
		ReleaseDate: "1997-09-16T07:00:00Z",
		ArtworkURL:  "https://is1-ssl.mzstatic.com/image/thumb/Music/aa/bb/100x100bb.jpg",
	}, "https://www.youtube.com/watch?v=AAAAAAAAAAA")
}

type stubTagger struct {
	albums map[string]string
}

func (s stubTagger) Write(string, Tags) error { return nil }

func (s stubTagger) Album(path string) (string, error) {
	album, ok := s.albums[path]
	if !ok {
		return "", errors.New("no tag")
	}
	return album, nil
}

func TestCoverURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		res  int
		want string
	}{
		{"catalog artwork", "https://is1.mzstatic.com/image/thumb/a/b/100x100bb.jpg", 480, "https://is1.mzstatic.com/image/thumb/a/b/480x480bb.jpg"},
		{"youtube thumbnail", "https://img.youtube.com/vi/AAAAAAAAAAA/maxresdefault.jpg", 480, "https://img.youtube.com/vi/AAAAAAAAAAA/maxresdefault.jpg"},
		{"empty", "", 480, ""},
		{"no resolution", "https://x/y/100x100bb.jpg", 0, "https://x/y/100x100bb.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoverURL(tt.url, tt.res); got != tt.want {
				t.Errorf("CoverURL(%q, %d) = %q, want %q", tt.url, tt.res, got, tt.want)
			}
		})
	}
}

func TestCoverFetcher(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches bytes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("\xff\xd8\xffimage"))
		}))
		defer server.Close()

		data, err := NewCoverFetcher(server.Client()).Fetch(ctx, server.URL+"/cover.jpg")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "\xff\xd8\xffimage" {
			t.Errorf("unexpected body %q", data)
		}
	})

	t.Run("non-200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		if _, err := NewCoverFetcher(server.Client()).Fetch(ctx, server.URL); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("empty url", func(t *testing.T) {
		if _, err := NewCoverFetcher(nil).Fetch(ctx, ""); err == nil {
			t.Error("expected error for empty url")
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("offline"))}
		if _, err := NewCoverFetcher(client).Fetch(ctx, "http://example.invalid/c.jpg"); err == nil {
			t.Error("expected transport error")
		}
	})
}

func TestLayout(t *testing.T) {
	root := t.TempDir()
	layout := NewLayout(shared.OutputConfig{Dir: root, Format: "mp3", TempDir: "temp", CoverDir: "CoverArt"})
	song := testSong()

	t.Run("paths", func(t *testing.T) {
		if want := filepath.Join(root, "Jimi Hendrix", "Bold As Love.mp3"); layout.SongPath(song) != want {
			t.Errorf("SongPath = %s, want %s", layout.SongPath(song), want)
		}
		want := filepath.Join(root, "Jimi Hendrix", "Bold As Love (Experience Hendrix: The Best of Jimi Hendrix).mp3")
		if layout.AlternatePath(song) != want {
			t.Errorf("AlternatePath = %s, want %s", layout.AlternatePath(song), want)
		}
		if layout.TempDir != filepath.Join(root, "temp") {
			t.Errorf("expected temp dir under root, got %s", layout.TempDir)
		}
	})

	t.Run("absolute temp dir is kept", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "scratch")
		l := NewLayout(shared.OutputConfig{Dir: root, TempDir: abs})
		if l.TempDir != abs {
			t.Errorf("expected %s, got %s", abs, l.TempDir)
		}
		if l.Format != "mp3" {
			t.Errorf("expected default format mp3, got %s", l.Format)
		}
	})

	t.Run("Destination", func(t *testing.T) {
		path := layout.SongPath(song)

		got, skip := layout.Destination(song, false, stubTagger{})
		if got != path || skip {
			t.Fatalf("expected fresh path %s, got %s skip=%v", path, got, skip)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("mp3"), 0644); err != nil {
			t.Fatal(err)
		}

		same := stubTagger{albums: map[string]string{path: "Experience Hendrix: The Best of Jimi Hendrix"}}
		if got, skip := layout.Destination(song, false, same); got != path || !skip {
			t.Errorf("expected duplicate skip, got %s skip=%v", got, skip)
		}

		if got, skip := layout.Destination(song, true, same); got != path || skip {
			t.Errorf("expected overwrite of %s, got %s skip=%v", path, got, skip)
		}

		other := stubTagger{albums: map[string]string{path: "Axis: Bold As Love"}}
		if got, skip := layout.Destination(song, false, other); got != layout.AlternatePath(song) || skip {
			t.Errorf("expected alternate path, got %s skip=%v", got, skip)
		}
	})

	t.Run("Prepare and Cleanup", func(t *testing.T) {
		if err := layout.Prepare(); err != nil {
			t.Fatalf("Prepare failed: %v", err)
		}
		tu.AssertDirExists(t, layout.TempDir)
		tu.AssertDirExists(t, layout.CoverDir)

		if err := layout.Cleanup(); err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if _, err := os.Stat(layout.TempDir); !os.IsNotExist(err) {
			t.Error("expected temp dir to be removed")
		}
		if err := layout.Cleanup(); err != nil {
			t.Errorf("second Cleanup should be a no-op, got %v", err)
		}
	})

	t.Run("Cleanup keeps the library", func(t *testing.T) {
		library := t.TempDir()
		saved := filepath.Join(library, "Pink Floyd", "Have a Cigar.mp3")
		if err := os.MkdirAll(filepath.Dir(saved), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(saved, []byte("mp3"), 0644); err != nil {
			t.Fatal(err)
		}

		tests := []struct {
			name    string
			tempDir string
		}{
			{"temp dir is the output dir", "."},
			{"temp dir is the parent", ".."},
			{"temp dir resolves to the output dir", "temp/.."},
			{"absolute output dir", library},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				l := NewLayout(shared.OutputConfig{Dir: library, TempDir: tt.tempDir, CoverDir: "CoverArt"})

				if err := l.Cleanup(); !errors.Is(err, shared.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				tu.AssertFileExists(t, saved)
			})
		}
	})

	t.Run("unnamed artist folder", func(t *testing.T) {
		manual := models.NewManualSong("Bold As Love", "", "", "https://www.youtube.com/watch?v=AAAAAAAAAAA")
		want := filepath.Join(root, models.UnknownArtist, "Bold As Love.mp3")
		if got := layout.SongPath(manual); got != want {
			t.Errorf("SongPath = %s, want %s", got, want)
		}
	})
}

func TestID3Tagger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatal(err)
	}

	tagger := NewID3Tagger()
	cover := []byte("\xff\xd8\xff\xe0fakejpeg")
	if err := tagger.Write(path, TagsFor(testSong(), cover)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	defer tag.Close()

	if tag.Title() != "Bold As Love" {
		t.Errorf("expected title, got %q", tag.Title())
	}
	if tag.Artist() != "Jimi Hendrix" {
		t.Errorf("expected artist, got %q", tag.Artist())
	}
	if tag.Genre() != "Rock" {
		t.Errorf("expected genre Rock, got %q", tag.Genre())
	}
	if got := tag.GetTextFrame(tag.CommonID("Track number/Position in set")).Text; got != "12/20" {
		t.Errorf("expected track 12/20, got %q", got)
	}
	if pics := tag.GetFrames(tag.CommonID("Attached picture")); len(pics) != 1 {
		t.Errorf("expected one picture frame, got %d", len(pics))
	}

	album, err := tagger.Album(path)
	if err != nil {
		t.Fatalf("Album failed: %v", err)
	}
	if album != "Experience Hendrix: The Best of Jimi Hendrix" {
		t.Errorf("unexpected album %q", album)
	}

	if err := tagger.Write(filepath.Join(t.TempDir(), "missing", "x.mp3"), Tags{}); !errors.Is(err, shared.ErrTagFailed) {
		t.Errorf("expected ErrTagFailed for missing file, got %v", err)
	}
}

func TestPositionInSet(t *testing.T) {
	tests := []struct {
		n, count int
		want     string
	}{
		{0, 10, ""},
		{3, 0, "3"},
		{3, 10, "3/10"},
	}
	for _, tt := range tests {
		if got := positionInSet(tt.n, tt.count); got != tt.want {
			t.Errorf("positionInSet(%d, %d) = %q, want %q", tt.n, tt.count, got, tt.want)
		}
	}
}

func TestFFmpegTranscoder(t *testing.T) {
	t.Run("Options", func(t *testing.T) {
		tr := NewFFmpegTranscoder(shared.FFmpegConfig{AudioBitrate: "192k"}, "", nil)
		opts := tr.Options()

		if *opts.OutputFormat != "mp3" {
			t.Errorf("expected mp3 output, got %s", *opts.OutputFormat)
		}
		if *opts.AudioCodec != "libmp3lame" {
			t.Errorf("expected libmp3lame, got %s", *opts.AudioCodec)
		}
		if opts.AudioBitrate == nil || *opts.AudioBitrate != "192k" {
			t.Errorf("expected 192k bitrate")
		}
		if !*opts.SkipVideo || !*opts.Overwrite {
			t.Error("expected video to be dropped and output overwritten")
		}
	})

	t.Run("missing input", func(t *testing.T) {
		tr := NewFFmpegTranscoder(shared.FFmpegConfig{}, "mp3", nil)
		err := tr.Convert(context.Background(), "/nope/in.webm", filepath.Join(t.TempDir(), "out.mp3"), nil)
		if !errors.Is(err, shared.ErrConvertFailed) {
			t.Errorf("expected ErrConvertFailed, got %v", err)
		}
	})

	t.Run("failed conversion keeps the existing file", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "in.webm")
		out := filepath.Join(dir, "Jimi Hendrix", "Bold As Love.mp3")
		if err := os.WriteFile(in, []byte("webm"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(out, []byte("previous mp3"), 0644); err != nil {
			t.Fatal(err)
		}

		missing := filepath.Join(dir, "bin", "missing")
		tr := NewFFmpegTranscoder(shared.FFmpegConfig{FFmpegPath: missing, FFprobePath: missing}, "mp3", nil)
		if err := tr.Convert(context.Background(), in, out, nil); !errors.Is(err, shared.ErrConvertFailed) {
			t.Fatalf("expected ErrConvertFailed, got %v", err)
		}

		if got := tu.MustReadFile(t, out); got != "previous mp3" {
			t.Errorf("expected existing file untouched, got %q", got)
		}
		tu.AssertFileNotExists(t, partialPath(out))
	})

	t.Run("partial path", func(t *testing.T) {
		want := filepath.Join("music", "Jimi Hendrix", ".Bold As Love.mp3.part")
		if got := partialPath(filepath.Join("music", "Jimi Hendrix", "Bold As Love.mp3")); got != want {
			t.Errorf("partialPath = %s, want %s", got, want)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tr := NewFFmpegTranscoder(shared.FFmpegConfig{}, "mp3", nil)
		if err := tr.Convert(ctx, "in", "out", nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
