package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

// Layout describes where files live for a run:
//
//	<root>/<artist>/<track>.mp3
//	<root>/<temp>/      downloads before conversion
//	<root>/<covers>/    artwork before embedding
type Layout struct {
	Root     string
	TempDir  string
	CoverDir string
	Format   string
}

// NewLayout builds a layout from config. Relative temp and cover directories live under the output dir.
func NewLayout(cfg shared.OutputConfig) Layout {
	root := shared.ExpandPath(cfg.Dir)
	format := cfg.Format
	if format == "" {
		format = "mp3"
	}

	under := func(dir, fallback string) string {
		if dir == "" {
			dir = fallback
		}
		dir = shared.ExpandPath(dir)
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(root, dir)
	}

	return Layout{
		Root:     root,
		TempDir:  under(cfg.TempDir, "temp"),
		CoverDir: under(cfg.CoverDir, "CoverArt"),
		Format:   format,
	}
}

// Prepare creates the temp and cover directories.
func (l Layout) Prepare() error {
	for _, dir := range []string{l.TempDir, l.CoverDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// ArtistDir is the per-artist output directory.
func (l Layout) ArtistDir(artist string) string {
	name := shared.SanitizeFilename(artist)
	if name == "" {
		name = models.UnknownArtist
	}
	return filepath.Join(l.Root, name)
}

// SongPath is <root>/<artist>/<track>.<format>.
func (l Layout) SongPath(song *models.ResolvedSong) string {
	return filepath.Join(l.ArtistDir(song.Artist), l.fileName(song.Track))
}

// AlternatePath is <root>/<artist>/<track> (<album>).<format>, used when a different
// recording with the same title already exists.
func (l Layout) AlternatePath(song *models.ResolvedSong) string {
	if song.Album == "" {
		return l.SongPath(song)
	}
	return filepath.Join(l.ArtistDir(song.Artist), l.fileName(fmt.Sprintf("%s (%s)", song.Track, song.Album)))
}

// CoverPath is where the artwork for song is staged.
func (l Layout) CoverPath(song *models.ResolvedSong) string {
	name := shared.SanitizeFilename(song.Artist + " - " + song.Track)
	if name == "" || name == "-" {
		name = "cover"
	}
	return filepath.Join(l.CoverDir, name+".jpg")
}

func (l Layout) fileName(base string) string {
	base = shared.SanitizeFilename(base)
	if base == "" {
		base = "untitled"
	}
	return base + "." + l.Format
}

// Destination decides where song should be written.
//
// When the regular path exists and its album tag contains the song's album (or the song
// has no album) the file is a duplicate: skip is true unless overwrite is set. When the
// regular path holds a different album the alternate path is used instead.
func (l Layout) Destination(song *models.ResolvedSong, overwrite bool, tagger Tagger) (path string, skip bool) {
	path = l.SongPath(song)
	if !fileExists(path) || overwrite {
		return path, false
	}

	if l.IsDuplicate(path, song.Album, tagger) {
		return path, true
	}

	alt := l.AlternatePath(song)
	return alt, l.IsDuplicate(alt, song.Album, tagger)
}

// IsDuplicate reports whether path exists and, when album is set, whether its album tag contains album.
func (l Layout) IsDuplicate(path, album string, tagger Tagger) bool {
	if !fileExists(path) {
		return false
	}
	if album == "" || tagger == nil {
		return true
	}

	existing, err := tagger.Album(path)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(existing), strings.ToLower(album))
}

// Cleanup removes the temp and cover directories. Missing directories are not an error.
//
// A directory that is the output root or one of its parents is never removed.
func (l Layout) Cleanup() error {
	var errs []error
	for _, dir := range []string{l.TempDir, l.CoverDir} {
		if l.holdsRoot(dir) {
			errs = append(errs, fmt.Errorf("%w: refusing to remove %s, it contains the output directory", shared.ErrInvalidConfig, dir))
			continue
		}
		if err := os.RemoveAll(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// holdsRoot reports whether dir is the output root or an ancestor of it.
func (l Layout) holdsRoot(dir string) bool {
	if dir == "" {
		return true
	}
	root, err := filepath.Abs(l.Root)
	if err != nil {
		return true
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(abs, root)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
