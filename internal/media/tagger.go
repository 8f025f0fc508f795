package media

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bogem/id3v2/v2"
	"github.com/desertthunder/yt2mp3/internal/models"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

// Tags are the descriptive fields embedded in an output file.
type Tags struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	Year        string
	TrackNumber int
	TrackCount  int
	DiscNumber  int
	DiscCount   int
	Cover       []byte
}

// TagsFor builds tags from a resolved song and optional cover bytes.
func TagsFor(song *models.ResolvedSong, cover []byte) Tags {
	return Tags{
		Title:       song.Track,
		Artist:      song.Artist,
		AlbumArtist: song.Artist,
		Album:       song.Album,
		Genre:       song.Genre,
		Year:        song.Year(),
		TrackNumber: song.TrackNumber,
		TrackCount:  song.TrackCount,
		DiscNumber:  song.DiscNumber,
		DiscCount:   song.DiscCount,
		Cover:       cover,
	}
}

// Tagger reads and writes file tags.
type Tagger interface {
	Write(path string, tags Tags) error
	// Album returns the album tag of an existing file.
	Album(path string) (string, error)
}

// ID3Tagger implements [Tagger] with ID3v2.4 frames.
type ID3Tagger struct{}

// NewID3Tagger creates an ID3 tagger.
func NewID3Tagger() *ID3Tagger {
	return &ID3Tagger{}
}

// Write replaces every frame in path with TIT2, TPE1, TPE2, TALB, TCON, TRCK, TPOS, TDRC and APIC
// as available. Empty fields are left out.
func (ID3Tagger) Write(path string, tags Tags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %v", shared.ErrTagFailed, path, err)
	}
	defer tag.Close()

	tag.DeleteAllFrames()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	setText := func(id, value string) {
		if value != "" {
			tag.AddTextFrame(id, tag.DefaultEncoding(), value)
		}
	}

	setText(tag.CommonID("Title/Songname/Content description"), tags.Title)
	setText(tag.CommonID("Lead artist/Lead performer/Soloist/Performing group"), tags.Artist)
	setText(tag.CommonID("Band/Orchestra/Accompaniment"), tags.AlbumArtist)
	setText(tag.CommonID("Album/Movie/Show title"), tags.Album)
	setText(tag.CommonID("Content type"), tags.Genre)
	setText(tag.CommonID("Recording time"), tags.Year)
	setText(tag.CommonID("Track number/Position in set"), positionInSet(tags.TrackNumber, tags.TrackCount))
	setText(tag.CommonID("Part of a set"), positionInSet(tags.DiscNumber, tags.DiscCount))

	if len(tags.Cover) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    http.DetectContentType(tags.Cover),
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     tags.Cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: failed to save %s: %v", shared.ErrTagFailed, path, err)
	}
	return nil
}

// Album reads the TALB frame of path.
func (ID3Tagger) Album(path string) (string, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Album/Movie/Show title"}})
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s: %v", shared.ErrTagFailed, path, err)
	}
	defer tag.Close()
	return tag.Album(), nil
}

// positionInSet renders "n/count", "n", or "" for zero.
func positionInSet(n, count int) string {
	switch {
	case n <= 0:
		return ""
	case count <= 0:
		return strconv.Itoa(n)
	default:
		return strconv.Itoa(n) + "/" + strconv.Itoa(count)
	}
}
