package audio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/dhowden/tag"
)

// Tags holds the metadata melody reads from a media file.
type Tags struct {
	Title  string
	Artist string
	Album  string

	// Artwork is the embedded front cover (or first picture), nil if none.
	Artwork []byte

	// ArtworkMIME is the MIME type of Artwork, e.g. "image/jpeg".
	ArtworkMIME string
}

// ReadTags reads tags from a local media file.
//
// MP3 files are read with the id3v2 library, everything else (FLAC, OGG,
// M4A) with dhowden/tag. A file without tags returns empty Tags and no
// error.
//
// Example:
//
//	tags, err := audio.ReadTags("/music/song.mp3")
//	if err == nil && tags.Artist != "" {
//	    track.Artist = tags.Artist
//	}
func ReadTags(path string) (Tags, error) {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return readID3(path)
	}
	return readGeneric(path)
}

// readID3 reads ID3v2 frames from an MP3 file.
func readID3(path string) (Tags, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Tags{}, err
	}
	defer t.Close()

	tags := Tags{
		Title:  t.Title(),
		Artist: t.Artist(),
		Album:  t.Album(),
	}

	// Prefer the front cover, fall back to the first attached picture.
	for _, f := range t.GetFrames(t.CommonID("Attached picture")) {
		pic, ok := f.(id3v2.PictureFrame)
		if !ok {
			continue
		}
		if tags.Artwork == nil || pic.PictureType == id3v2.PTFrontCover {
			tags.Artwork = pic.Picture
			tags.ArtworkMIME = pic.MimeType
		}
		if pic.PictureType == id3v2.PTFrontCover {
			break
		}
	}

	return tags, nil
}

// readGeneric reads tags with dhowden/tag.
func readGeneric(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return Tags{}, nil
		}
		return Tags{}, err
	}

	tags := Tags{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}
	if pic := m.Picture(); pic != nil {
		tags.Artwork = pic.Data
		tags.ArtworkMIME = pic.MIMEType
	}
	return tags, nil
}
