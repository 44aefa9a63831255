package audio

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"github.com/lingion/qobuz-dl/internal/model"
)

// Tagger embeds track and album metadata into downloaded files.
type Tagger struct{}

// NewTagger creates a Tagger.
func NewTagger() *Tagger {
	return &Tagger{}
}

// Tag writes metadata into the file at path, choosing the tag format
// from the destination extension. finalPath carries the extension when
// the file itself is still a temp name.
//
// standalone marks tracks downloaded outside an album context; they
// use their embedded album reference for album-level frames. artwork,
// when non-nil, is embedded as front cover art.
func (t *Tagger) Tag(path, finalPath string, track *model.Track, album *model.Album, standalone bool, artwork []byte) error {
	if album == nil && track.Album != nil {
		album = track.Album
	}
	if strings.EqualFold(filepath.Ext(finalPath), ".mp3") {
		return t.tagMP3(path, track, album, artwork)
	}
	return t.tagFLAC(path, track, album, artwork)
}

func (t *Tagger) tagMP3(path string, track *model.Track, album *model.Album, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open mp3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetTitle(track.Title)
	tag.SetArtist(track.Artist())
	tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, strconv.Itoa(track.Number))
	if track.MediaNumber > 0 {
		tag.AddTextFrame("TPOS", id3v2.EncodingUTF8, strconv.Itoa(track.MediaNumber))
	}
	if album != nil {
		tag.SetAlbum(album.DisplayTitle())
		tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, album.Artist)
		if album.Year != "" {
			tag.AddTextFrame("TYER", id3v2.EncodingUTF8, album.Year)
		}
	}

	if artwork != nil {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     artwork,
		})
	}

	return tag.Save()
}

func (t *Tagger) tagFLAC(path string, track *model.Track, album *model.Album, artwork []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse flac: %w", err)
	}

	// Drop stale comment/picture blocks before writing fresh ones.
	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}
	f.Meta = kept

	comment := flacvorbis.New()
	addField(comment, flacvorbis.FIELD_TITLE, track.Title)
	addField(comment, flacvorbis.FIELD_ARTIST, track.Artist())
	addField(comment, flacvorbis.FIELD_TRACKNUMBER, strconv.Itoa(track.Number))
	if track.MediaNumber > 0 {
		addField(comment, "DISCNUMBER", strconv.Itoa(track.MediaNumber))
	}
	if album != nil {
		addField(comment, flacvorbis.FIELD_ALBUM, album.DisplayTitle())
		addField(comment, "ALBUMARTIST", album.Artist)
		addField(comment, flacvorbis.FIELD_DATE, album.Year)
	}
	commentBlock := comment.Marshal()
	f.Meta = append(f.Meta, &commentBlock)

	if artwork != nil {
		picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front cover", artwork, "image/jpeg")
		if err == nil {
			pictureBlock := picture.Marshal()
			f.Meta = append(f.Meta, &pictureBlock)
		}
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save flac: %w", err)
	}
	return nil
}

func addField(comment *flacvorbis.MetaDataBlockVorbisComment, field, value string) {
	if value != "" {
		_ = comment.Add(field, value)
	}
}
