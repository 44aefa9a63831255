package model

// ItemKind discriminates the two kinds of schedulable work.
type ItemKind int

const (
	// KindTrack is a single track ready for transfer.
	KindTrack ItemKind = iota

	// KindAlbum is an album summary that must be expanded into its
	// track list before any transfer happens.
	KindAlbum
)

// Item is one schedulable unit of work: either a track or an album
// summary. Construct it with TrackItem or AlbumItem; the zero value is
// not meaningful.
type Item struct {
	kind  ItemKind
	track *Track
	album *AlbumSummary
}

// TrackItem wraps a track as a schedulable item.
func TrackItem(t *Track) Item {
	return Item{kind: KindTrack, track: t}
}

// AlbumItem wraps an album summary as a schedulable item.
func AlbumItem(a *AlbumSummary) Item {
	return Item{kind: KindAlbum, album: a}
}

// Kind reports which variant this item holds.
func (i Item) Kind() ItemKind { return i.kind }

// Track returns the track variant. Only valid when Kind is KindTrack.
func (i Item) Track() *Track { return i.track }

// Album returns the album-summary variant. Only valid when Kind is
// KindAlbum.
func (i Item) Album() *AlbumSummary { return i.album }

// Label returns a short human-readable name for progress and failure
// reporting.
func (i Item) Label() string {
	switch i.kind {
	case KindAlbum:
		if i.album != nil {
			return i.album.Title
		}
	case KindTrack:
		if i.track != nil {
			return i.track.Title
		}
	}
	return "Unknown"
}
