package model

import "strings"

// Album represents full album metadata as returned by the catalog.
type Album struct {
	// ID is the catalog identifier.
	ID string

	// Title is the raw album title, without version suffix.
	Title string

	// Version is an optional edition qualifier ("Remastered",
	// "Deluxe Edition", ...).
	Version string

	// Artist is the primary credited album artist.
	Artist string

	// Year is the original release year.
	Year string

	// Streamable reports whether the catalog allows streaming this
	// album at all. A non-streamable album is a hard unavailable
	// condition, distinct from a network failure.
	Streamable bool

	// ImageURL is the large cover art URL, empty when none exists.
	ImageURL string

	// Tracks is the expanded track list.
	Tracks []*Track
}

// DisplayTitle returns the album title with its version qualifier
// appended, unless the title already mentions it.
func (a *Album) DisplayTitle() string {
	if a.Version == "" || strings.Contains(strings.ToLower(a.Title), strings.ToLower(a.Version)) {
		return a.Title
	}
	return a.Title + " (" + a.Version + ")"
}

// MultiDisc reports whether the album's tracks span more than one
// distinct media number.
func (a *Album) MultiDisc() bool {
	seen := make(map[int]struct{}, 2)
	for _, t := range a.Tracks {
		n := t.MediaNumber
		if n == 0 {
			n = 1
		}
		seen[n] = struct{}{}
		if len(seen) > 1 {
			return true
		}
	}
	return false
}

// AlbumSummary is the lightweight album entry returned by artist and
// label browses. It carries a track count and no track numbers, and
// must be expanded into an Album before its tracks can be transferred.
type AlbumSummary struct {
	ID          string
	Title       string
	Artist      string
	TracksCount int
}
