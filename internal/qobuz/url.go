package qobuz

import (
	"errors"
	"regexp"
)

// ContentKind is the kind of catalog content a URL points at.
type ContentKind string

const (
	KindAlbum    ContentKind = "album"
	KindTrack    ContentKind = "track"
	KindArtist   ContentKind = "artist"
	KindLabel    ContentKind = "label"
	KindPlaylist ContentKind = "playlist"
)

// ErrInvalidURL is returned for URLs that are not recognizable Qobuz
// content links.
var ErrInvalidURL = errors.New("not a valid Qobuz URL")

var urlRe = regexp.MustCompile(`https?://(?:open|play|www)\.qobuz\.com(?:/[a-zA-Z0-9_-]+)*/(album|artist|track|playlist|label)/([a-zA-Z0-9]+)`)

// ParseURL extracts the content kind and identifier from a Qobuz URL.
func ParseURL(raw string) (ContentKind, string, error) {
	m := urlRe.FindStringSubmatch(raw)
	if m == nil {
		return "", "", ErrInvalidURL
	}
	return ContentKind(m[1]), m[2], nil
}

// ExtractURLs pulls every recognizable Qobuz content URL out of free
// text, deduplicated in order of first appearance.
func ExtractURLs(text string) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, m := range urlRe.FindAllString(text, -1) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}
