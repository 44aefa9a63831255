package qobuz

import (
	"strings"

	"github.com/lingion/qobuz-dl/internal/model"
)

// modalShareThreshold is the fraction of a release list one artist must
// exceed before the smart filter assumes the list was triggered by that
// artist and prunes unrelated entries.
const modalShareThreshold = 0.4

// minAlbumTracks is the smallest track count treated as a full release
// when singles and EPs are ignored.
const minAlbumTracks = 4

// FilterOptions tunes SmartFilter.
type FilterOptions struct {
	// IgnoreSinglesEPs drops releases with fewer than four tracks
	// before the modal-artist computation.
	IgnoreSinglesEPs bool
}

// SmartFilter prunes an artist's or label's release list to releases
// attributable to its primary artist.
//
// It computes the most frequent primary-credit artist across the list.
// Only when that artist's share strictly exceeds 40% does the filter
// activate; a lower share means the list is assumed to be an
// intentional, unfiltered collection and is returned unchanged.
//
// When active, an entry survives if its artist name contains the modal
// artist's name (collaboration credits like "X & Y"), the modal name
// contains the entry's, or the entry is a various-artists compilation.
//
// This is a heuristic: false positives and negatives are acceptable.
// It never fails and maps empty input to empty output.
func SmartFilter(releases []*model.AlbumSummary, opts FilterOptions) []*model.AlbumSummary {
	if opts.IgnoreSinglesEPs {
		kept := make([]*model.AlbumSummary, 0, len(releases))
		for _, r := range releases {
			if r.TracksCount >= minAlbumTracks {
				kept = append(kept, r)
			}
		}
		releases = kept
	}
	if len(releases) == 0 {
		return releases
	}

	counts := make(map[string]int, len(releases))
	modal := ""
	for _, r := range releases {
		counts[r.Artist]++
		if counts[r.Artist] > counts[modal] {
			modal = r.Artist
		}
	}
	if modal == "" || float64(counts[modal])/float64(len(releases)) <= modalShareThreshold {
		return releases
	}

	modalLower := strings.ToLower(modal)
	filtered := make([]*model.AlbumSummary, 0, len(releases))
	for _, r := range releases {
		artist := strings.ToLower(r.Artist)
		if strings.Contains(artist, modalLower) ||
			strings.Contains(modalLower, artist) ||
			strings.Contains(artist, "various") {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
