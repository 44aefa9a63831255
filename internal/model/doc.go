// Package model defines the core data structures used throughout
// qobuz-dl.
//
// # Item
//
// Item is the unit of work handed to the download scheduler. It is a
// tagged union with exactly two kinds, decided once at ingestion:
//
//	item := model.TrackItem(track)        // a single track
//	item := model.AlbumItem(albumSummary) // an album needing expansion
//
// Workers switch on item.Kind() instead of probing metadata fields, so
// the track-vs-album decision is made exactly once.
//
// # Track and Album
//
// Track carries the per-track metadata returned by the catalog (title,
// track/media numbers, declared resolution, performer, parent album).
// Album carries full album metadata including its track list and the
// streamable flag. AlbumSummary is the lightweight listing entry returned
// by artist/label browses before expansion.
//
// # StreamDescriptor
//
// StreamDescriptor is resolved at dispatch time per track: the source
// URL, the delivered sampling rate and bit depth, and whether the remote
// only offers a preview sample. A sample descriptor must never reach
// final storage.
package model
