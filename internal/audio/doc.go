// Package audio embeds metadata tags into downloaded files and writes
// playlist files.
//
// # Tagging
//
// Tagger dispatches on file extension: MP3 files get ID3v2 frames,
// FLAC files get a Vorbis comment block plus an embedded picture block
// when cover art is supplied. Tagging is best-effort for callers: the
// transfer layer treats a tagging error as a warning, never as a
// transfer failure.
//
// # Playlists
//
// WriteM3U scans a directory tree for downloaded audio files and
// writes an extended M3U playlist alongside them, mirroring what
// playlist downloads produce.
package audio
