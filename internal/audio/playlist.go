package audio

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PlaylistName is the file name WriteM3U produces.
const PlaylistName = "playlist.m3u"

var audioExtensions = map[string]bool{
	".flac": true,
	".mp3":  true,
}

// BuildM3U renders an extended M3U playlist for the given relative
// file paths.
func BuildM3U(paths []string) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteM3U scans root for audio files and writes playlist.m3u at its
// top level, with entries relative to root in lexical order. Returns
// the playlist path.
func WriteM3U(root string) (string, error) {
	var entries []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, rel)
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(entries)

	playlistPath := filepath.Join(root, PlaylistName)
	if err := os.WriteFile(playlistPath, []byte(BuildM3U(entries)), 0644); err != nil {
		return "", err
	}
	return playlistPath, nil
}
