// Package naming derives sanitized, length-bounded destination paths
// from format templates and item metadata.
//
// Templates use {placeholder} substitution. Available placeholders are
// artist, album, year, format, bit_depth, sampling_rate, tracktitle and
// tracknumber (zero-padded). An unknown placeholder is a hard error:
// a malformed template should fail the item, not silently drop parts of
// the name.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lingion/qobuz-dl/internal/model"
)

// Default templates, matching the folder/track layout qobuz-dl has
// always produced.
const (
	DefaultFolderFormat      = "{artist} - {album} ({year})"
	DefaultAlbumTrackFormat  = "{tracknumber} {artist} - {tracktitle} [{bit_depth}B-{sampling_rate}kHz]"
	DefaultSingleTrackFormat = "{artist} - {tracktitle} [{bit_depth}B-{sampling_rate}kHz]"
)

// MaxPathLength is the cap, in runes, applied to a joined destination
// path before the file extension is appended. Keeps absolute paths
// under common filesystem limits.
const MaxPathLength = 240

// ErrUnknownPlaceholder is returned when a template references a
// placeholder the naming context does not define.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

var (
	placeholderRe  = regexp.MustCompile(`\{([a-z_]+)\}`)
	invalidCharsRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDotsRe = regexp.MustCompile(`\.+$`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
)

// Expand substitutes {placeholder} occurrences in template with values
// from ctx. Every placeholder must be defined in ctx.
func Expand(template string, ctx map[string]string) (string, error) {
	var unknown string
	expanded := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := m[1 : len(m)-1]
		value, ok := ctx[key]
		if !ok {
			unknown = key
			return m
		}
		return value
	})
	if unknown != "" {
		return "", fmt.Errorf("%w: {%s}", ErrUnknownPlaceholder, unknown)
	}
	return expanded, nil
}

// SanitizeName strips characters that are invalid in file and folder
// names, removes trailing dots, and collapses whitespace.
func SanitizeName(name string) string {
	name = invalidCharsRe.ReplaceAllString(name, "_")
	name = trailingDotsRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}

// TruncatePath caps path at max runes. Truncation happens before the
// extension is appended so the extension always survives intact.
func TruncatePath(path string, max int) string {
	runes := []rune(path)
	if len(runes) <= max {
		return path
	}
	return string(runes[:max])
}

// FormatSamplingRate renders a sampling rate in kHz with trailing
// zeros trimmed. Hz-scaled inputs (greater than 1000) are converted.
func FormatSamplingRate(rate float64) string {
	if rate > 1000 {
		rate /= 1000
	}
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

// DiscFolder returns the per-disc subfolder name used by multi-disc
// albums.
func DiscFolder(mediaNumber int) string {
	return fmt.Sprintf("Disc %d", mediaNumber)
}

// TrackContext builds the naming context for one track. Declared
// album-level maximums are used as fallbacks; the resolved stream
// descriptor wins when it carries delivered values.
func TrackContext(t *model.Track, desc *model.StreamDescriptor) map[string]string {
	rate := t.MaxSamplingRate
	if rate == 0 {
		rate = 44.1
	}
	if desc != nil && desc.SamplingRate > 0 {
		rate = desc.SamplingRate
	}
	depth := t.MaxBitDepth
	if depth == 0 {
		depth = 16
	}
	if desc != nil && desc.BitDepth > 0 {
		depth = desc.BitDepth
	}
	return map[string]string{
		"artist":        t.Artist(),
		"tracktitle":    t.Title,
		"tracknumber":   fmt.Sprintf("%02d", t.Number),
		"bit_depth":     strconv.Itoa(depth),
		"sampling_rate": FormatSamplingRate(rate),
	}
}

// AlbumContext builds the naming context for an album folder, using
// the representative quality result negotiated from its first track.
func AlbumContext(a *model.Album, q model.QualityResult) map[string]string {
	depth := ""
	if q.BitDepth > 0 {
		depth = strconv.Itoa(q.BitDepth)
	}
	rate := ""
	if q.SamplingRate > 0 {
		rate = FormatSamplingRate(q.SamplingRate)
	}
	return map[string]string{
		"artist":        a.Artist,
		"album":         a.DisplayTitle(),
		"year":          a.Year,
		"format":        q.Format,
		"bit_depth":     depth,
		"sampling_rate": rate,
	}
}

// TrackPath resolves the final path for a track file: template
// expansion, name sanitization, join under dir, truncation to
// MaxPathLength runes, then the extension.
func TrackPath(dir, template string, ctx map[string]string, ext string) (string, error) {
	name, err := Expand(template, ctx)
	if err != nil {
		return "", err
	}
	joined := filepath.Join(dir, SanitizeName(name))
	return TruncatePath(joined, MaxPathLength) + ext, nil
}

// AlbumFolder resolves the album directory under root. Each component
// of the expanded template is sanitized independently so a template may
// introduce nesting.
func AlbumFolder(root, template string, ctx map[string]string) (string, error) {
	name, err := Expand(template, ctx)
	if err != nil {
		return "", err
	}
	parts := strings.Split(name, "/")
	for i, part := range parts {
		parts[i] = SanitizeName(part)
	}
	return filepath.Join(append([]string{root}, parts...)...), nil
}
