package naming

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lingion/qobuz-dl/internal/model"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal name", "normal name"},
		{"title: subtitle", "title_ subtitle"},
		{"a/b\\c", "a_b_c"},
		{"what?*", "what__"},
		{"trailing dots...", "trailing dots"},
		{"multiple   spaces", "multiple spaces"},
		{"trailing spaces   ", "trailing spaces"},
		{"quo\"ted|name", "quo_ted_name"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	ctx := map[string]string{
		"artist":     "Artist",
		"tracktitle": "Title",
	}

	got, err := Expand("{artist} - {tracktitle}", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Artist - Title" {
		t.Errorf("Expand() = %q, want %q", got, "Artist - Title")
	}
}

func TestExpand_UnknownPlaceholder(t *testing.T) {
	_, err := Expand("{artist} - {nope}", map[string]string{"artist": "A"})
	if !errors.Is(err, ErrUnknownPlaceholder) {
		t.Errorf("expected ErrUnknownPlaceholder, got %v", err)
	}
}

func TestFormatSamplingRate(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{44100, "44.1"},
		{96000, "96"},
		{44.1, "44.1"},
		{96, "96"},
		{192000, "192"},
		{88.2, "88.2"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatSamplingRate(tt.rate); got != tt.want {
				t.Errorf("FormatSamplingRate(%v) = %q, want %q", tt.rate, got, tt.want)
			}
		})
	}
}

func TestTrackPath_Truncation(t *testing.T) {
	ctx := map[string]string{
		"tracktitle": strings.Repeat("x", 400),
	}

	got, err := TrackPath("/music/album", "{tracktitle}", ctx, ".flac")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(got, ".flac") {
		t.Errorf("extension lost: %q", got)
	}
	base := strings.TrimSuffix(got, ".flac")
	if n := len([]rune(base)); n != MaxPathLength {
		t.Errorf("truncated path is %d runes, want %d", n, MaxPathLength)
	}
}

func TestTrackPath_ShortUntouched(t *testing.T) {
	got, err := TrackPath("/music", "{tracktitle}", map[string]string{"tracktitle": "Song"}, ".mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join("/music", "Song")+".mp3" {
		t.Errorf("TrackPath() = %q", got)
	}
}

func TestTrackContext(t *testing.T) {
	track := &model.Track{
		Title:           "Song",
		Number:          3,
		Performer:       "Artist",
		MaxBitDepth:     16,
		MaxSamplingRate: 44.1,
	}
	desc := &model.StreamDescriptor{SamplingRate: 96000, BitDepth: 24}

	ctx := TrackContext(track, desc)
	if ctx["tracknumber"] != "03" {
		t.Errorf("tracknumber = %q, want %q", ctx["tracknumber"], "03")
	}
	if ctx["bit_depth"] != "24" {
		t.Errorf("bit_depth = %q, want %q (descriptor wins)", ctx["bit_depth"], "24")
	}
	if ctx["sampling_rate"] != "96" {
		t.Errorf("sampling_rate = %q, want %q", ctx["sampling_rate"], "96")
	}
}

func TestAlbumFolder(t *testing.T) {
	album := &model.Album{
		Artist:  "Artist",
		Title:   "Album",
		Version: "Deluxe",
		Year:    "2020",
	}
	q := model.QualityResult{Format: "FLAC", Met: true, BitDepth: 24, SamplingRate: 96}

	got, err := AlbumFolder("/music", DefaultFolderFormat, AlbumContext(album, q))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join("/music", "Artist - Album (Deluxe) (2020)")
	if got != want {
		t.Errorf("AlbumFolder() = %q, want %q", got, want)
	}
}

func TestDiscFolder(t *testing.T) {
	if got := DiscFolder(2); got != "Disc 2" {
		t.Errorf("DiscFolder(2) = %q", got)
	}
}
