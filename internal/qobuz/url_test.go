package qobuz

import (
	"errors"
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url      string
		wantKind ContentKind
		wantID   string
		wantErr  bool
	}{
		{"https://open.qobuz.com/album/c9wsrrjh49ftb", KindAlbum, "c9wsrrjh49ftb", false},
		{"https://play.qobuz.com/track/52151405", KindTrack, "52151405", false},
		{"https://www.qobuz.com/us-en/interpreter/artist/123456", KindArtist, "123456", false},
		{"https://www.qobuz.com/label/7794", KindLabel, "7794", false},
		{"https://open.qobuz.com/playlist/998877", KindPlaylist, "998877", false},
		{"https://example.com/album/xyz", "", "", true},
		{"not a url", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			kind, id, err := ParseURL(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Errorf("expected ErrInvalidURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kind != tt.wantKind || id != tt.wantID {
				t.Errorf("ParseURL() = (%q, %q), want (%q, %q)", kind, id, tt.wantKind, tt.wantID)
			}
		})
	}
}

func TestExtractURLs(t *testing.T) {
	text := `check https://open.qobuz.com/album/abc123 and
	https://open.qobuz.com/album/abc123 (again) plus
	https://play.qobuz.com/track/42`

	urls := ExtractURLs(text)
	if len(urls) != 2 {
		t.Fatalf("got %d URLs, want 2: %v", len(urls), urls)
	}
	if urls[0] != "https://open.qobuz.com/album/abc123" {
		t.Errorf("first URL = %q", urls[0])
	}
}
