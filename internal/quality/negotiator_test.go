package quality

import (
	"context"
	"errors"
	"testing"

	"github.com/lingion/qobuz-dl/internal/model"
)

type stubCatalog struct {
	desc *model.StreamDescriptor
	err  error
}

func (s *stubCatalog) StreamInfo(context.Context, string, int) (*model.StreamDescriptor, error) {
	return s.desc, s.err
}

func (s *stubCatalog) AlbumMetadata(context.Context, string) (*model.Album, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCatalog) TrackMetadata(context.Context, string) (*model.Track, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCatalog) ArtistAlbums(context.Context, string) (string, []*model.AlbumSummary, error) {
	return "", nil, errors.New("not implemented")
}

func (s *stubCatalog) LabelAlbums(context.Context, string) (string, []*model.AlbumSummary, error) {
	return "", nil, errors.New("not implemented")
}

func (s *stubCatalog) PlaylistTracks(context.Context, string) (string, []*model.Track, error) {
	return "", nil, errors.New("not implemented")
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name string
		tier int
		desc *model.StreamDescriptor
		err  error
		want model.QualityResult
	}{
		{
			name: "mp3 tier skips negotiation",
			tier: TierMP3,
			want: model.QualityResult{Format: "MP3", Met: true},
		},
		{
			name: "cd tier met with 16 bit",
			tier: TierCD,
			desc: &model.StreamDescriptor{BitDepth: 16, SamplingRate: 44.1},
			want: model.QualityResult{Format: "FLAC", Met: true, BitDepth: 16, SamplingRate: 44.1},
		},
		{
			name: "hires tier downgraded to 16 bit",
			tier: TierHiRes,
			desc: &model.StreamDescriptor{BitDepth: 16, SamplingRate: 44.1},
			want: model.QualityResult{Format: "FLAC", Met: false, BitDepth: 16, SamplingRate: 44.1},
		},
		{
			name: "max tier honored with 24 bit",
			tier: TierHiResMax,
			desc: &model.StreamDescriptor{BitDepth: 24, SamplingRate: 192},
			want: model.QualityResult{Format: "FLAC", Met: true, BitDepth: 24, SamplingRate: 192},
		},
		{
			name: "resolution error degrades to unknown",
			tier: TierHiResMax,
			err:  errors.New("boom"),
			want: model.QualityResult{Format: "Unknown", Met: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNegotiator(&stubCatalog{desc: tt.desc, err: tt.err}, tt.tier)
			got := n.Negotiate(context.Background(), "track-1")
			if got != tt.want {
				t.Errorf("Negotiate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	if Extension(TierMP3) != ".mp3" {
		t.Error("tier 5 should map to .mp3")
	}
	if Extension(TierHiResMax) != ".flac" {
		t.Error("lossless tiers should map to .flac")
	}
}
