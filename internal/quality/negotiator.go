// Package quality negotiates requested quality tiers against what the
// catalog actually delivers.
package quality

import (
	"context"

	"github.com/lingion/qobuz-dl/internal/model"
	"github.com/lingion/qobuz-dl/internal/qobuz"
)

// Quality tiers as the catalog numbers them.
const (
	TierMP3      = 5  // 320 kbps MP3
	TierCD       = 6  // 16 bit / 44.1 kHz FLAC
	TierHiRes    = 7  // 24 bit, up to 96 kHz FLAC
	TierHiResMax = 27 // 24 bit, above 96 kHz FLAC
)

// Describe returns a human-readable label for a tier.
func Describe(tier int) string {
	switch tier {
	case TierMP3:
		return "5 - MP3"
	case TierCD:
		return "6 - 16 bit, 44.1kHz"
	case TierHiRes:
		return "7 - 24 bit, <96kHz"
	case TierHiResMax:
		return "27 - 24 bit, >96kHz"
	default:
		return "unknown tier"
	}
}

// Negotiator determines the deliverable encoding for a requested tier.
type Negotiator struct {
	catalog qobuz.Catalog
	tier    int
}

// NewNegotiator creates a Negotiator for one requested tier.
func NewNegotiator(catalog qobuz.Catalog, tier int) *Negotiator {
	return &Negotiator{catalog: catalog, tier: tier}
}

// Negotiate resolves the delivered format for an album, probing the
// stream descriptor of its first track.
//
// Tier 5 is always MP3; the lossy tier has no fallback concept. Any
// lossless tier delivers FLAC, but a request above the CD tier answered
// with a 16-bit master is flagged as not met so the caller can decide
// whether the fallback is acceptable. Resolution errors degrade
// silently to an Unknown result so naming can still proceed.
func (n *Negotiator) Negotiate(ctx context.Context, firstTrackID string) model.QualityResult {
	if n.tier == TierMP3 {
		return model.QualityResult{Format: "MP3", Met: true}
	}

	desc, err := n.catalog.StreamInfo(ctx, firstTrackID, n.tier)
	if err != nil {
		return model.QualityResult{Format: "Unknown", Met: true}
	}

	met := true
	if n.tier > TierCD && desc.BitDepth == 16 {
		met = false
	}
	return model.QualityResult{
		Format:       "FLAC",
		Met:          met,
		BitDepth:     desc.BitDepth,
		SamplingRate: desc.SamplingRate,
	}
}

// Extension returns the file extension for a tier's delivered format.
func Extension(tier int) string {
	if tier == TierMP3 {
		return ".mp3"
	}
	return ".flac"
}
