package model

// Track represents a single downloadable track.
//
// Tracks arrive from two places: expanded album metadata (Album.Tracks)
// and playlist listings. In both cases the declared resolution fields
// hold the catalog's advertised maximums; the actual delivered values
// are resolved per transfer via the stream descriptor.
type Track struct {
	// ID is the catalog identifier.
	ID string

	// Title is the track title.
	Title string

	// Number is the track number within its disc (1-indexed).
	Number int

	// MediaNumber is the disc number the track belongs to. Albums
	// spanning more than one distinct media number get per-disc
	// subfolders.
	MediaNumber int

	// Performer is the primary credited artist.
	Performer string

	// MaxBitDepth is the advertised maximum bit depth (e.g. 16, 24).
	MaxBitDepth int

	// MaxSamplingRate is the advertised maximum sampling rate. May be
	// Hz-scaled or kHz-scaled depending on the endpoint; naming
	// normalizes it.
	MaxSamplingRate float64

	// Album is the parent album metadata, when known. Standalone
	// tracks fetched directly carry their own album reference here.
	Album *Album
}

// Artist returns the best available artist credit for the track,
// falling back to the parent album's artist.
func (t *Track) Artist() string {
	if t.Performer != "" {
		return t.Performer
	}
	if t.Album != nil {
		return t.Album.Artist
	}
	return "Unknown"
}

// StreamDescriptor is the resolved transfer source for one track.
type StreamDescriptor struct {
	// URL is the payload source.
	URL string

	// SamplingRate is the delivered sampling rate.
	SamplingRate float64

	// BitDepth is the delivered bit depth. Zero for lossy formats.
	BitDepth int

	// IsSample reports that the remote only offers a preview snippet.
	// Sample streams are skipped, never written or retried.
	IsSample bool
}

// QualityResult is the outcome of negotiating a requested quality tier
// against what the catalog actually delivers. It is computed once per
// album from its first track and reused as a representative label for
// folder naming.
type QualityResult struct {
	// Format is the delivered encoding label: "MP3", "FLAC" or
	// "Unknown" when negotiation failed.
	Format string

	// Met reports whether the requested tier was honored. A request
	// above the minimum lossless tier answered with a 16-bit master
	// is not met.
	Met bool

	// BitDepth and SamplingRate are the delivered values, zero when
	// unknown.
	BitDepth     int
	SamplingRate float64
}
