package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"

	httpclient "github.com/lingion/qobuz-dl/internal/http"
	"github.com/lingion/qobuz-dl/internal/model"
)

// chunkSize is the streaming copy buffer size.
const chunkSize = 32 * 1024

// ErrRetriesExhausted marks a transfer that failed with a transient
// error on every allowed attempt.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Status is the terminal state of one transfer.
type Status int

const (
	// StatusDownloaded means the payload was received, tagged and
	// published.
	StatusDownloaded Status = iota

	// StatusAlreadyExists means the final path was already present
	// and no network call was made.
	StatusAlreadyExists

	// StatusSkippedSample means the remote only offered a preview
	// snippet; nothing was written.
	StatusSkippedSample
)

// Tagger embeds metadata into a received file. Implementations live in
// the audio package; tagging failures are swallowed by the transfer.
type Tagger interface {
	Tag(path, finalPath string, track *model.Track, album *model.Album, standalone bool, artwork []byte) error
}

// Request describes one transfer.
type Request struct {
	// Descriptor is the resolved stream source.
	Descriptor *model.StreamDescriptor

	// Dir is the destination directory. Must exist.
	Dir string

	// FinalPath is the sanitized, truncated destination path
	// including extension.
	FinalPath string

	// Ordinal distinguishes concurrent temp files in the same
	// directory. Temp names derive from it, never from content.
	Ordinal int

	// Track and Album feed the tagger.
	Track      *model.Track
	Album      *model.Album
	Standalone bool

	// Artwork, when non-nil, is embedded into the file's tags.
	Artwork []byte

	// SideArtURL and SideArtPath request a one-shot sibling cover
	// file next to the track. Empty URL disables it.
	SideArtURL  string
	SideArtPath string

	// OnBytes receives byte-count deltas as the payload streams in.
	// A retry sends a negative delta resetting the item to zero.
	OnBytes func(delta int64)
}

// Transfer downloads single payloads with bounded retry and atomic
// publish.
type Transfer struct {
	http       *httpclient.Client
	tagger     Tagger
	maxRetries int
	backoff    time.Duration
	onEvent    func(Event)
}

// NewTransfer creates a Transfer. maxRetries bounds the attempt loop;
// backoff is the fixed wait between attempts.
func NewTransfer(http *httpclient.Client, tagger Tagger, maxRetries int, backoff time.Duration, onEvent func(Event)) *Transfer {
	return &Transfer{
		http:       http,
		tagger:     tagger,
		maxRetries: maxRetries,
		backoff:    backoff,
		onEvent:    onEvent,
	}
}

// Run executes the transfer state machine for one item.
func (t *Transfer) Run(ctx context.Context, req Request) (Status, error) {
	if _, err := os.Stat(req.FinalPath); err == nil {
		return StatusAlreadyExists, nil
	}

	if req.Descriptor == nil || req.Descriptor.IsSample || req.Descriptor.URL == "" {
		return StatusSkippedSample, nil
	}

	tempPath := filepath.Join(req.Dir, fmt.Sprintf(".%02d.tmp", req.Ordinal))

	var lastErr error
	received := false
	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		written, err := t.attempt(ctx, req.Descriptor.URL, tempPath, req.OnBytes)
		if err == nil {
			received = true
			break
		}

		os.Remove(tempPath)
		if req.OnBytes != nil && written > 0 {
			req.OnBytes(-written)
		}

		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if !isRetryable(err) {
			return 0, err
		}

		lastErr = err
		t.event(Event{
			Message: fmt.Sprintf("Retry %d/%d for %s: %v", attempt, t.maxRetries, filepath.Base(req.FinalPath), err),
			Level:   LevelWarning,
		})

		if attempt < t.maxRetries {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(t.backoff):
			}
		}
	}
	if !received {
		return 0, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, t.maxRetries, lastErr)
	}

	// Tagging is best-effort: an untagged file beats a failed item.
	if t.tagger != nil {
		if err := t.tagger.Tag(tempPath, req.FinalPath, req.Track, req.Album, req.Standalone, req.Artwork); err != nil {
			t.event(Event{
				Message: fmt.Sprintf("Tagging failed for %s: %v", filepath.Base(req.FinalPath), err),
				Level:   LevelWarning,
			})
		}
	}

	// Publish. The rename is the single moment the file becomes
	// visible at its final name.
	if err := os.Rename(tempPath, req.FinalPath); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("publish: %w", err)
	}

	t.fetchSideArt(ctx, req)

	return StatusDownloaded, nil
}

// attempt streams the payload into tempPath once, reporting byte
// progress per chunk. Returns the bytes written when it fails so the
// caller can roll progress back.
func (t *Transfer) attempt(ctx context.Context, url, tempPath string, onBytes func(int64)) (int64, error) {
	body, _, err := t.http.Stream(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	file, err := os.Create(tempPath)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				file.Close()
				return written, werr
			}
			written += int64(n)
			if onBytes != nil {
				onBytes(int64(n))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			file.Close()
			return written, rerr
		}
	}
	return written, file.Close()
}

// fetchSideArt writes a sibling cover file once. Never retried, and
// failures never affect the item outcome.
func (t *Transfer) fetchSideArt(ctx context.Context, req Request) {
	if req.SideArtURL == "" || req.SideArtPath == "" {
		return
	}
	if _, err := os.Stat(req.SideArtPath); err == nil {
		return
	}
	data, err := t.http.Get(ctx, req.SideArtURL)
	if err != nil {
		t.event(Event{
			Message: fmt.Sprintf("Cover art fetch failed for %s: %v", filepath.Base(req.SideArtPath), err),
			Level:   LevelWarning,
		})
		return
	}
	if err := os.WriteFile(req.SideArtPath, data, 0644); err != nil {
		t.event(Event{Message: fmt.Sprintf("Cover art write failed: %v", err), Level: LevelWarning})
	}
}

func (t *Transfer) event(e Event) {
	if t.onEvent != nil {
		t.onEvent(e)
	}
}

// isRetryable classifies connection-level failures: timeouts, resets
// and truncated bodies are worth another attempt from byte zero;
// anything else aborts the item.
func isRetryable(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
