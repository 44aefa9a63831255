package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lingion/qobuz-dl/internal/config"
	httpclient "github.com/lingion/qobuz-dl/internal/http"
	ioutils "github.com/lingion/qobuz-dl/internal/io"
	"github.com/lingion/qobuz-dl/internal/ledger"
	"github.com/lingion/qobuz-dl/internal/model"
	"github.com/lingion/qobuz-dl/internal/qobuz"
	"github.com/lingion/qobuz-dl/internal/quality"
)

// stubCatalog serves canned metadata and stream descriptors.
type stubCatalog struct {
	albums    map[string]*model.Album
	streams   map[string]*model.StreamDescriptor
	streamErr map[string]error
}

func (c *stubCatalog) StreamInfo(ctx context.Context, trackID string, tier int) (*model.StreamDescriptor, error) {
	if err, ok := c.streamErr[trackID]; ok {
		return nil, err
	}
	if desc, ok := c.streams[trackID]; ok {
		return desc, nil
	}
	return nil, fmt.Errorf("unknown track %s", trackID)
}

func (c *stubCatalog) AlbumMetadata(ctx context.Context, albumID string) (*model.Album, error) {
	if a, ok := c.albums[albumID]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("unknown album %s", albumID)
}

func (c *stubCatalog) TrackMetadata(ctx context.Context, trackID string) (*model.Track, error) {
	return nil, errors.New("not implemented")
}

func (c *stubCatalog) ArtistAlbums(ctx context.Context, artistID string) (string, []*model.AlbumSummary, error) {
	return "", nil, errors.New("not implemented")
}

func (c *stubCatalog) LabelAlbums(ctx context.Context, labelID string) (string, []*model.AlbumSummary, error) {
	return "", nil, errors.New("not implemented")
}

func (c *stubCatalog) PlaylistTracks(ctx context.Context, playlistID string) (string, []*model.Track, error) {
	return "", nil, errors.New("not implemented")
}

func testSettings() *config.Settings {
	s := config.DefaultSettings()
	s.Quality = quality.TierMP3
	s.MaxWorkers = 4
	s.MaxRetries = 3
	s.FolderFormat = "{artist} - {album}"
	s.TrackFormat = "{tracknumber} {tracktitle}"
	s.SingleTrackFormat = "{tracktitle}"
	s.NoCover = true
	return s
}

func newTestScheduler(t *testing.T, catalog qobuz.Catalog, settings *config.Settings) *Scheduler {
	t.Helper()
	led, err := ledger.Open(filepath.Join(t.TempDir(), "ledger"))
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	httpc := httpclient.NewClient()
	transfer := NewTransfer(httpc, nil, settings.MaxRetries, time.Millisecond, nil)
	return NewScheduler(catalog, transfer, settings, led, httpc, ioutils.NewImageService(), nil)
}

func testAlbum(id, artist, title string, streamable bool, tracks ...*model.Track) *model.Album {
	a := &model.Album{
		ID:         id,
		Title:      title,
		Artist:     artist,
		Year:       "2020",
		Streamable: streamable,
		Tracks:     tracks,
	}
	for _, tr := range tracks {
		tr.Album = a
	}
	return a
}

func TestScheduler_MixedBatchCollectsFailuresAndFinishes(t *testing.T) {
	payload := []byte("mp3 payload")
	var flakyHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/flaky":
			w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
			if flakyHits.Add(1) == 1 {
				w.Write(payload[:3])
				return
			}
			w.Write(payload)
		default:
			w.Write(payload)
		}
	}))
	defer srv.Close()

	album := testAlbum("alb", "Artist", "Album", true)
	flaky := &model.Track{ID: "t-flaky", Title: "Flaky", Number: 1, MediaNumber: 1, Album: album}
	unavailable := &model.Track{ID: "t-down", Title: "Unavailable", Number: 2, MediaNumber: 1, Album: album}
	existing := &model.Track{ID: "t-have", Title: "Existing", Number: 3, MediaNumber: 1, Album: album}

	catalog := &stubCatalog{
		streams: map[string]*model.StreamDescriptor{
			"t-flaky": {URL: srv.URL + "/flaky", SamplingRate: 44.1},
			"t-have":  {URL: srv.URL + "/ok", SamplingRate: 44.1},
		},
		streamErr: map[string]error{
			"t-down": errors.New("HTTP 500: internal error"),
		},
	}

	settings := testSettings()
	sched := newTestScheduler(t, catalog, settings)

	root := t.TempDir()
	albumDir := filepath.Join(root, "Artist - Album")
	if err := os.MkdirAll(albumDir, 0755); err != nil {
		t.Fatal(err)
	}
	existingPath := filepath.Join(albumDir, "Existing.mp3")
	if err := os.WriteFile(existingPath, []byte("from an earlier run"), 0644); err != nil {
		t.Fatal(err)
	}

	items := []model.Item{
		model.TrackItem(flaky),
		model.TrackItem(unavailable),
		model.TrackItem(existing),
	}
	report, err := sched.Run(context.Background(), items, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	done, total := report.Progress()
	if done != 3 || total != 3 {
		t.Errorf("progress = %d/%d, want 3/3", done, total)
	}
	failures := report.Failures()
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1: %v", len(failures), failures)
	}
	if failures[0].Label != "Unavailable" {
		t.Errorf("failure label = %q, want Unavailable", failures[0].Label)
	}

	if _, err := os.Stat(filepath.Join(albumDir, "Flaky.mp3")); err != nil {
		t.Errorf("flaky track missing: %v", err)
	}
	got, err := os.ReadFile(existingPath)
	if err != nil || string(got) != "from an earlier run" {
		t.Errorf("existing file was touched: %q %v", got, err)
	}
}

func TestScheduler_AlbumExpandsIntoDiscFolders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	album := testAlbum("alb1", "Artist", "Doubles", true,
		&model.Track{ID: "d1t1", Title: "Opener", Number: 1, MediaNumber: 1},
		&model.Track{ID: "d2t1", Title: "Closer", Number: 1, MediaNumber: 2},
	)
	catalog := &stubCatalog{
		albums: map[string]*model.Album{"alb1": album},
		streams: map[string]*model.StreamDescriptor{
			"d1t1": {URL: srv.URL, SamplingRate: 44.1},
			"d2t1": {URL: srv.URL, SamplingRate: 44.1},
		},
	}

	sched := newTestScheduler(t, catalog, testSettings())

	root := t.TempDir()
	items := []model.Item{model.AlbumItem(&model.AlbumSummary{ID: "alb1", Title: "Doubles"})}
	report, err := sched.Run(context.Background(), items, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.OK() {
		t.Fatalf("failures: %v", report.Failures())
	}

	albumDir := filepath.Join(root, "Artist - Doubles")
	for _, want := range []string{
		filepath.Join(albumDir, "Disc 1", "01 Opener.mp3"),
		filepath.Join(albumDir, "Disc 2", "01 Closer.mp3"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("missing %s: %v", want, err)
		}
	}

	if sched.ledger.Len() != 3 {
		t.Errorf("ledger entries = %d, want album and both tracks", sched.ledger.Len())
	}
}

func TestScheduler_AlbumTrackFailureDoesNotAbortSiblings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	album := testAlbum("alb2", "Artist", "Half Up", true,
		&model.Track{ID: "bad", Title: "Broken", Number: 1, MediaNumber: 1},
		&model.Track{ID: "good", Title: "Fine", Number: 2, MediaNumber: 1},
	)
	catalog := &stubCatalog{
		albums: map[string]*model.Album{"alb2": album},
		streams: map[string]*model.StreamDescriptor{
			"good": {URL: srv.URL, SamplingRate: 44.1},
		},
		streamErr: map[string]error{
			"bad": errors.New("HTTP 500: internal error"),
		},
	}

	sched := newTestScheduler(t, catalog, testSettings())

	root := t.TempDir()
	report, err := sched.Run(context.Background(), []model.Item{
		model.AlbumItem(&model.AlbumSummary{ID: "alb2", Title: "Half Up"}),
	}, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Failures()) != 1 {
		t.Fatalf("failures = %v, want one for the broken track", report.Failures())
	}
	if _, err := os.Stat(filepath.Join(root, "Artist - Half Up", "02 Fine.mp3")); err != nil {
		t.Errorf("sibling track missing: %v", err)
	}
	// The album itself is incomplete and must not enter the ledger.
	if sched.ledger.Len() != 1 {
		t.Errorf("ledger entries = %d, want only the completed track", sched.ledger.Len())
	}
}

func TestScheduler_UnstreamableAlbumFails(t *testing.T) {
	album := testAlbum("alb3", "Artist", "Vaulted", false,
		&model.Track{ID: "x", Title: "X", Number: 1, MediaNumber: 1},
	)
	catalog := &stubCatalog{albums: map[string]*model.Album{"alb3": album}}

	sched := newTestScheduler(t, catalog, testSettings())
	report, err := sched.Run(context.Background(), []model.Item{
		model.AlbumItem(&model.AlbumSummary{ID: "alb3", Title: "Vaulted"}),
	}, t.TempDir())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	failures := report.Failures()
	if len(failures) != 1 || !errors.Is(failures[0].Err, qobuz.ErrNotStreamable) {
		t.Fatalf("failures = %v, want ErrNotStreamable", failures)
	}
	done, total := report.Progress()
	if done != 1 || total != 1 {
		t.Errorf("progress = %d/%d, want 1/1", done, total)
	}
}

func TestScheduler_SampleTrackSkippedNotFailed(t *testing.T) {
	album := testAlbum("alb4", "Artist", "Previews", true,
		&model.Track{ID: "s1", Title: "Teaser", Number: 1, MediaNumber: 1},
	)
	catalog := &stubCatalog{
		albums: map[string]*model.Album{"alb4": album},
		streams: map[string]*model.StreamDescriptor{
			"s1": {URL: "http://unused.invalid/stream", IsSample: true},
		},
	}

	sched := newTestScheduler(t, catalog, testSettings())
	root := t.TempDir()
	report, err := sched.Run(context.Background(), []model.Item{
		model.AlbumItem(&model.AlbumSummary{ID: "alb4", Title: "Previews"}),
	}, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.OK() {
		t.Fatalf("sample skip must not be a failure: %v", report.Failures())
	}
	if _, err := os.Stat(filepath.Join(root, "Artist - Previews", "01 Teaser.mp3")); !os.IsNotExist(err) {
		t.Error("sample must not produce a file")
	}
}

func TestScheduler_QualityNotMetWithoutFallbackFails(t *testing.T) {
	album := testAlbum("alb5", "Artist", "Hi-Res Claim", true,
		&model.Track{ID: "h1", Title: "H1", Number: 1, MediaNumber: 1},
	)
	catalog := &stubCatalog{
		albums: map[string]*model.Album{"alb5": album},
		streams: map[string]*model.StreamDescriptor{
			// A hi-res request answered with a 16-bit master.
			"h1": {URL: "http://unused.invalid/stream", BitDepth: 16, SamplingRate: 44.1},
		},
	}

	settings := testSettings()
	settings.Quality = quality.TierHiRes
	settings.QualityFallback = false
	sched := newTestScheduler(t, catalog, settings)

	report, err := sched.Run(context.Background(), []model.Item{
		model.AlbumItem(&model.AlbumSummary{ID: "alb5", Title: "Hi-Res Claim"}),
	}, t.TempDir())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	failures := report.Failures()
	if len(failures) != 1 || !errors.Is(failures[0].Err, ErrQualityNotMet) {
		t.Fatalf("failures = %v, want ErrQualityNotMet", failures)
	}
}
