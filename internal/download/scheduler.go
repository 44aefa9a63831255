package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lingion/qobuz-dl/internal/config"
	httpclient "github.com/lingion/qobuz-dl/internal/http"
	ioutils "github.com/lingion/qobuz-dl/internal/io"
	"github.com/lingion/qobuz-dl/internal/ledger"
	"github.com/lingion/qobuz-dl/internal/model"
	"github.com/lingion/qobuz-dl/internal/naming"
	"github.com/lingion/qobuz-dl/internal/qobuz"
	"github.com/lingion/qobuz-dl/internal/quality"
)

// coverFileName is the sidecar cover file written once per album folder.
const coverFileName = "cover.jpg"

// ErrQualityNotMet marks an album refused because the catalog could not
// deliver the requested tier and fallback is disabled.
var ErrQualityNotMet = errors.New("requested quality not available")

// Scheduler fans items out across a bounded worker pool and collects
// per-item outcomes. One item, one task: albums are expanded and their
// tracks processed sequentially inside the task that claimed them.
type Scheduler struct {
	catalog  qobuz.Catalog
	transfer *Transfer
	settings *config.Settings
	ledger   *ledger.Ledger
	http     *httpclient.Client
	images   *ioutils.ImageService
	onEvent  func(Event)

	current atomic.Pointer[Report]
}

// NewScheduler wires the download engine together. onEvent may be nil.
func NewScheduler(catalog qobuz.Catalog, transfer *Transfer, settings *config.Settings, led *ledger.Ledger, http *httpclient.Client, images *ioutils.ImageService, onEvent func(Event)) *Scheduler {
	return &Scheduler{
		catalog:  catalog,
		transfer: transfer,
		settings: settings,
		ledger:   led,
		http:     http,
		images:   images,
		onEvent:  onEvent,
	}
}

// Current returns the report of the run in progress, or nil when no run
// is active. The UI layer polls it for the progress counter.
func (s *Scheduler) Current() *Report {
	return s.current.Load()
}

// Run processes every item in the batch and returns the accumulated
// report. Item failures are recorded, never propagated; the only error
// Run itself returns is a failure to create the destination root.
func (s *Scheduler) Run(ctx context.Context, items []model.Item, destRoot string) (*Report, error) {
	if err := ioutils.EnsureDir(destRoot); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destRoot, err)
	}

	report := newReport(len(items))
	s.current.Store(report)
	defer s.current.Store(nil)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.MaxWorkers)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			// The counter moves exactly once per item, after
			// everything else, whatever the outcome.
			defer report.advance()

			var err error
			switch item.Kind() {
			case model.KindAlbum:
				err = s.processAlbum(gctx, item.Album().ID, destRoot, report)
			case model.KindTrack:
				err = s.processSingleTrack(gctx, item.Track(), destRoot, i, report)
			}
			if err != nil {
				report.fail(item.Label(), err)
				s.event(Event{
					Message: fmt.Sprintf("Failed %s: %v", item.Label(), err),
					Level:   LevelError,
				})
			}
			return nil
		})
	}

	g.Wait()
	return report, nil
}

// processAlbum expands an album summary and transfers its tracks one by
// one inside the current worker slot. A track failure is recorded and
// the loop continues with the next track.
func (s *Scheduler) processAlbum(ctx context.Context, albumID, destRoot string, report *Report) error {
	album, err := s.catalog.AlbumMetadata(ctx, albumID)
	if err != nil {
		return err
	}
	if !album.Streamable {
		return qobuz.ErrNotStreamable
	}
	if len(album.Tracks) == 0 {
		return errors.New("album has no tracks")
	}

	neg := quality.NewNegotiator(s.catalog, s.settings.Quality)
	q := neg.Negotiate(ctx, album.Tracks[0].ID)
	if !q.Met && !s.settings.QualityFallback {
		return fmt.Errorf("%w: %s delivered instead", ErrQualityNotMet, q.Format)
	}

	dir, err := naming.AlbumFolder(destRoot, s.settings.FolderFormat, naming.AlbumContext(album, q))
	if err != nil {
		return err
	}
	if err := ioutils.EnsureDir(dir); err != nil {
		return err
	}

	s.event(Event{
		Message: fmt.Sprintf("Downloading %s - %s [%s]", album.Artist, album.DisplayTitle(), q.Format),
		Level:   LevelInfo,
	})

	artwork := s.fetchAlbumCover(ctx, album, dir)

	ext := quality.Extension(s.settings.Quality)
	multiDisc := album.MultiDisc()
	done := 0
	for i, track := range album.Tracks {
		trackDir := dir
		if multiDisc {
			trackDir = filepath.Join(dir, naming.DiscFolder(track.MediaNumber))
			if err := ioutils.EnsureDir(trackDir); err != nil {
				report.fail(trackLabel(album, track), err)
				continue
			}
		}

		status, err := s.transferTrack(ctx, track, trackDir, s.settings.TrackFormat, ext, i, false, artwork, "", "", report)
		if err != nil {
			report.fail(trackLabel(album, track), err)
			continue
		}
		s.reportStatus(status, track)
		done++
	}

	if done == len(album.Tracks) {
		if err := s.ledger.Record(album.ID); err != nil {
			s.event(Event{Message: fmt.Sprintf("Ledger write failed: %v", err), Level: LevelWarning})
		}
	}
	return nil
}

// processSingleTrack transfers one standalone track into its own album
// folder, with a sidecar cover instead of a shared album one.
func (s *Scheduler) processSingleTrack(ctx context.Context, track *model.Track, destRoot string, ordinal int, report *Report) error {
	if track.Album != nil && !track.Album.Streamable {
		return qobuz.ErrNotStreamable
	}

	neg := quality.NewNegotiator(s.catalog, s.settings.Quality)
	q := neg.Negotiate(ctx, track.ID)
	if !q.Met && !s.settings.QualityFallback {
		return fmt.Errorf("%w: %s delivered instead", ErrQualityNotMet, q.Format)
	}

	dir, err := naming.AlbumFolder(destRoot, s.settings.FolderFormat, naming.AlbumContext(track.Album, q))
	if err != nil {
		return err
	}
	if err := ioutils.EnsureDir(dir); err != nil {
		return err
	}

	sideArtURL, sideArtPath := "", ""
	if !s.settings.NoCover && track.Album != nil && track.Album.ImageURL != "" {
		sideArtURL = qobuz.CoverURL(track.Album.ImageURL, s.settings.CoverOriginalQuality)
		sideArtPath = filepath.Join(dir, coverFileName)
	}

	var artwork []byte
	if s.settings.EmbedArt && sideArtURL != "" {
		artwork = s.prepareArtwork(ctx, sideArtURL)
	}

	ext := quality.Extension(s.settings.Quality)
	status, err := s.transferTrack(ctx, track, dir, s.settings.SingleTrackFormat, ext, ordinal, true, artwork, sideArtURL, sideArtPath, report)
	if err != nil {
		return err
	}
	s.reportStatus(status, track)
	return nil
}

// transferTrack resolves the stream descriptor and runs one transfer.
// A completed download is recorded in the ledger.
func (s *Scheduler) transferTrack(ctx context.Context, track *model.Track, dir, template, ext string, ordinal int, standalone bool, artwork []byte, sideArtURL, sideArtPath string, report *Report) (Status, error) {
	desc, err := s.catalog.StreamInfo(ctx, track.ID, s.settings.Quality)
	if err != nil {
		return 0, err
	}

	finalPath, err := naming.TrackPath(dir, template, naming.TrackContext(track, desc), ext)
	if err != nil {
		return 0, err
	}

	status, err := s.transfer.Run(ctx, Request{
		Descriptor:  desc,
		Dir:         dir,
		FinalPath:   finalPath,
		Ordinal:     ordinal,
		Track:       track,
		Album:       track.Album,
		Standalone:  standalone,
		Artwork:     artwork,
		SideArtURL:  sideArtURL,
		SideArtPath: sideArtPath,
		OnBytes:     report.addBytes,
	})
	if err != nil {
		return 0, err
	}

	if status == StatusDownloaded {
		if err := s.ledger.Record(track.ID); err != nil {
			s.event(Event{Message: fmt.Sprintf("Ledger write failed: %v", err), Level: LevelWarning})
		}
	}
	return status, nil
}

// fetchAlbumCover writes the album's sidecar cover.jpg once and returns
// the bytes to embed into tags when embedding is enabled. All failures
// degrade to no artwork.
func (s *Scheduler) fetchAlbumCover(ctx context.Context, album *model.Album, dir string) []byte {
	if s.settings.NoCover || album.ImageURL == "" {
		return nil
	}

	coverURL := qobuz.CoverURL(album.ImageURL, s.settings.CoverOriginalQuality)
	coverPath := filepath.Join(dir, coverFileName)

	var data []byte
	if existing, err := os.ReadFile(coverPath); err == nil {
		data = existing
	} else {
		data, err = s.http.Get(ctx, coverURL)
		if err != nil {
			s.event(Event{Message: fmt.Sprintf("Cover art fetch failed: %v", err), Level: LevelWarning})
			return nil
		}
		if err := os.WriteFile(coverPath, data, 0644); err != nil {
			s.event(Event{Message: fmt.Sprintf("Cover art write failed: %v", err), Level: LevelWarning})
		}
	}

	if !s.settings.EmbedArt {
		return nil
	}
	prepared, err := s.images.PrepareCover(data, s.settings.EmbedArtMaxSize)
	if err != nil {
		s.event(Event{Message: fmt.Sprintf("Cover art resize failed: %v", err), Level: LevelWarning})
		return nil
	}
	return prepared
}

// prepareArtwork fetches and resizes embeddable artwork for a single
// track. Failures degrade to no artwork.
func (s *Scheduler) prepareArtwork(ctx context.Context, coverURL string) []byte {
	data, err := s.http.Get(ctx, coverURL)
	if err != nil {
		s.event(Event{Message: fmt.Sprintf("Cover art fetch failed: %v", err), Level: LevelWarning})
		return nil
	}
	prepared, err := s.images.PrepareCover(data, s.settings.EmbedArtMaxSize)
	if err != nil {
		s.event(Event{Message: fmt.Sprintf("Cover art resize failed: %v", err), Level: LevelWarning})
		return nil
	}
	return prepared
}

func (s *Scheduler) reportStatus(status Status, track *model.Track) {
	switch status {
	case StatusDownloaded:
		s.event(Event{Message: fmt.Sprintf("Completed %s", track.Title), Level: LevelSuccess})
	case StatusAlreadyExists:
		s.event(Event{Message: fmt.Sprintf("Already exists: %s", track.Title), Level: LevelVerbose})
	case StatusSkippedSample:
		s.event(Event{Message: fmt.Sprintf("Demo track, skipping: %s", track.Title), Level: LevelWarning})
	}
}

func (s *Scheduler) event(e Event) {
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

func trackLabel(album *model.Album, track *model.Track) string {
	return fmt.Sprintf("%s [%02d] - %s", album.DisplayTitle(), track.Number, track.Title)
}
