package download

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/lingion/qobuz-dl/internal/audio"
	"github.com/lingion/qobuz-dl/internal/config"
	httpclient "github.com/lingion/qobuz-dl/internal/http"
	ioutils "github.com/lingion/qobuz-dl/internal/io"
	"github.com/lingion/qobuz-dl/internal/ledger"
	"github.com/lingion/qobuz-dl/internal/model"
	"github.com/lingion/qobuz-dl/internal/naming"
	"github.com/lingion/qobuz-dl/internal/qobuz"
)

// batch is one scheduler run: its items and the root they land under.
// Playlists get their own folder so the .m3u sits next to its tracks.
type batch struct {
	items    []model.Item
	root     string
	playlist bool
}

// Manager ties URL resolution and batch scheduling together behind one
// front-end-agnostic surface. Both the CLI and the TUI drive it the
// same way: Initialize with the user's input text, then Start.
type Manager struct {
	settings *config.Settings
	catalog  qobuz.Catalog
	sched    *Scheduler
	onEvent  func(Event)

	batches []batch
	labels  []string

	total     int64
	doneBase  atomic.Int64
	bytesBase atomic.Int64
}

// NewManager wires a full download engine from settings. onEvent may be
// nil.
func NewManager(settings *config.Settings, onEvent func(Event)) (*Manager, error) {
	httpc := httpclient.NewClient()
	catalog := qobuz.NewClient(httpc, settings.AppID, settings.Secret, settings.UserAuthToken)

	led, err := ledger.Open(settings.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	transfer := NewTransfer(httpc, audio.NewTagger(), settings.MaxRetries, settings.RetryCooldown(), onEvent)
	sched := NewScheduler(catalog, transfer, settings, led, httpc, ioutils.NewImageService(), onEvent)

	return &Manager{
		settings: settings,
		catalog:  catalog,
		sched:    sched,
		onEvent:  onEvent,
	}, nil
}

// Initialize extracts Qobuz URLs from text and expands each into
// schedulable items. Albums and tracks share one batch under the
// downloads root; every playlist gets its own batch and folder.
func (m *Manager) Initialize(ctx context.Context, text string) error {
	urls := qobuz.ExtractURLs(text)
	if len(urls) == 0 {
		return qobuz.ErrInvalidURL
	}

	main := batch{root: m.settings.DownloadsPath}
	var playlists []batch

	for _, raw := range urls {
		kind, id, err := qobuz.ParseURL(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", raw, err)
		}

		switch kind {
		case qobuz.KindAlbum:
			main.items = append(main.items, model.AlbumItem(&model.AlbumSummary{ID: id}))
			m.labels = append(m.labels, fmt.Sprintf("Album %s", id))

		case qobuz.KindTrack:
			track, err := m.catalog.TrackMetadata(ctx, id)
			if err != nil {
				return fmt.Errorf("track %s: %w", id, err)
			}
			main.items = append(main.items, model.TrackItem(track))
			m.labels = append(m.labels, fmt.Sprintf("%s - %s", track.Artist(), track.Title))

		case qobuz.KindArtist, qobuz.KindLabel:
			browse := m.catalog.ArtistAlbums
			if kind == qobuz.KindLabel {
				browse = m.catalog.LabelAlbums
			}
			name, releases, err := browse(ctx, id)
			if err != nil {
				return fmt.Errorf("%s %s: %w", kind, id, err)
			}
			if m.settings.SmartDiscography {
				releases = qobuz.SmartFilter(releases, qobuz.FilterOptions{
					IgnoreSinglesEPs: m.settings.AlbumsOnly,
				})
			}
			m.event(Event{
				Message: fmt.Sprintf("%s: %d release(s) queued", name, len(releases)),
				Level:   LevelInfo,
			})
			for _, r := range releases {
				main.items = append(main.items, model.AlbumItem(r))
				m.labels = append(m.labels, fmt.Sprintf("%s - %s", r.Artist, r.Title))
			}

		case qobuz.KindPlaylist:
			name, tracks, err := m.catalog.PlaylistTracks(ctx, id)
			if err != nil {
				return fmt.Errorf("playlist %s: %w", id, err)
			}
			pb := batch{
				root:     filepath.Join(m.settings.DownloadsPath, naming.SanitizeName(name)),
				playlist: true,
			}
			for _, t := range tracks {
				pb.items = append(pb.items, model.TrackItem(t))
			}
			playlists = append(playlists, pb)
			m.labels = append(m.labels, fmt.Sprintf("Playlist: %s (%d tracks)", name, len(tracks)))
		}
	}

	m.batches = nil
	if len(main.items) > 0 {
		m.batches = append(m.batches, main)
	}
	m.batches = append(m.batches, playlists...)

	m.total = 0
	for _, b := range m.batches {
		m.total += int64(len(b.items))
	}
	return nil
}

// Labels returns display names for the queued content, one per resolved
// URL entry.
func (m *Manager) Labels() []string {
	return m.labels
}

// Start runs every batch and returns the accumulated item failures.
// Only batch setup errors (destination creation) are returned as err.
func (m *Manager) Start(ctx context.Context) ([]Failure, error) {
	var failures []Failure
	for _, b := range m.batches {
		report, err := m.sched.Run(ctx, b.items, b.root)
		if err != nil {
			return failures, err
		}
		failures = append(failures, report.Failures()...)
		done, _ := report.Progress()
		m.doneBase.Add(done)
		m.bytesBase.Add(report.Bytes())

		if b.playlist && !m.settings.NoM3U && ctx.Err() == nil {
			if path, err := audio.WriteM3U(b.root); err != nil {
				m.event(Event{Message: fmt.Sprintf("Playlist file failed: %v", err), Level: LevelWarning})
			} else {
				m.event(Event{Message: fmt.Sprintf("Playlist written to %s", path), Level: LevelSuccess})
			}
		}
	}

	if swept, _ := ioutils.SweepTempFiles(m.settings.DownloadsPath); swept > 0 {
		m.event(Event{Message: fmt.Sprintf("Cleaned up %d stray temp file(s)", swept), Level: LevelVerbose})
	}
	return failures, nil
}

// Progress reports items completed, total items and bytes received,
// aggregated across batches. Safe to call while Start is running.
func (m *Manager) Progress() (done, total, bytes int64) {
	done = m.doneBase.Load()
	bytes = m.bytesBase.Load()
	if cur := m.sched.Current(); cur != nil {
		d, _ := cur.Progress()
		done += d
		bytes += cur.Bytes()
	}
	return done, m.total, bytes
}

func (m *Manager) event(e Event) {
	if m.onEvent != nil {
		m.onEvent(e)
	}
}
