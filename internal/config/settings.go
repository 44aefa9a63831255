package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/lingion/qobuz-dl/internal/naming"
	"github.com/lingion/qobuz-dl/internal/quality"
)

// Settings holds all configuration options.
type Settings struct {
	// Credentials
	AppID         string `json:"app_id"`
	Secret        string `json:"secret"`
	UserID        string `json:"user_id"`
	UserAuthToken string `json:"user_auth_token"`

	// Download settings
	DownloadsPath        string `json:"downloads_path"`
	Quality              int    `json:"quality"`
	MaxWorkers           int    `json:"max_workers"`
	MaxRetries           int    `json:"max_retries"`
	RetryCooldownSeconds int    `json:"retry_cooldown_seconds"`

	// File naming
	FolderFormat      string `json:"folder_format"`
	TrackFormat       string `json:"track_format"`
	SingleTrackFormat string `json:"single_track_format"`

	// Cover art
	EmbedArt             bool `json:"embed_art"`
	EmbedArtMaxSize      int  `json:"embed_art_max_size"`
	CoverOriginalQuality bool `json:"og_cover"`
	NoCover              bool `json:"no_cover"`

	// Behavior flags
	AlbumsOnly       bool `json:"albums_only"`
	QualityFallback  bool `json:"quality_fallback"`
	SmartDiscography bool `json:"smart_discography"`
	NoM3U            bool `json:"no_m3u"`

	// Ledger
	LedgerPath string `json:"ledger_path"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		DownloadsPath:        "Qobuz Downloads",
		Quality:              quality.TierCD,
		MaxWorkers:           10,
		MaxRetries:           3,
		RetryCooldownSeconds: 3,

		FolderFormat:      naming.DefaultFolderFormat,
		TrackFormat:       naming.DefaultAlbumTrackFormat,
		SingleTrackFormat: naming.DefaultSingleTrackFormat,

		EmbedArtMaxSize: 1000,
		QualityFallback: true,

		LedgerPath: filepath.Join(Dir(), "ledger"),
	}
}

// RetryCooldown returns the wait between download attempts as a
// duration.
func (s *Settings) RetryCooldown() time.Duration {
	return time.Duration(s.RetryCooldownSeconds) * time.Second
}

// Dir returns the configuration directory under the XDG config home.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "qobuz-dl")
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads settings from a JSON file. A missing file yields the
// defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save writes settings to a JSON file, creating parent directories as
// needed.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
