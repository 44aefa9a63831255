package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lingion/qobuz-dl/internal/config"
	"github.com/lingion/qobuz-dl/internal/download"
	ioutils "github.com/lingion/qobuz-dl/internal/io"
	"github.com/lingion/qobuz-dl/internal/qobuz"
	"github.com/lingion/qobuz-dl/internal/quality"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "qobuz-dl",
		Short:         "The complete lossless and hi-res music downloader for Qobuz",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show verbose output")

	root.AddCommand(newDlCommand(), newResetCommand(), newPurgeCommand())

	if err := root.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newDlCommand() *cobra.Command {
	var (
		output     string
		tier       int
		embedArt   bool
		ogCover    bool
		noCover    bool
		albumsOnly bool
		noFallback bool
		smartDisco bool
		noM3U      bool
		workers    int
		retries    int
	)

	cmd := &cobra.Command{
		Use:   "dl <url>...",
		Short: "Download albums, tracks, artists, labels and playlists by URL",
		Long: "Download content from Qobuz URLs. Arguments may be URLs, free text\n" +
			"containing URLs, or paths to text files holding URLs.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if settings.AppID == "" || settings.Secret == "" {
				return errors.New("missing credentials, run: qobuz-dl reset --app-id ... --secret ... --token ...")
			}

			if output != "" {
				settings.DownloadsPath = output
			}
			if cmd.Flags().Changed("quality") {
				settings.Quality = tier
			}
			if embedArt {
				settings.EmbedArt = true
			}
			if ogCover {
				settings.CoverOriginalQuality = true
			}
			if noCover {
				settings.NoCover = true
			}
			if albumsOnly {
				settings.AlbumsOnly = true
			}
			if noFallback {
				settings.QualityFallback = false
			}
			if smartDisco {
				settings.SmartDiscography = true
			}
			if noM3U {
				settings.NoM3U = true
			}
			if workers > 0 {
				settings.MaxWorkers = workers
			}
			if retries > 0 {
				settings.MaxRetries = retries
			}

			return run(cmd.Context(), settings, gatherInput(args))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "download directory (overrides config)")
	cmd.Flags().IntVarP(&tier, "quality", "q", quality.TierCD, "quality tier (5, 6, 7 or 27)")
	cmd.Flags().BoolVarP(&embedArt, "embed-art", "e", false, "embed cover art into files")
	cmd.Flags().BoolVar(&ogCover, "og-cover", false, "download cover art at original quality")
	cmd.Flags().BoolVar(&noCover, "no-cover", false, "skip cover art entirely")
	cmd.Flags().BoolVar(&albumsOnly, "albums-only", false, "skip singles and EPs in artist/label listings")
	cmd.Flags().BoolVar(&noFallback, "no-fallback", false, "fail instead of accepting a lower quality")
	cmd.Flags().BoolVarP(&smartDisco, "smart-discography", "s", false, "filter out collaborations and compilations from discographies")
	cmd.Flags().BoolVar(&noM3U, "no-m3u", false, "skip .m3u generation for playlists")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent download workers (overrides config)")
	cmd.Flags().IntVar(&retries, "retries", 0, "download attempts per file (overrides config)")

	return cmd
}

func newResetCommand() *cobra.Command {
	var appID, secret, token, userID string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Rewrite the configuration file with defaults and the given credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.DefaultSettings()
			settings.AppID = appID
			settings.Secret = secret
			settings.UserAuthToken = token
			settings.UserID = userID
			if err := settings.Save(configPath); err != nil {
				return err
			}
			color.Green("Config written to %s", configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app-id", "", "Qobuz application id")
	cmd.Flags().StringVar(&secret, "secret", "", "Qobuz application secret")
	cmd.Flags().StringVar(&token, "token", "", "Qobuz user auth token")
	cmd.Flags().StringVar(&userID, "user-id", "", "Qobuz user id")

	return cmd
}

func newPurgeCommand() *cobra.Command {
	var clearLedger bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove stray temp files left by interrupted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}

			removed, err := ioutils.SweepTempFiles(settings.DownloadsPath)
			if err != nil && !os.IsNotExist(err) {
				return err
			}
			color.Green("Removed %d temp file(s)", removed)

			if clearLedger {
				if err := os.Remove(settings.LedgerPath); err != nil && !os.IsNotExist(err) {
					return err
				}
				color.Green("Ledger cleared")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearLedger, "ledger", false, "also delete the download history ledger")

	return cmd
}

// gatherInput joins command arguments into one text blob. An argument
// that names a readable file contributes its contents.
func gatherInput(args []string) string {
	var text strings.Builder
	for _, arg := range args {
		if data, err := os.ReadFile(arg); err == nil {
			text.Write(data)
		} else {
			text.WriteString(arg)
		}
		text.WriteByte('\n')
	}
	return text.String()
}

func run(ctx context.Context, settings *config.Settings, input string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	manager, err := download.NewManager(settings, func(e download.Event) {
		if e.Level == download.LevelVerbose && !verbose {
			return
		}
		switch e.Level {
		case download.LevelError:
			color.Red(e.Message)
		case download.LevelWarning:
			color.Yellow(e.Message)
		case download.LevelSuccess:
			color.Green(e.Message)
		default:
			fmt.Println(e.Message)
		}
	})
	if err != nil {
		return err
	}

	if err := manager.Initialize(ctx, input); err != nil {
		if errors.Is(err, qobuz.ErrInvalidURL) {
			return fmt.Errorf("no Qobuz URLs found in input")
		}
		return err
	}

	failures, err := manager.Start(ctx)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		fmt.Println("\nDownload cancelled.")
		os.Exit(130)
	}

	done, total, bytes := manager.Progress()
	if len(failures) > 0 {
		color.Red("\n%d item(s) failed:", len(failures))
		for _, f := range failures {
			color.Red("  %s: %v", f.Label, f.Err)
		}
		fmt.Println("Re-run the same command to retry; finished files are skipped.")
		os.Exit(1)
	}

	color.Green("\nDone. %d/%d item(s), %.2f MB received.", done, total, float64(bytes)/1024/1024)
	return nil
}
