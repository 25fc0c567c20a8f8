package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/recollect/recollect/internal/config"
	"github.com/recollect/recollect/internal/logging"
	"github.com/recollect/recollect/internal/pipeline"
	"github.com/recollect/recollect/internal/plex"
	"github.com/recollect/recollect/internal/radarr"
	"github.com/recollect/recollect/internal/refresher"
	"github.com/recollect/recollect/internal/snapshot"
	"github.com/recollect/recollect/internal/suggest"
	"github.com/recollect/recollect/internal/tmdb"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "recollect \"Movie Name\" [media-kind]",
	Short: "Curate library collections from a recently watched movie",
	Long: `recollect asks a generative text API for movies related to (and a
deliberate contrast with) a recently watched title, reconciles the
suggestions against the media library, queues acquisition of missing
titles, and persists the library-present subset for the collection
refresher.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mediaKind := "movie"
		if len(args) > 1 {
			mediaKind = args[1]
		}
		return runReconcile(cmd.Context(), args[0], mediaKind)
	},
}

// Execute runs the CLI and exits with 0 on success, 1 on failure and 130
// when interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&cfgFile,
		"config",
		"c",
		"",
		"path to config file",
	)
	rootCmd.SilenceUsage = true
}

// deps bundles the dependency objects, constructed once per process.
type deps struct {
	cfg       *config.Config
	library   *plex.Client
	store     *snapshot.Store
	suggester *suggest.Suggester
	requester *radarr.Requester
}

func buildDeps(verbose bool) (*deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	logging.Init(cfg.Logging)
	logging.WithRunID(uuid.NewString())

	var fallback radarr.MetadataSearcher
	if cfg.TMDB.APIKey != "" {
		fallback = tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.Timeout)
	}

	return &deps{
		cfg:     cfg,
		library: plex.NewClient(cfg.Plex.URL, cfg.Plex.Token, cfg.Plex.Library, cfg.Plex.Timeout),
		store:   snapshot.NewStore(cfg.Snapshots.Dir),
		suggester: suggest.New(
			suggest.NewClient(cfg.Suggest.BaseURL, cfg.Suggest.APIKey, cfg.Suggest.Model, cfg.Suggest.Timeout),
		),
		requester: radarr.NewRequester(
			radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey, cfg.Radarr.Timeout),
			fallback,
			cfg.Radarr.RootFolder,
			cfg.Radarr.QualityProfileID,
		),
	}, nil
}

func runReconcile(ctx context.Context, seed, mediaKind string) error {
	start := time.Now()

	d, err := buildDeps(false)
	if err != nil {
		return err
	}

	logging.Info().Str("seed", seed).Str("media_kind", mediaKind).Msg("reconcile starting")
	if mediaKind != "movie" {
		logging.Warn().Str("media_kind", mediaKind).Msg("only movie libraries are supported, proceeding with the movie library")
	}

	p := pipeline.New(d.suggester, d.library, d.requester, d.store, d.cfg.Suggest.MaxResults)

	// One flavor failing never blocks the other.
	failed := 0
	for _, flavor := range pipeline.Flavors() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		result, err := p.Reconcile(ctx, seed, flavor)
		if err != nil {
			logging.Error().Err(err).Str("flavor", flavor.Name).Msg("flavor reconcile failed")
			failed++
			continue
		}
		logging.Info().
			Str("flavor", flavor.Name).
			Int("found", result.Found).
			Int("missing", result.Missing).
			Bool("snapshot_written", result.SnapshotWritten).
			Int("acquisition_requested", result.Acquired).
			Msg("flavor summary")
	}

	logging.Info().Dur("elapsed", time.Since(start)).Msg("reconcile finished")

	if d.cfg.Refresh.AutoRun {
		logging.Info().Msg("auto-running collection refresher")
		refresher.New(d.library, d.store).RefreshAll(ctx, false)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if failed > 0 {
		return fmt.Errorf("%d flavor(s) failed", failed)
	}
	return nil
}
