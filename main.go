package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mreshnaan/subtitle-harvester/internal/archive"
	"github.com/mreshnaan/subtitle-harvester/internal/cache"
	"github.com/mreshnaan/subtitle-harvester/internal/collector"
	"github.com/mreshnaan/subtitle-harvester/internal/config"
	"github.com/mreshnaan/subtitle-harvester/internal/metrics"
	"github.com/mreshnaan/subtitle-harvester/internal/navigator"
	"github.com/mreshnaan/subtitle-harvester/internal/resolver"
	"github.com/mreshnaan/subtitle-harvester/internal/sink"
	"github.com/mreshnaan/subtitle-harvester/internal/staging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "subtitle-harvester",
		Short:         "Harvest subtitle text from a movie catalog into tabular chunks",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := cmd.Flags()
	flags.String("base-url", "", "base catalog listing URL")
	flags.Int("max-items", 0, "maximum number of listings to harvest")
	flags.String("language", "", "target subtitle language label")
	flags.String("out", "", "output CSV path")
	flags.String("schema", "", "output schema: chunks or listings")
	flags.String("staging-dir", "", "staging directory for downloaded archives")

	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("max_items", flags.Lookup("max-items"))
	_ = viper.BindPFlag("language", flags.Lookup("language"))
	_ = viper.BindPFlag("output.path", flags.Lookup("out"))
	_ = viper.BindPFlag("output.schema", flags.Lookup("schema"))
	_ = viper.BindPFlag("staging_dir", flags.Lookup("staging-dir"))

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	// Reload so flag values bound above override file and env settings.
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := config.GetLogger()

	if cfg.BaseURL == "" {
		return errors.New("base catalog URL is required (--base-url or APP_BASE_URL)")
	}
	schema, err := sink.ParseSchema(cfg.Output.Schema)
	if err != nil {
		return err
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.Warn().Err(err).Msg("Sentry init failed, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.Metrics.Enabled {
		srv := metrics.NewHTTPServer(cfg.Metrics.Address, cfg.Metrics.Port)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pages, err := cache.NewFromConfig(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("Page cache unavailable, continuing without it")
		pages = nil
	}

	httpClient := navigator.NewHTTPClient(cfg)
	nav := navigator.NewHTTP(cfg, httpClient, pages)
	defer nav.Close()

	store, err := staging.NewStore(cfg, staging.NewHTTPDownloader(httpClient, cfg.UserAgent))
	if err != nil {
		sentry.CaptureException(err)
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info().
		Str("baseURL", cfg.BaseURL).
		Int("maxItems", cfg.MaxItems).
		Str("language", cfg.Language).
		Str("schema", string(schema)).
		Msg("Starting harvest run")

	col := collector.New(cfg, nav, resolver.New(cfg.Language), store, archive.New())
	results, err := col.Run(ctx)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}

	if err := sink.NewCSV(cfg.Output.Path, schema).Write(results); err != nil {
		sentry.CaptureException(err)
		return err
	}

	return nil
}
