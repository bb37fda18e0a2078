package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/phrasebot/internal/api"
	"github.com/example/phrasebot/internal/bot"
	"github.com/example/phrasebot/internal/config"
	"github.com/example/phrasebot/internal/database"
	"github.com/example/phrasebot/internal/excel"
	"github.com/example/phrasebot/internal/identity"
	"github.com/example/phrasebot/internal/phrase"
	"github.com/example/phrasebot/internal/progress"
	"github.com/example/phrasebot/internal/scheduler"
	"github.com/example/phrasebot/internal/speech"
	"github.com/example/phrasebot/internal/tags"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file")
	importPath := pflag.String("import", "", "import phrases from an .xlsx or .csv file and exit")
	importOwner := pflag.String("owner", "", "owner user account id for --import")
	importSheet := pflag.String("sheet", "", "sheet name for --import (default: first sheet)")
	broadcastNow := pflag.Bool("broadcast-now", false, "publish everyone's progress once and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger())

	if err := run(cfg, *importPath, *importOwner, *importSheet, *broadcastNow); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, importPath, importOwner, importSheet string, broadcastNow bool) error {
	// Cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	weekStart, err := progress.ParseWeekday(cfg.WeekStart)
	if err != nil {
		return err
	}

	var opts []phrase.Option
	if cfg.TTSEnabled {
		synthesizer, err := speech.NewGoogleSynthesizer(ctx)
		if err != nil {
			return err
		}
		defer synthesizer.Close()
		opts = append(opts, phrase.WithSynthesizer(synthesizer))
	}

	phrases := phrase.NewService(
		database.NewPhraseRepository(db),
		tags.NewResolver(database.NewTagRepository(db)),
		opts...)
	aggregator := progress.NewAggregator(database.NewProgressRepository(db),
		progress.WithLocation(loc),
		progress.WithWeekStart(weekStart))

	if importPath != "" {
		return importFile(ctx, phrases, importPath, importOwner, importSheet)
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	sched := scheduler.New(aggregator, publisher, scheduler.Config{
		At:       cfg.BroadcastAt,
		Location: loc,
		Topic:    cfg.ProgressTopic,
	})

	if broadcastNow {
		return sched.BroadcastNow(ctx)
	}

	if cfg.EnableScheduler {
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set, every API request will be rejected")
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHandler(phrases, aggregator), identity.NewJWTResolver(cfg.JWTSecret)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	// Give in-flight requests time to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("stopped")
	return nil
}

func newPublisher(cfg *config.Config) (scheduler.Publisher, error) {
	if cfg.TelegramToken == "" {
		slog.Info("TELEGRAM_BOT_TOKEN is not set, progress will be logged only")
		return scheduler.NewLogPublisher(slog.Default()), nil
	}
	botCfg, err := cfg.BotConfig()
	if err != nil {
		return nil, err
	}
	b, err := bot.New(botCfg)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func importFile(ctx context.Context, phrases *phrase.Service, path, ownerID, sheet string) error {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return errors.New("--owner must be a user account UUID when importing")
	}

	importCfg := excel.DefaultImportConfig()
	importCfg.FilePath = path
	importCfg.SheetName = sheet

	result, err := excel.ImportPhrases(ctx, phrases, owner, importCfg)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		slog.Warn("row skipped", "detail", msg)
	}
	slog.Info("import finished",
		"processed", result.TotalProcessed,
		"created", result.Created,
		"already_present", result.Skipped,
		"failed", len(result.Errors))
	return nil
}
