package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/pengingat/internal/ai"
	"github.com/hray3182/pengingat/internal/bot"
	"github.com/hray3182/pengingat/internal/bot/handlers"
	"github.com/hray3182/pengingat/internal/config"
	"github.com/hray3182/pengingat/internal/database"
	"github.com/hray3182/pengingat/internal/delivery"
	"github.com/hray3182/pengingat/internal/logger"
	"github.com/hray3182/pengingat/internal/repository"
	"github.com/hray3182/pengingat/internal/scheduler"
	"github.com/hray3182/pengingat/internal/timeparse"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	loc, _ := cfg.Location()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open reminder store")
	}
	defer closeStore()

	clk := clock.New()
	repo, err := repository.Open(ctx, store, clk, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load reminders")
	}

	// The LLM resolver is optional and only consulted after the built-in phrases.
	var opts []timeparse.Option
	if cfg.AIAPIKey != "" {
		opts = append(opts, timeparse.WithFallback(timeparse.ResolverMatcher(ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel))))
		log.Info().Str("model", cfg.AIModel).Msg("AI date resolver enabled")
	}
	parser := timeparse.New(opts...)

	// Long polling needs its own client; the delivery client has a hard timeout.
	updatesAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Telegram API")
	}
	deliveryAPI, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint,
		&http.Client{Timeout: cfg.DeliveryTimeout})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Telegram delivery API")
	}
	log.Info().Str("account", updatesAPI.Self.UserName).Msg("authorized on Telegram")

	gateway := delivery.NewTelegramGateway(deliveryAPI, cfg.DeliveryRate, log)
	sched := scheduler.New(repo, gateway, clk, loc, log,
		scheduler.WithInterval(cfg.TickInterval),
		scheduler.WithDeliveryTimeout(cfg.DeliveryTimeout),
	)
	go sched.Run(ctx)

	h := handlers.New(repo, parser, clk, loc, log)
	h.OnChange(sched.Notify)
	b := bot.New(updatesAPI, h, log)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down")
		cancel()
	}()

	log.Info().Str("store", cfg.StoreDriver).Str("tz", loc.String()).Msg("starting bot")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bot stopped")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.Snapshotter, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := repository.OpenSQLite(ctx, cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURI, log)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info().Msg("database migrations completed")
		return repository.NewPostgresSnapshotter(db.Pool), db.Close, nil

	default:
		s, err := repository.NewFileSnapshotter(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}
