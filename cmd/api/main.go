package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "aircnc/internal/adapters/http_server"
	"aircnc/internal/adapters/jwtauth"
	"aircnc/internal/adapters/mailer"
	"aircnc/internal/adapters/observability"
	redisad "aircnc/internal/adapters/redis"
	stripead "aircnc/internal/adapters/stripe"
	"aircnc/internal/app"
	"aircnc/internal/domain"
	"aircnc/internal/shared"
	"aircnc/internal/storage"
)

func main() {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// store
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := storage.Open(openCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store open failed")
	}

	// cache is optional: without redis every read goes to the store
	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; caching disabled")
		_ = rc.Close()
	} else {
		cache = rc
		defer rc.Close()
	}
	cancel()

	tokens, err := jwtauth.New(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer init failed")
	}

	var processor domain.PaymentProcessor = stripead.Unconfigured{}
	if cfg.StripeKey != "" {
		sc, err := stripead.New(cfg.StripeKey, stripead.Options{MaxRetries: 2})
		if err != nil {
			log.Fatal().Err(err).Msg("stripe client init failed")
		}
		processor = sc
	}

	var m domain.Mailer = mailer.Log{}
	if cfg.SMTPHost != "" {
		sm, err := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
		if err != nil {
			log.Fatal().Err(err).Msg("smtp init failed")
		}
		m = sm
	}
	dispatcher := app.NewDispatcher(m, cfg.NotifyWorkers, cfg.NotifyRPS, cfg.NotifyTimeout)

	users := app.NewUserService(store)
	handlers := &server.Handlers{
		Tokens:    tokens,
		Rooms:     app.NewRoomService(store, cache, cfg.CacheTTL),
		Users:     users,
		Bookings:  app.NewBookingService(store, dispatcher),
		Payments:  app.NewPaymentService(processor),
		Strict:    cfg.StrictAuth,
		JWTPerMin: cfg.JWTPerMin,
	}

	// http
	srv := server.New(server.Options{CORSOrigins: cfg.CORSOrigins, TrustProxy: cfg.TrustProxy})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(handlers)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Bool("strict_auth", cfg.StrictAuth).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// after the listener is closed no new bookings can dispatch
	if err := dispatcher.Close(shutCtx); err != nil {
		log.Warn().Err(err).Msg("pending notifications abandoned")
	}
	if err := store.Close(shutCtx); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	log.Info().Msg("bye")
}
