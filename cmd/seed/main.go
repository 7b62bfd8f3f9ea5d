package main

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"aircnc/internal/adapters/observability"
	redisad "aircnc/internal/adapters/redis"
	"aircnc/internal/app"
	"aircnc/internal/domain"
	"aircnc/internal/shared"
	"aircnc/internal/storage"
)

// seed prepares the configured store and loads listings from SEED_FILE
// (default cmd/seed/rooms.json). Each room is created through RoomService so
// the rooms cache is invalidated exactly as the API would do it.
func main() {
	ctx := context.Background()
	_ = godotenv.Load()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	file := os.Getenv("SEED_FILE")
	if file == "" {
		file = "cmd/seed/rooms.json"
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("read seed file")
	}
	var rooms []domain.Room
	if err := json.Unmarshal(raw, &rooms); err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("decode seed file")
	}

	log.Info().
		Str("driver", cfg.StoreDriver).
		Int("rooms", len(rooms)).
		Int("workers", cfg.SeedWorkers).
		Msg("seed starting")

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}
	defer store.Close(ctx)

	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rc.Ping(ctx); err == nil {
		cache = rc
		defer rc.Close()
	}
	svc := app.NewRoomService(store, cache, cfg.CacheTTL)
	users := app.NewUserService(store)

	sem := semaphore.NewWeighted(int64(max(cfg.SeedWorkers, 1)))
	var (
		wg     sync.WaitGroup
		failed atomic.Int64
	)
	for _, r := range rooms {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(r domain.Room) {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := users.Upsert(ctx, r.Host.Email, domain.User{Role: domain.RoleHost, Name: r.Host.Name, Image: r.Host.Image}); err != nil {
				failed.Add(1)
				log.Warn().Str("host", r.Host.Email).Err(err).Msg("host upsert failed")
				return
			}
			res, err := svc.Create(ctx, r.Host.Email, r)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("title", r.Title).Err(err).Msg("room insert failed")
				return
			}
			log.Info().Str("id", res.InsertedID).Str("title", r.Title).Msg("room seeded")
		}(r)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Fatal().Int64("failed", n).Msg("seed finished with errors")
	}
	log.Info().Msg("seed completed")
}
