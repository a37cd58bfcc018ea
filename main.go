package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tifye/bungeoppang/api"
	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/game"
	"github.com/tifye/bungeoppang/loop"
	"github.com/tifye/bungeoppang/shop"
	"github.com/tifye/bungeoppang/storage"
	"github.com/tifye/bungeoppang/stream"
)

func main() {
	config := viper.New()
	config.AutomaticEnv()

	err := godotenv.Load()
	if err != nil {
		log.Warn("could not load .env file", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	config.SetDefault("LOG_LEVEL", "debug")
	level, err := log.ParseLevel(config.GetString("LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stdout, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	err = run(ctx, logger, config)
	if err != nil {
		logger.Error(err)
	}
}

func setDefaults(config *viper.Viper) {
	config.SetDefault("PORT", 6565)
	config.SetDefault("SAVE_DB_PATH", "./data/bungeoppang.db")
	config.SetDefault("SAVE_SLOT", "main")
	config.SetDefault("FRAME_HZ", 60)
	config.SetDefault("BROADCAST_HZ", 10)
	config.SetDefault("SEED1", 0)
	config.SetDefault("SEED2", 0)
}

func run(ctx context.Context, logger *log.Logger, config *viper.Viper) error {
	setDefaults(config)
	port := config.GetInt("PORT")

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("net listen: %s", err)
	}

	deps, cfs, err := initDependencies(logger, config)
	if err != nil {
		return fmt.Errorf("init deps: %s", err)
	}
	defer func() {
		if err := cfs.Cleanup(); err != nil {
			logger.Error("cleanup funcs", "err", err)
		}
	}()

	runner := loop.NewRunner(
		logger.WithPrefix("loop"),
		deps.Game,
		config.GetInt("FRAME_HZ"),
		config.GetInt("BROADCAST_HZ"),
		func(st game.State) {
			if err := deps.WSMux.Broadcast("frame", st, nil); err != nil {
				logger.Error("broadcast frame", "err", err)
			}
		},
	)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := runner.Run(ctx); err != nil {
			logger.Error("game loop", "err", err)
		}
	}()

	s := api.NewServer(logger, config, deps)
	go func() {
		logger.Printf("serving on %s", ln.Addr())
		err := s.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	<-loopDone
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.Shutdown(closeCtx)
	if err != nil {
		return fmt.Errorf("server shutdown: %s", err)
	}

	return nil
}

func initDependencies(logger *log.Logger, config *viper.Viper) (deps *api.ServerDependencies, cfs CleanupFuncs, err error) {
	defer func() {
		if err == nil {
			return
		}

		if ferr := cfs.Cleanup(); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}()

	slot := config.GetString("SAVE_SLOT")
	assert.AssertNotEmpty(slot)

	dbPath := config.GetString("SAVE_DB_PATH")
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, cfs, fmt.Errorf("create save dir: %s", err)
		}
	}
	db, err := storage.InitDuckDB(dbPath)
	if err != nil {
		return nil, cfs, fmt.Errorf("init duckdb: %s", err)
	}
	cfs.DeferClose("duckdb", db)

	saves := storage.NewSaveStore(db)
	store := storage.NewCachedStore(logger.WithPrefix("saves"), saves)

	seed1, seed2 := config.GetUint64("SEED1"), config.GetUint64("SEED2")
	if seed1 == 0 && seed2 == 0 {
		seed1, seed2 = rand.Uint64(), rand.Uint64()
	}
	logger.Info("shop seeded", "seed1", seed1, "seed2", seed2)

	svc := game.NewService(logger.WithPrefix("game"), store, slot, shop.NewRand(seed1, seed2))
	if err := svc.Restore(context.Background()); err != nil {
		return nil, cfs, fmt.Errorf("restore save: %s", err)
	}

	mux := stream.NewMux(logger.WithPrefix("mux"), shop.NewRand(seed2, seed1))
	stream.RegisterActions(mux, svc)
	mux.RegisterConnectHook(func(id stream.ID, _ *stream.User) {
		if err := mux.Send(id, "state", svc.State()); err != nil {
			logger.Error("send state", "id", id, "err", err)
		}
	})
	// the sink runs under the service lock, so it must not read state back
	svc.SetEventSink(func(kind string, payload any) {
		if err := mux.Broadcast(kind, payload, nil); err != nil {
			logger.Error("broadcast event", "kind", kind, "err", err)
		}
	})

	secret := []byte(config.GetString("SESSION_SECRET"))
	if len(secret) == 0 {
		logger.Warn("SESSION_SECRET not set, player sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &api.ServerDependencies{
		Game:         svc,
		History:      saves,
		Slot:         slot,
		WSMux:        mux,
		SessionStore: sessionStore,
	}, cfs, nil
}
