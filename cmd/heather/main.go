package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"heather-backend/config"
	"heather-backend/internal/cli"
	supabaserepo "heather-backend/internal/repository/supabase"
	"heather-backend/internal/session"
	"heather-backend/pkg/logger"
	"heather-backend/pkg/redis"
	"heather-backend/pkg/security"
	"heather-backend/pkg/supabase"

	"go.uber.org/zap"
)

func main() {
	account := flag.String("account", "default", "name under which the session is stored in Redis")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	// 2. Setup Logger (stderr keeps logs out of the screens)
	logger.InitWithWriter(os.Stderr, cfg.LogLevel)

	zl, err := zap.NewProduction()
	if err != nil {
		zl = zap.NewNop()
	}
	audit := security.NewSecurityLogger(zl, "heather-cli", cfg.AppEnv)
	defer audit.Sync()

	// 3. Session storage: Redis survives restarts, memory does not
	var storage supabase.SessionStorage = supabase.NewMemoryStorage()
	if err := redis.Initialize(redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
		if !errors.Is(err, redis.ErrNotConfigured) {
			logger.Log.Warn("Redis unavailable, session will not persist", "error", err)
		}
	} else {
		storage = supabase.NewRedisStorage(redis.Client(), *account)
	}
	defer redis.Close()

	// 4. Supabase client and profile store
	client, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey,
		supabase.WithStorage(storage),
		supabase.WithLogger(logger.Get()),
	)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cli.NewSyncWriter(os.Stdout)
	nav := cli.NewNavigator(out)

	controller := session.NewController(client, supabaserepo.NewProfileStore(client), nav, session.Config{
		ProfileTimeout: cfg.ProfileFetchTimeout,
		RedirectTo:     cfg.SignupRedirectURL(),
		Logger:         logger.Get(),
		Audit:          audit,
	})
	if err := controller.Start(ctx); err != nil {
		log.Fatalf("%v", err)
	}
	defer controller.Close()

	app := cli.NewApp(controller, nav, cli.NewPrompter(os.Stdin, out), out)
	if err := app.Run(ctx); err != nil {
		logger.Log.Error("Client stopped", "error", err)
		os.Exit(1)
	}
}
