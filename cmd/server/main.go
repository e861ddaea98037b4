package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/landlord-game/landlord/internal/cache"
	"github.com/landlord-game/landlord/internal/database"
	"github.com/landlord-game/landlord/internal/server"
	"github.com/landlord-game/landlord/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file, using process environment")
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	addr := envOr("LISTEN_ADDR", ":8080")
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logrus.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it the server runs on the in-memory store,
	// single node, no historian.
	var st store.Store = store.NewMemory()
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		if err := cache.Init(ctx, redisAddr, os.Getenv("REDIS_PASSWORD")); err != nil {
			logrus.WithError(err).Fatal("redis init failed")
		}
		st = store.NewRedis(cache.Rdb)
	}

	// Postgres is optional: without it finished games are not archived.
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		if err := database.Init(ctx, dsn); err != nil {
			logrus.WithError(err).Fatal("postgres init failed")
		}
		defer database.DB.Close()
		if cache.Rdb != nil {
			go database.RunHistorian(ctx)
		}
	}

	gw := server.New(st, []byte(secret))
	httpServer := &http.Server{Addr: addr, Handler: gw.Handler()}

	go func() {
		<-ctx.Done()
		logrus.Info("shutting down")
		_ = httpServer.Shutdown(context.Background())
	}()

	logrus.WithField("addr", addr).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Fatal("server exited")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
