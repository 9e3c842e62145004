package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/app"
	"mehnda-chinji/internal/config"
	"mehnda-chinji/internal/devapi"
)

func main() {
	configFile := flag.String("config", "", "config file (default ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.Log.Level)

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	backend, err := devapi.NewServer(ctx, devapi.Options{
		DatabasePath: cfg.DevAPI.DatabasePath,
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatalf("setup backend: %v", err)
	}
	defer backend.Close()

	srv := &http.Server{
		Addr:    cfg.DevAPI.Addr,
		Handler: backend.Router,
	}

	go func() {
		logger.Infof("dev backend listening on %s", cfg.DevAPI.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	logger.Info("bye")
}
