package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/app"
	"mehnda-chinji/internal/config"
	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/guard"
	apphttp "mehnda-chinji/internal/http"
)

func main() {
	configFile := flag.String("config", "", "config file (default ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open app: %v", err)
	}
	defer a.Close()

	g := guard.New(guard.NavigatorFunc(func(route domain.Route) {
		logger.WithField("route", route).Info("navigate")
	}), domain.RouteSplash, logger)
	detach := g.Attach(a.Session)
	defer detach()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(apphttp.Deps{
		Session:     a.Session,
		Preferences: a.Preferences,
		Guard:       g,
		Accounts:    a.Accounts,
		Donors:      a.Donors,
		Businesses:  a.Businesses,
		Directory:   a.Directory,
		Logger:      logger,
	}).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	// Screens answer 503 until the stored session has been read.
	a.Start(ctx)
	logger.WithField("state", guard.StateOf(a.Session.Snapshot())).Info("session ready")

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

