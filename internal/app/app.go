// Package app assembles the client core (device store, session, backend
// client, directory cache and services) from configuration.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/api"
	"mehnda-chinji/internal/config"
	"mehnda-chinji/internal/directory"
	"mehnda-chinji/internal/repository"
	"mehnda-chinji/internal/service"
	"mehnda-chinji/internal/session"
)

// App is one running client.
type App struct {
	Logger      logrus.FieldLogger
	Store       repository.KVStore
	Session     *session.Manager
	Preferences *session.Preferences
	Client      *api.Client
	Directory   *directory.Directory
	Accounts    service.AccountService
	Businesses  service.BusinessService
	Donors      service.DonorService

	closers []func() error
}

// NewLogger builds the process logger at the configured level.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warnf("unknown log level %q, using info", level)
	}
	return logger
}

// Open opens the configured store and assembles the app on it.
func Open(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*App, error) {
	store, closeStore, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := Assemble(store, cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, logger)
	a.closers = append(a.closers, closeStore)
	return a, nil
}

// Assemble wires the app over an already opened store. The session is not
// initialized yet; call Start.
func Assemble(store repository.KVStore, baseURL string, timeout time.Duration, logger logrus.FieldLogger) *App {
	sess := session.NewManager(session.Config{Store: store, Logger: logger})
	prefs := session.NewPreferences(store, logger)
	client := api.New(api.Config{
		BaseURL: baseURL,
		Timeout: timeout,
		Tokens:  sess,
		Logger:  logger,
	})
	dir := directory.New(client, directory.NewQueryCache(directory.CacheConfig{
		Store:  store,
		Logger: logger,
	}))

	return &App{
		Logger:      logger,
		Store:       store,
		Session:     sess,
		Preferences: prefs,
		Client:      client,
		Directory:   dir,
		Accounts:    service.NewAccountService(client, sess, prefs, dir, logger),
		Businesses:  service.NewBusinessService(client, sess, dir, logger),
		Donors:      service.NewDonorService(client, sess, logger),
	}
}

// Start restores the persisted session and query cache.
func (a *App) Start(ctx context.Context) {
	a.Session.Initialize(ctx)
	a.Directory.Cache().Restore(ctx)
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
