package devapi

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mehnda-chinji/internal/repository/sqlite"
)

type Options struct {
	DatabasePath string
	JWTSecret    string
	TokenTTL     time.Duration
	Logger       logrus.FieldLogger
}

// Server is a ready-to-serve backend over one sqlite database.
type Server struct {
	Router *gin.Engine
	db     *sql.DB
}

func NewServer(ctx context.Context, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	tokens, err := NewTokenIssuer(opts.JWTSecret, opts.TokenTTL)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.Open(opts.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewLoginSessionRepository(db)
	donorRepo := sqlite.NewDonorRepository(db)
	businessRepo := sqlite.NewBusinessRepository(db)

	inits := []struct {
		name string
		init func(context.Context) error
	}{
		{"user", userRepo.Init},
		{"login session", sessionRepo.Init},
		{"donor", donorRepo.Init},
		{"business", businessRepo.Init},
	}
	for _, r := range inits {
		if err := r.init(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("init %s repository: %w", r.name, err)
		}
	}

	directory := NewDirectoryService(donorRepo, businessRepo)
	accounts := NewAccountService(userRepo, sessionRepo, directory, tokens)

	router := gin.New()
	router.Use(gin.Recovery())
	NewHandler(accounts, directory, opts.Logger).RegisterRoutes(router)

	return &Server{Router: router, db: db}, nil
}

func (s *Server) Close() error {
	return s.db.Close()
}
