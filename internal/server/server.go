package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/inhahackathon/foodmarket/config"
	"github.com/inhahackathon/foodmarket/internal/auth"
	"github.com/inhahackathon/foodmarket/internal/db"
	"github.com/inhahackathon/foodmarket/internal/geo"
	"github.com/inhahackathon/foodmarket/internal/handlers"
	"github.com/inhahackathon/foodmarket/internal/identity"
	"github.com/inhahackathon/foodmarket/internal/logging"
	"github.com/inhahackathon/foodmarket/internal/mq"
	"github.com/inhahackathon/foodmarket/internal/services"
	"github.com/inhahackathon/foodmarket/internal/storage"
	"github.com/inhahackathon/foodmarket/internal/store"
	"github.com/inhahackathon/foodmarket/internal/upload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *logrus.Logger
	closers    []func() error
}

// Deps are the collaborators the router needs. New builds them from config;
// tests construct them directly.
type Deps struct {
	Config   config.Config
	Logger   *logrus.Logger
	Store    store.Store
	Storage  *storage.Storage
	Identity identity.Provider
	Geocoder geo.Geocoder
	Events   services.EventPublisher
	Tokens   *auth.TokenProvider
}

// New constructs a Server with every backend selected by cfg.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := logging.NewLogger(cfg.AppName, cfg.Profile)
	s := &Server{logger: logger}

	tokens, err := auth.NewTokenProvider(cfg.JWT.Secret)
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET is required: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s.closers = append(s.closers, dbConn.Close)

	deps, err := s.buildDeps(ctx, cfg, logger, dbConn, tokens)
	if err != nil {
		_ = s.close()
		return nil, err
	}

	s.router = NewRouter(deps)
	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) buildDeps(ctx context.Context, cfg config.Config, logger *logrus.Logger, dbConn *sql.DB, tokens *auth.TokenProvider) (Deps, error) {
	files, err := storage.Open(ctx, cfg)
	if err != nil {
		return Deps{}, fmt.Errorf("open storage: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"backend": files.Backend(),
		"url":     cfg.Resource.URLPrefix,
		"path":    cfg.Resource.FilePath,
	}).Info("resource files mapped")

	idp, err := identity.NewFirebaseProvider(ctx, cfg.Firebase)
	if err != nil {
		return Deps{}, fmt.Errorf("init firebase: %w", err)
	}

	var geocoder geo.Geocoder = geo.NewKakaoClient(cfg.Geocoder)
	if cfg.Redis.Addr != "" {
		rdb := geo.NewRedisClient(cfg.Redis)
		s.closers = append(s.closers, rdb.Close)
		geocoder = geo.NewCachedGeocoder(geocoder, geo.NewRedisCache(rdb), cfg.Redis.CacheTTL, logger)
		pingRedis(ctx, rdb, logger)
	}

	events, err := s.openEvents(ctx, cfg, files, logger)
	if err != nil {
		return Deps{}, err
	}

	return Deps{
		Config:   cfg,
		Logger:   logger,
		Store:    store.NewPostgresStore(dbConn),
		Storage:  files,
		Identity: idp,
		Geocoder: geocoder,
		Events:   events,
		Tokens:   tokens,
	}, nil
}

// openEvents publishes deletions to the broker when one is configured and
// cleans up images in-process otherwise.
func (s *Server) openEvents(ctx context.Context, cfg config.Config, files *storage.Storage, logger *logrus.Logger) (services.EventPublisher, error) {
	broker, err := mq.Open(ctx, cfg.Broker)
	if errors.Is(err, mq.ErrNoBroker) {
		logger.Info("no broker configured, board images are cleaned up inline")
		return services.NewInlinePublisher(services.NewImageCleanup(files, logger)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open broker: %w", err)
	}
	s.closers = append(s.closers, broker.Close)
	return services.NewBrokerPublisher(broker, cfg.Broker.Channel), nil
}

func pingRedis(ctx context.Context, rdb *redis.Client, logger logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, geocoding falls through to the API")
	}
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(d Deps) *chi.Mux {
	fileHandler := upload.NewFileHandler(d.Storage, d.Config.Resource.AllowExtensions)

	userService := services.NewUserService(
		d.Store,
		d.Identity,
		d.Tokens,
		d.Geocoder,
		fileHandler,
		services.WithTokenTTL(d.Config.JWT.TokenTTL),
		services.WithEvents(d.Events),
		services.WithLogger(d.Logger),
	)
	boardService := services.NewBoardService(d.Store, fileHandler, d.Events, d.Logger)
	likeService := services.NewLikeService(d.Store)

	authMiddleware := auth.RequireAuth(d.Tokens, handlers.Unauthorized)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(d.Logger),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins(d.Config.CORSOrigins),
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
	)

	router.Get("/healthz", handlers.Healthz)
	handlers.DocsRouter(router, handlers.DocsConfig{
		Version:    d.Config.APIVersion,
		DevProfile: d.Config.IsDev(),
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, handlers.NewAuthHandler(d.Identity, userService, d.Logger), authMiddleware)
	})
	router.Route("/user", func(r chi.Router) {
		handlers.UserRouter(r, handlers.NewUserHandler(userService, d.Logger), authMiddleware)
	})
	router.Route("/board", func(r chi.Router) {
		handlers.BoardRouter(r, handlers.NewBoardHandler(boardService, d.Logger), authMiddleware)
	})
	router.Route("/like", func(r chi.Router) {
		handlers.LikeRouter(r, handlers.NewLikeHandler(likeService, d.Logger), authMiddleware)
	})

	prefix := d.Config.Resource.URLPrefix
	router.Handle(prefix+"/*", handlers.NewResourceHandler(d.Storage, prefix, d.Logger))

	return router
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases every backend.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.close())
}

func (s *Server) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
