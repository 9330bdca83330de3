package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pr-reviewer/internal/app/middleware"
	"pr-reviewer/internal/config"
	"pr-reviewer/internal/db"
	"pr-reviewer/internal/handler"
	"pr-reviewer/internal/repository"
	"pr-reviewer/internal/repository/memory"
	"pr-reviewer/internal/service/assignment"
	"pr-reviewer/internal/service/pullrequest"
	"pr-reviewer/internal/service/stats"
	"pr-reviewer/internal/service/team"
	"pr-reviewer/internal/service/user"
)

// App is the main application structure
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	server *http.Server
}

// Storage is the persistence port the services run on.
type Storage struct {
	Teams       repository.TeamRepository
	Users       repository.UserRepository
	Memberships repository.MembershipRepository
	PRs         repository.PRRepository
	Stats       repository.StatsRepository
	Transactor  db.Transactioner
}

// PostgresStorage builds the port on top of a transaction context manager.
func PostgresStorage(cm *db.ContextManager) Storage {
	return Storage{
		Teams:       repository.NewTeamRepository(cm),
		Users:       repository.NewUserRepository(cm),
		Memberships: repository.NewMembershipRepository(cm),
		PRs:         repository.NewPRRepository(cm),
		Stats:       repository.NewStatsRepository(cm),
		Transactor:  cm,
	}
}

// MemoryStorage serves every part of the port from one in-memory store.
func MemoryStorage(store *memory.Store) Storage {
	return Storage{
		Teams:       store,
		Users:       store,
		Memberships: store,
		PRs:         store,
		Stats:       store,
		Transactor:  store,
	}
}

// Services groups the business services exposed over HTTP.
type Services struct {
	Team  *team.Service
	User  *user.Service
	PR    *pullrequest.Service
	Stats *stats.Service
}

func NewServices(st Storage, strategy *assignment.Strategy, log *zap.Logger) Services {
	return Services{
		Team:  team.NewService(st.Teams, st.Users, st.Memberships, st.Transactor, log.Named("team")),
		User:  user.NewService(st.Users, st.Memberships, st.PRs, st.Transactor, log.Named("user")),
		PR:    pullrequest.NewService(st.PRs, st.Users, st.Memberships, st.Transactor, strategy, log.Named("pullrequest")),
		Stats: stats.NewService(st.Stats, st.Transactor, log.Named("stats")),
	}
}

// NewStrategy builds the reviewer selection strategy from config.
func NewStrategy(cfg config.AssignmentConfig) *assignment.Strategy {
	var selector assignment.Selector = assignment.FirstMatch{}
	if cfg.Policy == config.AssignmentPolicyRandom {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		selector = assignment.NewShuffle(rand.NewSource(seed))
	}
	return assignment.NewStrategy(selector, cfg.MaxReviewers)
}

// NewRouter registers all routes and wraps them in the middleware chain.
// dbPinger backs /health and may be nil.
func NewRouter(svc Services, dbPinger handler.Pinger, log *zap.Logger) http.Handler {
	teamHandler := handler.NewTeamHandler(svc.Team, log)
	userHandler := handler.NewUserHandler(svc.User, log)
	prHandler := handler.NewPRHandler(svc.PR, log)
	statsHandler := handler.NewStatsHandler(svc.Stats, log)
	healthHandler := handler.NewHealthHandler(dbPinger, log)
	docsHandler := handler.NewDocsHandler(log)

	mux := http.NewServeMux()

	// Team routes
	mux.HandleFunc("POST /team/add", teamHandler.AddTeam)
	mux.HandleFunc("GET /team/get", teamHandler.GetTeam)

	// User routes
	mux.HandleFunc("POST /users/setIsActive", userHandler.SetIsActive)
	mux.HandleFunc("GET /users/getReview", userHandler.GetReview)

	// PR routes
	mux.HandleFunc("POST /pullRequest/create", prHandler.CreatePR)
	mux.HandleFunc("POST /pullRequest/merge", prHandler.MergePR)
	mux.HandleFunc("POST /pullRequest/reassign", prHandler.ReassignReviewer)

	mux.HandleFunc("GET /stats", statsHandler.GetStats)
	mux.HandleFunc("GET /health", healthHandler.Check)

	// Documentation routes
	mux.HandleFunc("GET /docs", docsHandler.ServeSwaggerUI)
	mux.HandleFunc("GET /openapi.yml", docsHandler.ServeOpenAPI)

	// RequestID -> Recovery -> Logging -> mux
	var h http.Handler = mux
	h = middleware.Logging(log)(h)
	h = middleware.Recovery(log)(h)
	h = middleware.RequestID()(h)
	return h
}

// NewApp creates and configures the application
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	var (
		st     Storage
		pool   *pgxpool.Pool
		pinger handler.Pinger
	)

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		st = MemoryStorage(memory.NewStore())

	default:
		var err error
		pool, err = db.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Info("connected to database",
			zap.String("host", cfg.Database.Host),
			zap.String("dbname", cfg.Database.DBName),
		)

		if cfg.Storage.Migrate {
			if err := db.Migrate(ctx, pool, log.Named("migrate")); err != nil {
				pool.Close()
				return nil, err
			}
		}

		st = PostgresStorage(db.NewContextManager(pool, log.Named("db")))
		pinger = pool
	}

	strategy := NewStrategy(cfg.Assignment)
	log.Info("reviewer assignment configured",
		zap.String("policy", cfg.Assignment.Policy),
		zap.Int("max_reviewers", strategy.MaxReviewers()),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      NewRouter(NewServices(st, strategy, log), pinger, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:    cfg,
		logger: log,
		pool:   pool,
		server: server,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", zap.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.close()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("server forced to shutdown", zap.Error(err))
	}

	a.close()
	a.logger.Info("server exited")
	return err
}

func (a *App) close() {
	if a.pool != nil {
		a.pool.Close()
		a.logger.Info("database connection pool closed")
	}
}
