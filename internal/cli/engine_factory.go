package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/ironlog"
	"github.com/aretw0/ironlog/internal/config"
	"github.com/aretw0/ironlog/pkg/adapters/file"
	"github.com/aretw0/ironlog/pkg/adapters/firestore"
	"github.com/aretw0/ironlog/pkg/adapters/loam"
	"github.com/aretw0/ironlog/pkg/adapters/memory"
	"github.com/aretw0/ironlog/pkg/adapters/redis"
	"github.com/aretw0/ironlog/pkg/adapters/sqlstore"
	"github.com/aretw0/ironlog/pkg/observability"
	"github.com/aretw0/ironlog/pkg/persistence/middleware"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

// Stack is an engine plus the adapters it was assembled from.
type Stack struct {
	Engine   *ironlog.Engine
	Sessions ports.SessionStore
	Registry *prometheus.Registry
	Logger   *slog.Logger

	catalog   ports.ExerciseCatalog
	templates ports.TemplateRepository
	archive   ports.ExecutionArchive
	locker    ports.DistributedLocker
	redis     *goredis.Client
	closers   []io.Closer
}

// Build assembles the adapters named by cfg and starts an engine on them.
// extra options are applied last, so callers can add hooks (e.g. SSE streams).
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...ironlog.Option) (*Stack, error) {
	s := &Stack{Logger: logger, Registry: prometheus.NewRegistry()}

	if err := s.openArchive(ctx, cfg); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.openProgram(cfg); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.openSessions(ctx, cfg); err != nil {
		s.Close()
		return nil, err
	}

	metrics, err := observability.NewMetrics(s.Registry)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "failed to register metrics")
	}

	opts := []ironlog.Option{
		ironlog.WithLogger(logger),
		ironlog.WithSessionStore(s.Sessions),
		ironlog.WithCatalog(s.catalog),
		ironlog.WithTemplates(s.templates),
		ironlog.WithArchive(s.archive),
		ironlog.WithFocusDelay(cfg.Engine.FocusDelay),
		ironlog.WithTimerTick(cfg.Engine.TimerTick),
		ironlog.WithLifecycleHooks(observability.LoggingHooks(logger)),
		ironlog.WithLifecycleHooks(metrics.Hooks()),
	}
	if s.locker != nil {
		opts = append(opts, ironlog.WithLocker(s.locker))
	}

	eng, err := ironlog.New(append(opts, extra...)...)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "failed to create engine")
	}
	s.Engine = eng
	logger.Debug("Engine ready",
		"session_backend", cfg.Session.Backend,
		"archive_backend", cfg.Archive.Backend,
		"program_dir", cfg.Program.Dir)
	return s, nil
}

// openArchive sets up the archive and, for SQL backends, the catalog and
// templates that share its database.
func (s *Stack) openArchive(ctx context.Context, cfg *config.Config) error {
	s.catalog = memory.NewCatalog()
	s.templates = memory.NewTemplates()

	switch cfg.Archive.Backend {
	case "memory":
		s.archive = memory.NewArchive()
	case "file":
		s.archive = file.NewArchive(filepath.Join(cfg.Data.Dir, "executions"))
	case "redis":
		s.archive = redis.NewArchive(s.redisClient(cfg), cfg.Redis.Prefix)
	case "sqlite", "postgres":
		dialect, err := sqlstore.ParseDialect(cfg.Archive.Backend)
		if err != nil {
			return err
		}
		dsn := cfg.Archive.PostgresDSN
		if dialect == sqlstore.SQLite {
			dsn = cfg.SQLitePath()
			if err := ensureDir(filepath.Dir(dsn)); err != nil {
				return err
			}
		}
		db, err := sqlstore.Open(ctx, dialect, dsn)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s archive", dialect)
		}
		s.closers = append(s.closers, db)
		if err := db.Migrate(); err != nil {
			return err
		}
		s.archive, s.catalog, s.templates = db, db, db
	default:
		return errors.Newf("unknown archive backend %q", cfg.Archive.Backend)
	}
	return nil
}

// redisClient returns the client shared by the redis archive, store and locker.
func (s *Stack) redisClient(cfg *config.Config) *goredis.Client {
	if s.redis == nil {
		s.redis = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, s.redis)
	}
	return s.redis
}

// openProgram replaces the catalog and templates with a program directory.
func (s *Stack) openProgram(cfg *config.Config) error {
	if cfg.Program.Dir == "" {
		return nil
	}
	program, err := loam.Open(cfg.Program.Dir)
	if err != nil {
		return errors.Wrapf(err, "failed to open program directory %s", cfg.Program.Dir)
	}
	s.catalog, s.templates = program, program
	return nil
}

func (s *Stack) openSessions(ctx context.Context, cfg *config.Config) error {
	var store ports.SessionStore
	switch cfg.Session.Backend {
	case "memory":
		store = memory.NewStore()
	case "file":
		store = file.New(filepath.Join(cfg.Data.Dir, "sessions"))
	case "redis":
		client := s.redisClient(cfg)
		store = redis.NewFromClient(client,
			redis.WithTTL(cfg.Session.TTL),
			redis.WithPrefix(cfg.Redis.Prefix))
		s.locker = redis.NewLocker(client, cfg.Redis.Prefix)
	case "firestore":
		fs, err := firestore.Connect(ctx, cfg.Firestore.Project, firestore.WithCollection(cfg.Firestore.Collection))
		if err != nil {
			return err
		}
		s.closers = append(s.closers, fs)
		store = fs
	case "sql":
		db, ok := s.archive.(*sqlstore.DB)
		if !ok {
			return errors.New("the sql session backend needs a sqlite or postgres archive")
		}
		store = db.Sessions()
	default:
		return errors.Newf("unknown session backend %q", cfg.Session.Backend)
	}

	if cfg.Session.EncryptionKey != "" {
		mw, err := encryption(cfg.Session)
		if err != nil {
			return err
		}
		store = middleware.Chain(store, mw)
	}
	s.Sessions = store
	return nil
}

func encryption(cfg config.SessionConfig) (middleware.Middleware, error) {
	active, err := middleware.DecodeKey(cfg.EncryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid session.encryption_key")
	}
	var fallback [][]byte
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.DecodeKey(k)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid session.fallback_keys[%d]", i)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	})
}

// Close stops the engine and releases every adapter connection.
func (s *Stack) Close() error {
	var errs []error
	if s.Engine != nil {
		errs = append(errs, s.Engine.Close())
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}
