package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/infrastructure/repositories"
	"github.com/you/glucopredict/internal/logging"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectionManager owns the process-wide database handle. It is created
// once by the app container and shared by every repository; the handle is
// opened on first use and reopened after Close.
type ConnectionManager struct {
	dsn    string
	logger *slog.Logger
	config *gorm.Config

	mu sync.Mutex
	db atomic.Pointer[gorm.DB]
}

// NewConnectionManager creates a manager for dsn without connecting
func NewConnectionManager(dsn string, log *slog.Logger) *ConnectionManager {
	return &ConnectionManager{
		dsn:    strings.TrimSpace(dsn),
		logger: logging.OrNop(log).With("component", "database"),
		config: &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
			NowFunc:        func() time.Time { return time.Now().UTC() },
		},
	}
}

// Connect opens the handle, pings it and migrates the schema. Calling it on
// an open manager returns the existing handle.
func (m *ConnectionManager) Connect(ctx context.Context) (*gorm.DB, error) {
	if db := m.db.Load(); db != nil {
		return db, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if db := m.db.Load(); db != nil {
		return db, nil
	}

	db, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	m.db.Store(db)
	return db, nil
}

// Handle returns the live handle, connecting if needed
func (m *ConnectionManager) Handle(ctx context.Context) (*gorm.DB, error) {
	return m.Connect(ctx)
}

// Ping checks the store is reachable over the current handle
func (m *ConnectionManager) Ping(ctx context.Context) error {
	db, err := m.Handle(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return domain.WrapError(domain.KindUnreachable, domain.ErrStoreUnreachable.Message, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return domain.WrapError(domain.KindUnreachable, domain.ErrStoreUnreachable.Message, err)
	}
	return nil
}

// Close releases the handle. Safe to call when never connected.
func (m *ConnectionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	db := m.db.Swap(nil)
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	m.logger.Info("database connection closed")
	return sqlDB.Close()
}

func (m *ConnectionManager) open(ctx context.Context) (*gorm.DB, error) {
	dialector, err := Dialector(m.dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, m.config)
	if err != nil {
		return nil, domain.WrapError(domain.KindUnreachable, domain.ErrStoreUnreachable.Message, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, domain.WrapError(domain.KindUnreachable, domain.ErrStoreUnreachable.Message, err)
	}
	if dialector.Name() == "sqlite" {
		// one connection keeps in-memory databases shared and writes serialised
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, domain.WrapError(domain.KindUnreachable, domain.ErrStoreUnreachable.Message, err)
	}

	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		m.logger.Warn("could not create indexes", "error", err)
	} else {
		m.logger.Info("connected to database", "driver", dialector.Name())
	}
	return db, nil
}

// Dialector picks the gorm driver from the DSN scheme
func Dialector(dsn string) (gorm.Dialector, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, domain.ErrStoreConfigMissing
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return postgres.Open(dsn), nil
	case strings.HasPrefix(dsn, "mysql://"):
		return mysql.Open(strings.TrimPrefix(dsn, "mysql://")), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), nil
	default:
		return nil, domain.WrapError(domain.KindConfigMissing, "unsupported database connection string",
			fmt.Errorf("unknown scheme in %q", redact(dsn)))
	}
}

// AutoMigrate creates the tables and (re)builds their indexes: unique
// users.email, users.created_at, (predictions.user_id, created_at DESC) and
// predictions.created_at. It is idempotent.
func AutoMigrate(db *gorm.DB) error {
	for _, model := range repositories.Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	return nil
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "@"); i >= 0 {
		return "***" + dsn[i:]
	}
	return dsn
}
