package repositories

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/logging"
	"gorm.io/gorm"
)

// HandleProvider hands out the shared database handle. It is satisfied by
// *database.ConnectionManager.
type HandleProvider interface {
	Handle(ctx context.Context) (*gorm.DB, error)
}

// Static wraps an already open handle, mainly for tests and tools.
type Static struct{ DB *gorm.DB }

// Handle implements HandleProvider
func (s Static) Handle(context.Context) (*gorm.DB, error) {
	if s.DB == nil {
		return nil, domain.ErrStoreConfigMissing
	}
	return s.DB, nil
}

// Models lists every table for migration
func Models() []any {
	return []any{&DBUser{}, &DBPrediction{}}
}

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db     HandleProvider
	logger *slog.Logger
	now    func() time.Time
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID              string  `gorm:"primaryKey;size:36"`
	Email           string  `gorm:"uniqueIndex:idx_users_email;size:255;not null"`
	PasswordHash    string  `gorm:"column:password_hash;not null"`
	Name            *string `gorm:"size:255"`
	IsActive        bool    `gorm:"not null"`
	LoginCount      int64   `gorm:"not null"`
	LastLogin       *time.Time
	PredictionCount int64     `gorm:"not null"`
	CreatedAt       time.Time `gorm:"index:idx_users_created_at"`
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db HandleProvider, log *slog.Logger) domain.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		logger: logging.OrNop(log).With("component", "user_repository"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, email, passwordHash string, name *string) (*domain.User, error) {
	db, err := r.db.Handle(ctx)
	if err != nil {
		return nil, err
	}

	email = NormalizeEmail(email)

	var count int64
	if err := db.WithContext(ctx).Model(&DBUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, domain.WrapError(domain.KindPersistence, "failed to check email", err)
	}
	if count > 0 {
		return nil, domain.ErrUserAlreadyExists
	}

	now := r.now()
	dbUser := &DBUser{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.WithContext(ctx).Create(dbUser).Error; err != nil {
		if isDuplicate(err) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, domain.WrapError(domain.KindPersistence, "failed to create user", err)
	}
	return r.dbToDomain(dbUser).Sanitized(), nil
}

// FindByEmail implements domain.UserRepository. The hash is kept for login.
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", NormalizeEmail(email))
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.findOne(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (r *UserRepositoryImpl) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	db, err := r.db.Handle(ctx)
	if err != nil {
		return nil, err
	}

	var dbUser DBUser
	err = db.WithContext(ctx).Where(query, arg).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.WrapError(domain.KindPersistence, "failed to load user", err)
	}
	return r.dbToDomain(&dbUser), nil
}

// TouchLogin implements domain.UserRepository
func (r *UserRepositoryImpl) TouchLogin(ctx context.Context, id string) {
	now := r.now()
	r.bestEffort(ctx, "touch login", id, map[string]any{
		"last_login":  now,
		"login_count": gorm.Expr("login_count + ?", 1),
		"updated_at":  now,
	})
}

// IncrementPredictionCount implements domain.UserRepository
func (r *UserRepositoryImpl) IncrementPredictionCount(ctx context.Context, id string) {
	r.bestEffort(ctx, "increment prediction count", id, map[string]any{
		"prediction_count": gorm.Expr("prediction_count + ?", 1),
		"updated_at":       r.now(),
	})
}

func (r *UserRepositoryImpl) bestEffort(ctx context.Context, op, id string, updates map[string]any) {
	db, err := r.db.Handle(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, op+" failed", "user_id", id, "error", err)
		return
	}
	if err := db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		r.logger.WarnContext(ctx, op+" failed", "user_id", id, "error", err)
	}
}

// SetActive implements domain.UserRepository
func (r *UserRepositoryImpl) SetActive(ctx context.Context, id string, active bool) error {
	db, err := r.db.Handle(ctx)
	if err != nil {
		return err
	}

	res := db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": r.now()})
	if res.Error != nil {
		return domain.WrapError(domain.KindPersistence, "failed to update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:              dbUser.ID,
		Email:           dbUser.Email,
		PasswordHash:    dbUser.PasswordHash,
		Name:            dbUser.Name,
		IsActive:        dbUser.IsActive,
		LoginCount:      dbUser.LoginCount,
		LastLogin:       dbUser.LastLogin,
		PredictionCount: dbUser.PredictionCount,
		CreatedAt:       dbUser.CreatedAt,
		UpdatedAt:       dbUser.UpdatedAt,
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "duplicate entry")
}
