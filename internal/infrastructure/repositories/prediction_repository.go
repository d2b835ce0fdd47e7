package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/you/glucopredict/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PredictionRepositoryImpl implements domain.PredictionRepository using GORM
type PredictionRepositoryImpl struct {
	db  HandleProvider
	now func() time.Time
}

// DBPrediction is the audit row of one classification
type DBPrediction struct {
	ID               string  `gorm:"primaryKey;size:36"`
	UserID           string  `gorm:"size:36;not null;index:idx_predictions_user_created,priority:1"`
	Pregnancies      float64 `gorm:"not null"`
	Glucose          float64 `gorm:"not null"`
	BloodPressure    float64 `gorm:"not null"`
	SkinThickness    float64 `gorm:"not null"`
	Insulin          float64 `gorm:"not null"`
	BMI              float64 `gorm:"column:bmi;not null"`
	DiabetesPedigree float64 `gorm:"not null"`
	Age              float64 `gorm:"not null"`
	RiskLevel        string  `gorm:"size:32;not null"`
	RiskMessage      string  `gorm:"size:255"`
	Probabilities    datatypes.JSONType[map[string]float64]
	PredictedClass   int
	ModelAccuracy    float64
	ResponseTimeMs   float64
	CreatedAt        time.Time `gorm:"not null;index:idx_predictions_user_created,priority:2,sort:desc;index:idx_predictions_created_at"`
}

// TableName returns the table name for GORM
func (DBPrediction) TableName() string {
	return "predictions"
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db HandleProvider) domain.PredictionRepository {
	return &PredictionRepositoryImpl{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Record implements domain.PredictionRepository
func (r *PredictionRepositoryImpl) Record(ctx context.Context, userID string, input domain.Features, result *domain.ClassificationResult, accuracy, latencyMs float64) (*domain.Prediction, error) {
	db, err := r.db.Handle(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.ErrPersistence.Message, err)
	}

	row := &DBPrediction{
		ID:               uuid.NewString(),
		UserID:           userID,
		Pregnancies:      input.Pregnancies,
		Glucose:          input.Glucose,
		BloodPressure:    input.BloodPressure,
		SkinThickness:    input.SkinThickness,
		Insulin:          input.Insulin,
		BMI:              input.BMI,
		DiabetesPedigree: input.DiabetesPedigree,
		Age:              input.Age,
		RiskLevel:        string(result.Risk),
		RiskMessage:      result.Message,
		Probabilities:    datatypes.NewJSONType(result.ProbabilityMap()),
		PredictedClass:   result.PredictedClass,
		ModelAccuracy:    accuracy,
		ResponseTimeMs:   latencyMs,
		CreatedAt:        r.now(),
	}
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, domain.WrapError(domain.KindPersistence, domain.ErrPersistence.Message, err)
	}
	return toPrediction(row), nil
}

// ListForUser implements domain.PredictionRepository
func (r *PredictionRepositoryImpl) ListForUser(ctx context.Context, userID string, limit, skip int) ([]domain.Prediction, error) {
	db, err := r.db.Handle(ctx)
	if err != nil {
		return nil, err
	}

	limit, skip = domain.ClampPaging(limit, skip)

	var rows []DBPrediction
	err = db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, domain.WrapError(domain.KindPersistence, "failed to list predictions", err)
	}

	out := make([]domain.Prediction, 0, len(rows))
	for i := range rows {
		out = append(out, *toPrediction(&rows[i]))
	}
	return out, nil
}

// StatsForUser implements domain.PredictionRepository
func (r *PredictionRepositoryImpl) StatsForUser(ctx context.Context, userID string) (*domain.PredictionStats, error) {
	db, err := r.db.Handle(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.PredictionStats{RiskDistribution: map[string]int64{}}
	// both reads share one snapshot so the total and the latest row agree
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var groups []struct {
			RiskLevel string
			Count     int64
		}
		err := tx.Model(&DBPrediction{}).
			Select("risk_level, COUNT(*) AS count").
			Where("user_id = ?", userID).
			Group("risk_level").
			Scan(&groups).Error
		if err != nil {
			return domain.WrapError(domain.KindPersistence, "failed to aggregate predictions", err)
		}
		for _, g := range groups {
			stats.RiskDistribution[g.RiskLevel] = g.Count
			stats.TotalCount += g.Count
		}
		if stats.TotalCount == 0 {
			return nil
		}

		// newest row via the (user_id, created_at DESC) index
		var latest []DBPrediction
		err = tx.Select("created_at").
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(1).
			Find(&latest).Error
		if err != nil {
			return domain.WrapError(domain.KindPersistence, "failed to load latest prediction", err)
		}
		if len(latest) == 1 {
			ts := latest[0].CreatedAt
			stats.LatestPrediction = &ts
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		if domain.IsKind(err, domain.KindPersistence) {
			return nil, err
		}
		return nil, domain.WrapError(domain.KindPersistence, "failed to aggregate predictions", err)
	}
	return stats, nil
}

func toPrediction(row *DBPrediction) *domain.Prediction {
	return &domain.Prediction{
		ID:     row.ID,
		UserID: row.UserID,
		Features: domain.Features{
			Pregnancies:      row.Pregnancies,
			Glucose:          row.Glucose,
			BloodPressure:    row.BloodPressure,
			SkinThickness:    row.SkinThickness,
			Insulin:          row.Insulin,
			BMI:              row.BMI,
			DiabetesPedigree: row.DiabetesPedigree,
			Age:              row.Age,
		},
		RiskLevel:      domain.RiskLevel(row.RiskLevel),
		RiskMessage:    row.RiskMessage,
		Probabilities:  row.Probabilities.Data(),
		PredictedClass: row.PredictedClass,
		ModelAccuracy:  row.ModelAccuracy,
		ResponseTimeMs: row.ResponseTimeMs,
		CreatedAt:      row.CreatedAt,
	}
}
