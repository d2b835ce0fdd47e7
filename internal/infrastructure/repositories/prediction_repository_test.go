package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/glucopredict/domain"
)

func sampleFeatures() domain.Features {
	return domain.Features{
		Pregnancies: 2, Glucose: 140, BloodPressure: 80, SkinThickness: 25,
		Insulin: 100, BMI: 32.5, DiabetesPedigree: 0.6, Age: 45,
	}
}

func sampleResult(risk domain.RiskLevel, class int) *domain.ClassificationResult {
	return &domain.ClassificationResult{
		Risk:           risk,
		Message:        "msg for " + string(risk),
		Probabilities:  []float64{0.2, 0.3, 0.5},
		Labels:         []domain.RiskLevel{domain.RiskNormal, domain.RiskBorderline, domain.RiskHigh},
		PredictedClass: class,
	}
}

// newTestPredictionRepo returns a repository whose clock advances one
// second per insert starting at base.
func newTestPredictionRepo(t *testing.T, base time.Time) *PredictionRepositoryImpl {
	t.Helper()
	repo := NewPredictionRepository(Static{DB: setupTestDB(t)}).(*PredictionRepositoryImpl)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return repo
}

func TestPredictionRepository_RecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestPredictionRepo(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	p, err := repo.Record(ctx, "user-1", sampleFeatures(), sampleResult(domain.RiskHigh, 2), 86.4, 12.34)
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	list, err := repo.ListForUser(ctx, "user-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, sampleFeatures(), got.Features)
	assert.Equal(t, domain.RiskHigh, got.RiskLevel)
	assert.Equal(t, "msg for high", got.RiskMessage)
	assert.Equal(t, map[string]float64{"normal": 0.2, "borderline": 0.3, "high": 0.5}, got.Probabilities)
	assert.Equal(t, 2, got.PredictedClass)
	assert.Equal(t, 86.4, got.ModelAccuracy)
	assert.Equal(t, 12.34, got.ResponseTimeMs)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
}

func TestPredictionRepository_ListForUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestPredictionRepo(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 120; i++ {
		_, err := repo.Record(ctx, "user-1", sampleFeatures(), sampleResult(domain.RiskNormal, 0), 86.4, 1)
		require.NoError(t, err)
	}
	_, err := repo.Record(ctx, "user-2", sampleFeatures(), sampleResult(domain.RiskHigh, 2), 86.4, 1)
	require.NoError(t, err)

	tests := []struct {
		name     string
		limit    int
		skip     int
		expected int
	}{
		{name: "explicit limit", limit: 5, expected: 5},
		{name: "default limit", limit: 0, expected: 50},
		{name: "capped at 100", limit: 500, expected: 100},
		{name: "skip near the end", limit: 50, skip: 110, expected: 10},
		{name: "negative skip", limit: 3, skip: -4, expected: 3},
		{name: "skip past the end", limit: 10, skip: 500, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.ListForUser(ctx, "user-1", tt.limit, tt.skip)
			require.NoError(t, err)
			require.NotNil(t, list)
			assert.Len(t, list, tt.expected)

			for i := 1; i < len(list); i++ {
				assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt), "rows must be newest first")
			}
			for _, p := range list {
				assert.Equal(t, "user-1", p.UserID)
			}
		})
	}
}

func TestPredictionRepository_StatsForUser(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := newTestPredictionRepo(t, base)

	empty, err := repo.StatsForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalCount)
	assert.Empty(t, empty.RiskDistribution)
	assert.Nil(t, empty.LatestPrediction)

	risks := []domain.RiskLevel{domain.RiskNormal, domain.RiskHigh, domain.RiskNormal, domain.RiskBorderline}
	for _, r := range risks {
		_, err := repo.Record(ctx, "user-1", sampleFeatures(), sampleResult(r, 0), 86.4, 1)
		require.NoError(t, err)
	}

	stats, err := repo.StatsForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalCount)
	assert.Equal(t, map[string]int64{"normal": 2, "high": 1, "borderline": 1}, stats.RiskDistribution)
	require.NotNil(t, stats.LatestPrediction)
	assert.True(t, stats.LatestPrediction.Equal(base.Add(4*time.Second)), "got %v", stats.LatestPrediction)
}

func TestPredictionRepository_StatsForUserQueryFailure(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewPredictionRepository(Static{DB: db})

	_, err := repo.Record(ctx, "user-1", sampleFeatures(), sampleResult(domain.RiskHigh, 2), 86.4, 1)
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&DBPrediction{}))

	_, err = repo.StatsForUser(ctx, "user-1")
	require.Error(t, err)
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
	assert.Equal(t, "failed to aggregate predictions", domain.MessageOf(err, ""))
}

func TestPredictionRepository_NoStore(t *testing.T) {
	repo := NewPredictionRepository(Static{})

	_, err := repo.Record(context.Background(), "u", sampleFeatures(), sampleResult(domain.RiskNormal, 0), 1, 1)
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))

	_, err = repo.StatsForUser(context.Background(), "u")
	assert.Equal(t, domain.KindConfigMissing, domain.KindOf(err))
}
