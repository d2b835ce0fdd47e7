package domain

import "context"

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string, name *string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// TouchLogin and IncrementPredictionCount are best-effort: failures are
	// logged by the implementation and never returned.
	TouchLogin(ctx context.Context, id string)
	IncrementPredictionCount(ctx context.Context, id string)
	SetActive(ctx context.Context, id string, active bool) error
}

// PredictionRepository defines prediction audit storage
type PredictionRepository interface {
	Record(ctx context.Context, userID string, input Features, result *ClassificationResult, accuracy, latencyMs float64) (*Prediction, error)
	ListForUser(ctx context.Context, userID string, limit, skip int) ([]Prediction, error)
	StatsForUser(ctx context.Context, userID string) (*PredictionStats, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
	ValidateStrength(password string) (bool, string)
}

// TokenService defines token operations
type TokenService interface {
	Issue(userID, email string) (string, error)
	Verify(token string) (*TokenClaims, error)
}

// Authorizer resolves the identity behind an Authorization header value
type Authorizer interface {
	Authorize(ctx context.Context, authorizationHeader string) (*User, error)
}

// AuthService defines account use cases
type AuthService interface {
	Register(ctx context.Context, email, password string, name *string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Deactivate(ctx context.Context, user *User) error
}

// Classifier maps a scaled feature vector to a class distribution
type Classifier interface {
	NumClasses() int
	PredictProba(scaled []float64) ([]float64, error)
}

// Scaler applies the fitted feature transform
type Scaler interface {
	Transform(raw []float64) ([]float64, error)
}

// InferenceService serves classifications from the loaded artifacts
type InferenceService interface {
	Predict(ctx context.Context, raw []float64) (*ClassificationResult, error)
	Ready(ctx context.Context) error
}

// PredictionService is the end-to-end classification use case
type PredictionService interface {
	Classify(ctx context.Context, identity *User, raw map[string]any) (*PredictionResponse, error)
	History(ctx context.Context, user *User, limit, skip int) ([]Prediction, int, error)
	Stats(ctx context.Context, user *User) (*PredictionStats, error)
}

// ArtifactLoader reads the fitted classifier and scaler pair
type ArtifactLoader interface {
	Load(ctx context.Context) (Classifier, Scaler, error)
}
