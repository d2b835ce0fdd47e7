package domain

import (
	"math"
	"time"
)

// User represents a registered account
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Name            *string    `json:"name"`
	IsActive        bool       `json:"is_active"`
	LoginCount      int64      `json:"login_count"`
	LastLogin       *time.Time `json:"last_login"`
	PredictionCount int64      `json:"prediction_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Sanitized returns a copy of the user without the password hash
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp
}

// RiskLevel is the categorical output of a classification, ordered by severity
type RiskLevel string

const (
	RiskNormal     RiskLevel = "normal"
	RiskBorderline RiskLevel = "borderline"
	RiskHigh       RiskLevel = "high"
)

// Severity orders risk levels; unknown labels sort last.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskNormal:
		return 0
	case RiskBorderline:
		return 1
	case RiskHigh:
		return 2
	default:
		return math.MaxInt32
	}
}

// Feature names in the order the classifier was trained on.
const (
	FieldPregnancies      = "pregnancies"
	FieldGlucose          = "glucose"
	FieldBloodPressure    = "bloodPressure"
	FieldSkinThickness    = "skinThickness"
	FieldInsulin          = "insulin"
	FieldBMI              = "bmi"
	FieldDiabetesPedigree = "diabetesPedigree"
	FieldAge              = "age"
)

// FeatureCount is the length of a feature vector
const FeatureCount = 8

// FeatureOrder lists the request fields in vector order.
var FeatureOrder = [FeatureCount]string{
	FieldPregnancies,
	FieldGlucose,
	FieldBloodPressure,
	FieldSkinThickness,
	FieldInsulin,
	FieldBMI,
	FieldDiabetesPedigree,
	FieldAge,
}

// Features holds the eight clinical measurements of one request
type Features struct {
	Pregnancies      float64 `json:"pregnancies"`
	Glucose          float64 `json:"glucose"`
	BloodPressure    float64 `json:"bloodPressure"`
	SkinThickness    float64 `json:"skinThickness"`
	Insulin          float64 `json:"insulin"`
	BMI              float64 `json:"bmi"`
	DiabetesPedigree float64 `json:"diabetesPedigree"`
	Age              float64 `json:"age"`
}

// Vector returns the measurements in training order.
func (f Features) Vector() []float64 {
	return []float64{
		f.Pregnancies,
		f.Glucose,
		f.BloodPressure,
		f.SkinThickness,
		f.Insulin,
		f.BMI,
		f.DiabetesPedigree,
		f.Age,
	}
}

// FeaturesFromVector is the inverse of Features.Vector.
func FeaturesFromVector(v []float64) (Features, error) {
	if len(v) != FeatureCount {
		return Features{}, ErrInvalidFeatureVector
	}
	return Features{
		Pregnancies:      v[0],
		Glucose:          v[1],
		BloodPressure:    v[2],
		SkinThickness:    v[3],
		Insulin:          v[4],
		BMI:              v[5],
		DiabetesPedigree: v[6],
		Age:              v[7],
	}, nil
}

// ClassSpec maps one classifier output index to its label and message
type ClassSpec struct {
	Label   RiskLevel `yaml:"label"`
	Message string    `yaml:"message"`
}

// ClassificationResult is the ephemeral outcome of one inference
type ClassificationResult struct {
	Risk           RiskLevel
	Message        string
	Probabilities  []float64
	Labels         []RiskLevel
	PredictedClass int
}

// ProbabilityMap keys the distribution by class label.
func (r *ClassificationResult) ProbabilityMap() map[string]float64 {
	out := make(map[string]float64, len(r.Probabilities))
	for i, p := range r.Probabilities {
		if i < len(r.Labels) {
			out[string(r.Labels[i])] = p
		}
	}
	return out
}

// ArgMax returns the index of the largest value, preferring the lowest index on ties.
func ArgMax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// Prediction is the immutable audit record of one inference
type Prediction struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	Features                          // inlined measurements
	RiskLevel      RiskLevel          `json:"risk_level"`
	RiskMessage    string             `json:"risk_message"`
	Probabilities  map[string]float64 `json:"probabilities"`
	PredictedClass int                `json:"predicted_class"`
	ModelAccuracy  float64            `json:"model_accuracy"`
	ResponseTimeMs float64            `json:"response_time_ms"`
	CreatedAt      time.Time          `json:"created_at"`
}

// PredictionStats summarises a user's prediction history
type PredictionStats struct {
	TotalCount       int64            `json:"totalCount"`
	RiskDistribution map[string]int64 `json:"riskDistribution"`
	LatestPrediction *time.Time       `json:"latestPrediction"`
}

// PredictionResponse is returned to the caller of a classification
type PredictionResponse struct {
	Risk           RiskLevel          `json:"risk"`
	Message        string             `json:"message"`
	Probabilities  map[string]float64 `json:"probabilities"`
	PredictedClass int                `json:"predicted_class"`
	ModelAccuracy  float64            `json:"model_accuracy"`
	ResponseTimeMs float64            `json:"response_time_ms"`
	PredictionID   string             `json:"prediction_id,omitempty"`
}

// AuthResult represents authentication outcome
type AuthResult struct {
	User  *User
	Token string
}

// TokenClaims represents the identity carried by a bearer token
type TokenClaims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
