package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/you/glucopredict/domain"
)

// DefaultTokenTTL applies when no positive TTL is configured
const DefaultTokenTTL = 24 * time.Hour

// Claims is the JWT payload: registered claims plus the account email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// JWTServiceImpl implements domain.TokenService
type JWTServiceImpl struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey string, ttl time.Duration) domain.TokenService {
	return NewJWTServiceWithClock(secretKey, ttl, time.Now)
}

// NewJWTServiceWithClock creates a JWT service reading time from now
func NewJWTServiceWithClock(secretKey string, ttl time.Duration, now func() time.Time) *JWTServiceImpl {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &JWTServiceImpl{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       now,
	}
}

// generateJTI creates a unique JWT ID
func (j *JWTServiceImpl) generateJTI() string {
	return uuid.NewString()
}

// Issue implements domain.TokenService
func (j *JWTServiceImpl) Issue(userID, email string) (string, error) {
	if len(j.secretKey) == 0 {
		return "", domain.ErrSecretRequired
	}

	now := j.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			ID:        j.generateJTI(),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", domain.WrapError(domain.KindInternal, domain.ErrTokenSigning.Message, err)
	}
	return signed, nil
}

// Verify implements domain.TokenService
func (j *JWTServiceImpl) Verify(tokenString string) (*domain.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenInvalid
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, domain.ErrTokenInvalid
	}

	// exp is exclusive: a token is dead from the instant it expires.
	if !j.now().Before(claims.ExpiresAt.Time) {
		return nil, domain.ErrTokenExpired
	}

	return &domain.TokenClaims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
