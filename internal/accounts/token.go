package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest accepted HMAC signing secret.
const MinSecretLength = 32

// Token is a signed access token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Claims identifies the holder of a valid token.
type Claims struct {
	UserID uuid.UUID
	Email  string
}

// TokenIssuer issues and validates access tokens.
type TokenIssuer interface {
	Issue(user *User) (Token, error)
	Validate(token string) (*Claims, error)
}

type jwtClaims struct {
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer implements TokenIssuer with HMAC-SHA256 signed JWTs.
type JWTIssuer struct {
	secret    []byte
	issuer    string
	lifetime  time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

// NewJWTIssuer creates a JWTIssuer.
func NewJWTIssuer(secret, issuer string, lifetime time.Duration) (*JWTIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}
	return &JWTIssuer{
		secret:    []byte(secret),
		issuer:    issuer,
		lifetime:  lifetime,
		clockSkew: time.Minute,
		now:       time.Now,
	}, nil
}

// WithClock replaces the time source. Used by tests.
func (j *JWTIssuer) WithClock(now func() time.Time) *JWTIssuer {
	j.now = now
	return j
}

// Issue implements TokenIssuer.
func (j *JWTIssuer) Issue(user *User) (Token, error) {
	now := j.now()
	expiresAt := now.Add(j.lifetime)
	claims := jwtClaims{
		UserID: user.ID(),
		Email:  string(user.Email()),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   user.ID().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign access token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Validate implements TokenIssuer. Any parse or verification failure is
// reported as ErrInvalidToken.
func (j *JWTIssuer) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(j.issuer),
		jwt.WithLeeway(j.clockSkew),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return &Claims{UserID: claims.UserID, Email: claims.Email}, nil
}
