package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kevin-Kurka/webstarter/internal/domain"
)

const issuer = "webstarter"

// Claims carries the authenticated user identity inside a JWT.
type Claims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}

// Service issues and verifies signed bearer tokens.
type Service interface {
	// Generate signs a token for the given user ID and returns the token
	// string together with its expiry time.
	Generate(userID uint) (string, time.Time, error)
	// Parse verifies the signature and registered claims of a token string
	// and returns its claims. Invalid, expired, or tampered tokens return
	// a domain unauthorized error.
	Parse(tokenStr string) (*Claims, error)
}

type hmacService struct {
	secret []byte
	expiry time.Duration
}

// NewService creates a Service signing tokens with HMAC-SHA256.
func NewService(secret string, expiry time.Duration) (Service, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if expiry <= 0 {
		return nil, errors.New("token expiry must be greater than 0")
	}
	return &hmacService{secret: []byte(secret), expiry: expiry}, nil
}

func (s *hmacService) Generate(userID uint) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *hmacService) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeUnauthorized, "invalid token", err)
	}
	if !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
