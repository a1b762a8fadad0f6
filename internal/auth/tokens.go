package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	revokedKeyPrefix = "fittrack-revoked-jti||"
)

type Claims struct {
	UserID int    `json:"id"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// TokenService signs and verifies HS256 tokens. Revoked refresh tokens are kept in redis until they expire.
type TokenService struct {
	secret      []byte
	issuer      string
	redisClient redis.Cmdable
	// injectable for tests
	now func() time.Time
}

func NewTokenService(secret, issuer string, redisClient redis.Cmdable) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret not set")
	}
	return &TokenService{
		secret:      []byte(secret),
		issuer:      issuer,
		redisClient: redisClient,
		now:         time.Now,
	}, nil
}

func (s *TokenService) Issue(user *User, withRefresh bool) (*TokenPair, error) {
	access, err := s.sign(user, TokenTypeAccess, AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	pair := &TokenPair{
		AccessToken: access,
		TokenType:   "bearer",
	}
	if withRefresh {
		pair.RefreshToken, err = s.sign(user, TokenTypeRefresh, RefreshTokenTTL)
		if err != nil {
			return nil, err
		}
	}
	return pair, nil
}

func (s *TokenService) sign(user *User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Parse verifies signature, issuer, expiry and the token type.
func (s *TokenService) Parse(token, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "Invalid or expired token")
	}
	if claims.Type != wantType {
		return nil, apperr.Unauthorized("Invalid token type")
	}
	if claims.Subject == "" || claims.UserID <= 0 {
		return nil, apperr.Unauthorized("Invalid token payload")
	}
	return claims, nil
}

func (s *TokenService) ParseAccess(token string) (*Claims, error) {
	return s.Parse(token, TokenTypeAccess)
}

// Revoke marks the token id as unusable for the rest of its lifetime.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.tokens.revoke")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redisClient.Set(ctx, revokedKeyPrefix+claims.ID, strconv.Itoa(claims.UserID), ttl).Err(); err != nil {
		return apperr.Wrap(apperr.KindStorageUnavailable, err, "revoke token")
	}
	return nil
}

func (s *TokenService) IsRevoked(ctx context.Context, claims *Claims) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.tokens.revoked")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	n, err := s.redisClient.Exists(ctx, revokedKeyPrefix+claims.ID).Result()
	if err != nil {
		return false, apperr.Wrap(apperr.KindStorageUnavailable, err, "check revoked token")
	}
	return n > 0, nil
}
