package auth

import (
	"context"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/validation"
	"github.com/2beens/fittrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=auth

const loginRateKeyPrefix = "fittrack-login||"

type usersRepo interface {
	Create(ctx context.Context, username, email, passwordHash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
}

type loginLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

type RegisterParams struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	users           usersRepo
	tokens          *TokenService
	hasher          pkg.PasswordHasher
	limiter         loginLimiter
	loginsPerMinute int
	metrics         *metrics.Manager
}

type NewServiceParams struct {
	Users   usersRepo
	Tokens  *TokenService
	Hasher  pkg.PasswordHasher
	Limiter loginLimiter
	// LoginsPerMinute <= 0 disables the limit
	LoginsPerMinute int
	Metrics         *metrics.Manager
}

func NewService(params NewServiceParams) *Service {
	hasher := params.Hasher
	if hasher == nil {
		hasher = pkg.BcryptHasher{}
	}
	return &Service{
		users:           params.Users,
		tokens:          params.Tokens,
		hasher:          hasher,
		limiter:         params.Limiter,
		loginsPerMinute: params.LoginsPerMinute,
		metrics:         params.Metrics,
	}
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.register")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := validation.Struct(params); err != nil {
		return 0, err
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindUnknown, err, "hash password")
	}

	userID, err := s.users.Create(ctx, params.Username, params.Email, hash)
	if err != nil {
		return 0, err
	}

	log.Debugf("user %d [%s] registered", userID, params.Username)
	return userID, nil
}

// Login checks the credentials and issues an access and a refresh token.
func (s *Service) Login(ctx context.Context, username, password string) (_ *TokenPair, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.checkLoginRate(ctx, username); err != nil {
		s.countLogin("rate_limited")
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if apperr.Is(err, apperr.KindNotFound) {
		s.countLogin("failed")
		return nil, apperr.Unauthorized("Could not validate user")
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		s.countLogin("failed")
		return nil, apperr.Unauthorized("Could not validate user")
	}

	pair, err := s.tokens.Issue(user, true)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, err, "issue tokens")
	}

	s.countLogin("ok")
	return pair, nil
}

// Refresh issues a new access token for a valid, not revoked refresh token of an existing user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (_ *TokenPair, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.refresh")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	claims, err := s.validRefreshClaims(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("User not found")
	}
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.Issue(user, false)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, err, "issue tokens")
	}
	return pair, nil
}

// Logout revokes the refresh token, so it can not be used for refreshing anymore.
func (s *Service) Logout(ctx context.Context, refreshToken string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.logout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	claims, err := s.validRefreshClaims(ctx, refreshToken)
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, claims)
}

func (s *Service) validRefreshClaims(ctx context.Context, refreshToken string) (*Claims, error) {
	claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	revoked, err := s.tokens.IsRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	return claims, nil
}

func (s *Service) checkLoginRate(ctx context.Context, username string) error {
	if s.limiter == nil || s.loginsPerMinute <= 0 {
		return nil
	}
	res, err := s.limiter.Allow(ctx, loginRateKeyPrefix+username, redis_rate.PerMinute(s.loginsPerMinute))
	if err != nil {
		// limiter backend down, do not lock everybody out
		log.Errorf("login rate limiter: %s", err)
		return nil
	}
	if res.Allowed == 0 {
		if s.metrics != nil {
			s.metrics.CounterRateLimitedRequests.Inc()
		}
		return apperr.Unauthorized("Too many login attempts, retry after %.0f seconds", res.RetryAfter.Seconds())
	}
	return nil
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.CounterLogins.WithLabelValues(outcome).Inc()
	}
}
