package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/recipe-archive/internal/auth"
	"github.com/spec-kit/recipe-archive/internal/events"
	"github.com/spec-kit/recipe-archive/internal/observability"
	apperrors "github.com/spec-kit/recipe-archive/pkg/util/errorutil"
)

// Login outcome labels.
const (
	LoginSucceeded = "success"
	LoginFailed    = "failure"
	LoginThrottled = "throttled"
	LoginErrored   = "error"
)

// LoginResult is returned to a caller whose credentials verified.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Username  string
	UserID    int64
}

// AuthService is the only place access tokens are minted.
type AuthService struct {
	verifier *auth.CredentialVerifier
	tokens   *auth.TokenManager
	throttle auth.LoginThrottle
	metrics  *observability.Metrics
	logger   *zap.Logger
	events   publisher
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	Verifier   *auth.CredentialVerifier
	Tokens     *auth.TokenManager
	Throttle   auth.LoginThrottle
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAuthService builds the service. A nil Throttle disables throttling.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		verifier: deps.Verifier,
		tokens:   deps.Tokens,
		throttle: deps.Throttle,
		metrics:  deps.Metrics,
		logger:   logger,
		events:   publisher{dispatcher: deps.Dispatcher, logger: logger},
	}
}

// AllowAttempt spends one login attempt for (clientIP, username). Throttle
// backend failures are logged and the attempt is allowed.
func (s *AuthService) AllowAttempt(ctx context.Context, clientIP, username string) error {
	if s.throttle == nil {
		return nil
	}
	allowed, err := s.throttle.Allow(ctx, auth.LoginThrottleKey(clientIP, username))
	if err != nil {
		s.logger.Warn("login throttle unavailable; allowing attempt", zap.Error(err))
		return nil
	}
	if !allowed {
		s.metrics.RecordLogin(LoginThrottled)
		return apperrors.NewTooManyRequests("Too many login attempts, try again later")
	}
	return nil
}

// Login verifies credentials and issues a token for the account. An unknown
// username and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.verifier.Verify(ctx, username, password)
	if errors.Is(err, auth.ErrAuthFailure) {
		s.metrics.RecordLogin(LoginFailed)
		s.events.publish(ctx, events.NewEvent(events.EventLoginFailed, username, 0,
			events.LoginFailedPayload{Reason: "invalid_credentials"}))
		return nil, apperrors.NewInvalidCredentials()
	}
	if err != nil {
		s.metrics.RecordLogin(LoginErrored)
		return nil, apperrors.NewInternalError(err)
	}

	token, identity, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.metrics.RecordLogin(LoginErrored)
		return nil, apperrors.NewInternalError(err)
	}

	s.metrics.RecordLogin(LoginSucceeded)
	s.events.publish(ctx, events.NewEvent(events.EventLoginSucceeded, user.Username, user.ID, nil))
	return &LoginResult{
		Token:     token,
		ExpiresAt: identity.ExpiresAt,
		Username:  user.Username,
		UserID:    user.ID,
	}, nil
}
