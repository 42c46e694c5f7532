package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-archive/internal/domain"
	"github.com/spec-kit/recipe-archive/internal/observability"
	"github.com/spec-kit/recipe-archive/internal/repository"
)

const requestContextKey = "auth_request_context"

// Outcome labels recorded for every authenticated request.
const (
	OutcomeIdentified     = "identified"
	OutcomeAnonymous      = "anonymous"
	OutcomeInvalidToken   = "invalid_token"
	OutcomeUnknownSubject = "unknown_subject"
	OutcomeLookupFailed   = "lookup_failed"
)

// RequestContext is the per-request authentication result. It is never
// modified after the authenticator builds it.
type RequestContext struct {
	state    domain.AuthState
	identity domain.Identity
	user     domain.User
}

// Anonymous returns the context of a request without a usable token.
func Anonymous() RequestContext {
	return RequestContext{state: domain.AuthStateUnauthenticated}
}

// Identified returns the context of a request carrying a valid token for user.
func Identified(identity domain.Identity, user domain.User) RequestContext {
	return RequestContext{state: domain.AuthStateIdentified, identity: identity, user: user}
}

// State reports whether the request was identified.
func (rc RequestContext) State() domain.AuthState {
	return rc.state
}

// IsIdentified is shorthand for State() == AuthStateIdentified.
func (rc RequestContext) IsIdentified() bool {
	return rc.state == domain.AuthStateIdentified
}

// Identity returns the token identity of an identified request.
func (rc RequestContext) Identity() (domain.Identity, bool) {
	return rc.identity, rc.IsIdentified()
}

// User returns a copy of the caller's account as resolved during authentication.
func (rc RequestContext) User() (domain.User, bool) {
	return rc.user, rc.IsIdentified()
}

// UserID returns the caller's account id.
func (rc RequestContext) UserID() (int64, bool) {
	return rc.user.ID, rc.IsIdentified()
}

// FromContext returns the authentication result attached to c, or Anonymous
// when the authenticator has not run.
func FromContext(c *fiber.Ctx) RequestContext {
	if rc, ok := c.Locals(requestContextKey).(RequestContext); ok {
		return rc
	}
	return Anonymous()
}

// SubjectOf returns the identified subject of c, or "".
func SubjectOf(c *fiber.Ctx) string {
	identity, ok := FromContext(c).Identity()
	if !ok {
		return ""
	}
	return identity.Subject
}

// Authenticator resolves bearer tokens into a RequestContext. It never rejects
// a request; the Policy decides what anonymous callers may reach.
type Authenticator struct {
	tokens  *TokenManager
	users   CredentialStore
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAuthenticator constructs middleware.
func NewAuthenticator(tokens *TokenManager, users CredentialStore, logger *zap.Logger, metrics *observability.Metrics) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{tokens: tokens, users: users, logger: logger, metrics: metrics}
}

// Handle attaches the RequestContext and continues the chain. It runs at most
// once per request.
func (a *Authenticator) Handle(c *fiber.Ctx) error {
	if _, done := c.Locals(requestContextKey).(RequestContext); done {
		return c.Next()
	}
	rc, outcome := a.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	a.metrics.RecordTokenValidation(outcome)
	c.Locals(requestContextKey, rc)
	return c.Next()
}

// Authenticate resolves an Authorization header value and reports the outcome label.
func (a *Authenticator) Authenticate(ctx context.Context, authHeader string) (RequestContext, string) {
	token, ok := bearerToken(authHeader)
	if !ok {
		return Anonymous(), OutcomeAnonymous
	}

	identity, err := a.tokens.Parse(token)
	if err != nil {
		return Anonymous(), OutcomeInvalidToken
	}

	// The account may have been deleted since the token was issued.
	user, err := a.users.GetByUsername(ctx, identity.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return Anonymous(), OutcomeUnknownSubject
	}
	if err != nil {
		a.logger.Warn("subject lookup failed; treating request as anonymous",
			zap.String("subject", identity.Subject), zap.Error(err))
		return Anonymous(), OutcomeLookupFailed
	}

	return Identified(identity, *user), OutcomeIdentified
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
