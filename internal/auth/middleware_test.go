package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-archive/internal/domain"
	"github.com/spec-kit/recipe-archive/internal/observability"
	"github.com/spec-kit/recipe-archive/internal/repository"
	apperrors "github.com/spec-kit/recipe-archive/pkg/util/errorutil"
)

type authFixture struct {
	app     *fiber.App
	tokens  *TokenManager
	users   repository.UserRepository
	alice   *domain.User
	calls   int
	lastCtx RequestContext
}

func newAuthFixture(t *testing.T, rules []RouteRule) *authFixture {
	t.Helper()
	f := &authFixture{users: repository.NewMemoryStore().Users()}
	f.alice = seedUser(t, f.users, "alice", "s3cret-pass")
	f.tokens, _ = newTestTokenManager(time.Hour)

	authn := NewAuthenticator(f.tokens, f.users, zap.NewNop(), observability.NewMetrics(prometheus.NewRegistry()))
	f.app = fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code, "message": de.Message})
		},
	})
	f.app.Use(authn.Handle, NewPolicy(rules).Handle)
	// Registering the authenticator twice must not re-run it.
	f.app.Use(authn.Handle)

	handler := func(c *fiber.Ctx) error {
		f.calls++
		f.lastCtx = FromContext(c)
		return c.SendStatus(http.StatusOK)
	}
	f.app.Get("/open", handler)
	f.app.Post("/closed", handler)
	return f
}

func (f *authFixture) do(t *testing.T, method, path, authorization string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

var testRules = []RouteRule{
	{Method: http.MethodGet, Pattern: "/open", Requirement: Public},
	{Method: http.MethodPost, Pattern: "/closed", Requirement: MustBeAuthenticated},
}

func TestAuthenticator_ValidTokenIdentifiesCaller(t *testing.T) {
	f := newAuthFixture(t, testRules)
	token, _, _ := f.tokens.Issue("alice")

	resp := f.do(t, http.MethodPost, "/closed", "Bearer "+token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !f.lastCtx.IsIdentified() || f.lastCtx.State() != domain.AuthStateIdentified {
		t.Fatal("request not identified")
	}
	id, _ := f.lastCtx.UserID()
	identity, _ := f.lastCtx.Identity()
	if id != f.alice.ID || identity.Subject != "alice" {
		t.Fatalf("identified as %d/%q", id, identity.Subject)
	}
}

func TestAuthenticator_SchemeIsCaseInsensitive(t *testing.T) {
	f := newAuthFixture(t, testRules)
	token, _, _ := f.tokens.Issue("alice")

	if resp := f.do(t, http.MethodPost, "/closed", "bearer  "+token); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAuthenticator_ProtectedRouteRejectsAnonymous(t *testing.T) {
	f := newAuthFixture(t, testRules)
	expiredToken := signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), pastClaims("alice"))

	cases := map[string]string{
		"no header":    "",
		"basic scheme": "Basic YWxpY2U6cHc=",
		"empty bearer": "Bearer ",
		"garbage":      "Bearer not-a-token",
		"expired":      "Bearer " + expiredToken,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			f.calls = 0
			resp := f.do(t, http.MethodPost, "/closed", header)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
			if f.calls != 0 {
				t.Fatal("handler ran for a rejected request")
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != "UNAUTHORIZED" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestAuthenticator_InvalidTokenOnPublicRouteIsAnonymous(t *testing.T) {
	f := newAuthFixture(t, testRules)

	resp := f.do(t, http.MethodGet, "/open", "Bearer broken.token.value")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if f.lastCtx.IsIdentified() {
		t.Fatal("invalid token identified the request")
	}
}

func TestAuthenticator_DeletedSubjectIsAnonymous(t *testing.T) {
	f := newAuthFixture(t, testRules)
	token, _, _ := f.tokens.Issue("alice")
	if err := f.users.Delete(context.Background(), f.alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if resp := f.do(t, http.MethodPost, "/closed", "Bearer "+token); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthenticator_UnknownRouteRequiresIdentity(t *testing.T) {
	f := newAuthFixture(t, testRules)
	if resp := f.do(t, http.MethodGet, "/elsewhere", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthenticator_Outcomes(t *testing.T) {
	users := repository.NewMemoryStore().Users()
	seedUser(t, users, "alice", "pw-pw-pw-pw")
	tokens, _ := newTestTokenManager(time.Hour)
	a := NewAuthenticator(tokens, users, nil, nil)

	valid, _, _ := tokens.Issue("alice")
	ghost, _, _ := tokens.Issue("ghost")

	cases := map[string]string{
		"":                   OutcomeAnonymous,
		"Token abc":          OutcomeAnonymous,
		"Bearer abc.def.ghi": OutcomeInvalidToken,
		"Bearer " + ghost:    OutcomeUnknownSubject,
		"Bearer " + valid:    OutcomeIdentified,
	}
	for header, want := range cases {
		rc, outcome := a.Authenticate(context.Background(), header)
		if outcome != want {
			t.Errorf("Authenticate(%q) outcome = %s, want %s", header, outcome, want)
		}
		if rc.IsIdentified() != (want == OutcomeIdentified) {
			t.Errorf("Authenticate(%q) identified = %v", header, rc.IsIdentified())
		}
	}
}

func TestAuthenticator_LookupFailureIsAnonymous(t *testing.T) {
	tokens, _ := newTestTokenManager(time.Hour)
	a := NewAuthenticator(tokens, failingStore{err: errors.New("db down")}, nil, nil)
	valid, _, _ := tokens.Issue("alice")

	rc, outcome := a.Authenticate(context.Background(), "Bearer "+valid)
	if outcome != OutcomeLookupFailed || rc.IsIdentified() {
		t.Fatalf("outcome = %s identified = %v", outcome, rc.IsIdentified())
	}
}

func TestRequestContext_AnonymousAccessors(t *testing.T) {
	rc := Anonymous()
	if rc.State() != domain.AuthStateUnauthenticated {
		t.Fatalf("state = %v", rc.State())
	}
	if _, ok := rc.UserID(); ok {
		t.Error("anonymous context reported a user id")
	}
	if _, ok := rc.Identity(); ok {
		t.Error("anonymous context reported an identity")
	}
}
