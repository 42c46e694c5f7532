package auth

import (
	"net/http"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/recipe-archive/pkg/util/errorutil"
)

// Requirement is the identity state a route demands.
type Requirement int

const (
	Public Requirement = iota
	MustBeAuthenticated
)

func (r Requirement) String() string {
	if r == Public {
		return "public"
	}
	return "authenticated"
}

// RouteRule binds a method and path pattern to a Requirement. An empty Method
// matches every method. A pattern ending in "/**" matches its prefix and every
// path below it; any other pattern must match exactly.
type RouteRule struct {
	Method      string
	Pattern     string
	Requirement Requirement
}

func (r RouteRule) matches(method, p string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	return p == r.Pattern
}

// DefaultRules is the route table of the recipe archive, in evaluation order.
func DefaultRules() []RouteRule {
	return []RouteRule{
		{Pattern: "/auth/**", Requirement: Public},
		{Method: http.MethodGet, Pattern: "/health/**", Requirement: Public},
		{Method: http.MethodGet, Pattern: "/metrics", Requirement: Public},
		{Method: http.MethodPost, Pattern: "/users", Requirement: Public},
		{Method: http.MethodGet, Pattern: "/recipes/**", Requirement: Public},
		{Method: http.MethodGet, Pattern: "/users/**", Requirement: Public},

		{Method: http.MethodPost, Pattern: "/recipes", Requirement: MustBeAuthenticated},
		{Method: http.MethodPut, Pattern: "/recipes/**", Requirement: MustBeAuthenticated},
		{Method: http.MethodDelete, Pattern: "/recipes/**", Requirement: MustBeAuthenticated},
		{Method: http.MethodPatch, Pattern: "/users/**", Requirement: MustBeAuthenticated},
		{Method: http.MethodDelete, Pattern: "/users/**", Requirement: MustBeAuthenticated},
	}
}

// Policy evaluates an ordered rule table; the first matching rule wins and
// unmatched requests must be authenticated.
type Policy struct {
	rules []RouteRule
}

// NewPolicy copies rules into a new Policy.
func NewPolicy(rules []RouteRule) *Policy {
	return &Policy{rules: append([]RouteRule(nil), rules...)}
}

// Evaluate returns the requirement for a request.
func (p *Policy) Evaluate(method, requestPath string) Requirement {
	cleaned := normalizePath(requestPath)
	for _, rule := range p.rules {
		if rule.matches(method, cleaned) {
			return rule.Requirement
		}
	}
	return MustBeAuthenticated
}

// Handle rejects anonymous requests to protected routes before any handler runs.
// It must be registered after the Authenticator.
func (p *Policy) Handle(c *fiber.Ctx) error {
	if p.Evaluate(c.Method(), c.Path()) == Public || FromContext(c).IsIdentified() {
		return c.Next()
	}
	return apperrors.NewUnauthorized(http.StatusText(http.StatusUnauthorized))
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
