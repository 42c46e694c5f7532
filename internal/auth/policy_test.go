package auth

import (
	"net/http"
	"testing"
)

func TestPolicy_DefaultRules(t *testing.T) {
	p := NewPolicy(DefaultRules())

	cases := []struct {
		method, path string
		want         Requirement
	}{
		{http.MethodPost, "/auth/login", Public},
		{http.MethodGet, "/auth/anything/nested", Public},
		{http.MethodGet, "/health/live", Public},
		{http.MethodGet, "/health/ready", Public},
		{http.MethodGet, "/metrics", Public},

		{http.MethodGet, "/recipes", Public},
		{http.MethodGet, "/recipes/", Public},
		{http.MethodGet, "/recipes/5", Public},
		{http.MethodGet, "/recipes/user/3", Public},
		{http.MethodPost, "/recipes", MustBeAuthenticated},
		{http.MethodPost, "/recipes/", MustBeAuthenticated},
		{http.MethodPut, "/recipes/5", MustBeAuthenticated},
		{http.MethodDelete, "/recipes/5", MustBeAuthenticated},

		{http.MethodPost, "/users", Public},
		{http.MethodGet, "/users", Public},
		{http.MethodGet, "/users/7", Public},
		{http.MethodPatch, "/users/7", MustBeAuthenticated},
		{http.MethodDelete, "/users/7", MustBeAuthenticated},
		{http.MethodPost, "/users/7", MustBeAuthenticated},

		{http.MethodGet, "/recipesx", MustBeAuthenticated},
		{http.MethodGet, "/unknown", MustBeAuthenticated},
		{http.MethodGet, "/", MustBeAuthenticated},
		{http.MethodGet, "", MustBeAuthenticated},
		{http.MethodPost, "/metrics", MustBeAuthenticated},

		{http.MethodDelete, "/auth/../recipes/5", MustBeAuthenticated},
		{http.MethodDelete, "/recipes/./5", MustBeAuthenticated},
		{http.MethodGet, "//recipes//5", Public},
		{http.MethodGet, "recipes/5", Public},
	}
	for _, tc := range cases {
		if got := p.Evaluate(tc.method, tc.path); got != tc.want {
			t.Errorf("Evaluate(%s %q) = %v, want %v", tc.method, tc.path, got, tc.want)
		}
	}
}

func TestPolicy_FirstMatchWins(t *testing.T) {
	p := NewPolicy([]RouteRule{
		{Pattern: "/admin/public", Requirement: Public},
		{Pattern: "/admin/**", Requirement: MustBeAuthenticated},
		{Pattern: "/admin/public", Requirement: MustBeAuthenticated},
	})
	if got := p.Evaluate(http.MethodGet, "/admin/public"); got != Public {
		t.Errorf("got %v, want public", got)
	}
	if got := p.Evaluate(http.MethodGet, "/admin/other"); got != MustBeAuthenticated {
		t.Errorf("got %v, want authenticated", got)
	}
}

func TestPolicy_EmptyTableDeniesEverything(t *testing.T) {
	p := NewPolicy(nil)
	if got := p.Evaluate(http.MethodGet, "/recipes"); got != MustBeAuthenticated {
		t.Errorf("got %v, want authenticated", got)
	}
}

func TestNewPolicy_CopiesRules(t *testing.T) {
	rules := []RouteRule{{Pattern: "/open", Requirement: Public}}
	p := NewPolicy(rules)
	rules[0].Requirement = MustBeAuthenticated

	if got := p.Evaluate(http.MethodGet, "/open"); got != Public {
		t.Errorf("policy changed after caller mutated its slice: %v", got)
	}
}
