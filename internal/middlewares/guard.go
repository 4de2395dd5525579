package middlewares

import (
	"net/http"
	"strings"

	"jeeforces/internal/services"

	"github.com/gin-gonic/gin"
)

type GuardDecision int

const (
	Allow GuardDecision = iota
	RedirectSignIn
	RedirectDashboard
)

const (
	signInPath    = "/sign-in"
	dashboardPath = "/dashboard"
)

var (
	guestOnlyPaths = []string{"/sign-in", "/sign-up"}
	adminPaths     = []string{"/admin", "/admin/**", "/contests/create", "/problems/create"}
	sessionPaths   = []string{"/dashboard", "/dashboard/**", "/practice", "/revise", "/agent", "/agent/**"}
)

// matchPath matches exact paths and "/prefix/**" subtree patterns.
func matchPath(path string, patterns []string) bool {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "/**"); ok {
			if strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

// Decide applies the page access rules in order: signed-in users skip the auth pages,
// the admin tier sends every non-admin to the dashboard, and the session tier sends
// anonymous users to sign in. Everything else is allowed.
func Decide(path string, identity *services.Identity) GuardDecision {
	switch {
	case identity != nil && matchPath(path, guestOnlyPaths):
		return RedirectDashboard
	case matchPath(path, adminPaths) && !identity.IsAdmin():
		return RedirectDashboard
	case matchPath(path, sessionPaths) && identity == nil:
		return RedirectSignIn
	default:
		return Allow
	}
}

// RouteGuard redirects page requests according to Decide. It must run after SessionMiddleware.
func RouteGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := CurrentIdentity(c)

		switch Decide(c.Request.URL.Path, identity) {
		case RedirectSignIn:
			c.Redirect(http.StatusTemporaryRedirect, signInPath)
			c.Abort()
		case RedirectDashboard:
			c.Redirect(http.StatusTemporaryRedirect, dashboardPath)
			c.Abort()
		default:
			c.Next()
		}
	}
}
