package routegroups

import "net/http"

type Guards struct {
	WithRole          func(http.HandlerFunc) http.HandlerFunc
	RequirePermission func(string) func(http.HandlerFunc) http.HandlerFunc
}

// RolePerm wraps h so it runs only for a resolved role holding perm.
func (g Guards) RolePerm(perm string, h http.HandlerFunc) http.HandlerFunc {
	return g.WithRole(g.RequirePermission(perm)(h))
}
