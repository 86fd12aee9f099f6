// Package routes classifies the client's current logical route as public or
// protected. Protected routes require the full credential triple before the
// gateway will even attempt a network call.
package routes

// publicPaths is the fixed allow-list of authentication-related routes.
// Everything else is protected.
var publicPaths = map[string]struct{}{
	"/":                {},
	"/login":           {},
	"/signup":          {},
	"/verify-email":    {},
	"/forgot-password": {},
	"/reset-password":  {},
	"/auth/callback":   {},
}

// IsPublic reports whether path is on the public allow-list.
// Matching is exact; there are no public subtrees.
func IsPublic(path string) bool {
	_, ok := publicPaths[path]
	return ok
}
