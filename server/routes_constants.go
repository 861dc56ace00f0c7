package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - mounted primary session library surface
	RouteAuthPrefix   = "/api/auth/"
	RouteAuthCallback = "/api/auth/callback/google"
	RouteKVSession    = "/api/auth/kv-session/{dbToken}"

	// Session Management Routes
	RouteDeleteSession = "/api/delete-session"

	// Protected API Routes
	RouteMe = "/v1/me"

	// Service Routes
	RouteIndex  = "/"
	RouteHealth = "/health"
)
