package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Page Routes
	RouteIndex = "/"

	// Auth Routes - Login & Logout
	RouteLogin        = "/login"
	RouteLogout       = "/logout"
	RouteAuthCallback = "/auth/callback"

	// API Routes
	RouteAPIStatus  = "/api/status"
	RouteAPIProfile = "/api/user/profile"
	RouteAPICourses = "/api/courses"
	RouteAPIPrefix  = "/api/"
)
