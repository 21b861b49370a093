package constant

// HeaderRequestID carries the request correlation id.
const HeaderRequestID = "X-Request-Id"

// Route group prefixes served by the API.
const (
	RouteUsers   = "/api/users"
	RouteAuth    = "/api/auth"
	RouteProfile = "/api/profile"
	RoutePosts   = "/api/posts"
)
