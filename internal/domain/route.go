package domain

import "strings"

// AuthState is the route guard's view of the session.
type AuthState string

const (
	AuthStateUndetermined    AuthState = "undetermined"
	AuthStateUnauthenticated AuthState = "unauthenticated"
	AuthStateAuthenticated   AuthState = "authenticated"
)

// Route group names. Routes are addressed as "/(group)/screen"; a route
// without a group belongs to the top level (splash, settings).
const (
	GroupAuth = "(auth)"
	GroupTabs = "(tabs)"
)

// Route is a navigable location in the app.
type Route string

const (
	RouteSplash   Route = "/"
	RouteWelcome  Route = "/(auth)/welcome"
	RouteLogin    Route = "/(auth)/login"
	RouteRegister Route = "/(auth)/register"
	RouteTabs     Route = "/(tabs)"
	RouteBlood    Route = "/(tabs)/blood"
	RouteBusiness Route = "/(tabs)/business"
	RouteSettings Route = "/settings"
)

// Segments splits the route into its path segments.
func (r Route) Segments() []string {
	trimmed := strings.Trim(string(r), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// InAuthGroup reports whether the route belongs to the unauthenticated flow.
func (r Route) InAuthGroup() bool {
	segs := r.Segments()
	return len(segs) > 0 && segs[0] == GroupAuth
}
