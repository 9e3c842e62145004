package http

import (
	"strings"

	"mehnda-chinji/internal/domain"
)

// URL prefixes of the two navigable areas.
const (
	authPrefix = "/auth"
	appPrefix  = "/app"
)

// routeOf maps a request path in a navigable area to an app route:
// /auth/login is /(auth)/login, /app/tabs/blood is /(tabs)/blood and
// /app/settings is /settings.
func routeOf(path string) domain.Route {
	path = "/" + strings.Trim(path, "/")
	switch {
	case path == authPrefix || strings.HasPrefix(path, authPrefix+"/"):
		return domain.Route("/" + domain.GroupAuth + strings.TrimPrefix(path, authPrefix))
	case path == appPrefix+"/tabs" || strings.HasPrefix(path, appPrefix+"/tabs/"):
		return domain.Route("/" + domain.GroupTabs + strings.TrimPrefix(path, appPrefix+"/tabs"))
	case strings.HasPrefix(path, appPrefix+"/"):
		return domain.Route(strings.TrimPrefix(path, appPrefix))
	}
	return domain.Route(path)
}

// pathOf is the inverse of routeOf.
func pathOf(route domain.Route) string {
	segs := route.Segments()
	if len(segs) == 0 {
		return "/"
	}
	switch segs[0] {
	case domain.GroupAuth:
		return authPrefix + "/" + strings.Join(segs[1:], "/")
	case domain.GroupTabs:
		return strings.TrimSuffix(appPrefix+"/tabs/"+strings.Join(segs[1:], "/"), "/")
	}
	return appPrefix + "/" + strings.Join(segs, "/")
}
