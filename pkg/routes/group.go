package routes

import "net/http"

// Group organizes routes under a common prefix with shared tags.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, child)
	}
}

// Protect returns a copy of the group with every non-GET route wrapped in
// the given middleware, recursively through child groups. GET routes pass
// through untouched.
func Protect(group Group, mw func(http.Handler) http.Handler) Group {
	protected := Group{
		Prefix: group.Prefix,
		Routes: make([]Route, len(group.Routes)),
	}

	for i, route := range group.Routes {
		if route.Method == http.MethodGet {
			protected.Routes[i] = route
			continue
		}
		wrapped := mw(route.Handler)
		protected.Routes[i] = Route{
			Method:  route.Method,
			Pattern: route.Pattern,
			Handler: wrapped.ServeHTTP,
		}
	}

	for _, child := range group.Children {
		protected.Children = append(protected.Children, Protect(child, mw))
	}

	return protected
}
