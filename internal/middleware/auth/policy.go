package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// AccessLevel is what a caller must prove to reach a route.
type AccessLevel int

const (
	// Admin is the zero value so that an unlisted route is closed.
	Admin AccessLevel = iota
	Authenticated
	Public
)

func (a AccessLevel) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	default:
		return "admin"
	}
}

func ParseAccessLevel(s string) (AccessLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return Public, nil
	case "authenticated":
		return Authenticated, nil
	case "admin":
		return Admin, nil
	}
	return Admin, fmt.Errorf("unknown access level %q", s)
}

// Policy maps a method and an Echo route template, such as
// "/api/v1/orders/:id", to its access level.
type Policy struct {
	routes map[string]AccessLevel
}

func NewPolicy() *Policy {
	return &Policy{routes: make(map[string]AccessLevel)}
}

func policyKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Set tags a route. It is meant to be called while routes are registered,
// before the server starts.
func (p *Policy) Set(method, path string, level AccessLevel) {
	p.routes[policyKey(method, path)] = level
}

// Level reports the access level of a route. HEAD follows GET and unknown
// routes are Admin.
func (p *Policy) Level(method, path string) AccessLevel {
	level, _ := p.Lookup(method, path)
	return level
}

// Lookup is Level that also reports whether the route is in the table.
func (p *Policy) Lookup(method, path string) (AccessLevel, bool) {
	if p == nil {
		return Admin, false
	}
	if level, ok := p.routes[policyKey(method, path)]; ok {
		return level, true
	}
	if method == http.MethodHead {
		if level, ok := p.routes[policyKey(http.MethodGet, path)]; ok {
			return level, true
		}
	}
	return Admin, false
}

// Routes lists the table as "METHOD path" -> level, for startup logging.
func (p *Policy) Routes() map[string]string {
	out := make(map[string]string, len(p.routes))
	for k, v := range p.routes {
		out[k] = v.String()
	}
	return out
}
