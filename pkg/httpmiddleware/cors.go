package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig describes which browser origins may call the API.
type CORSConfig struct {
	// AllowOrigins lists the storefront and admin origins. Empty or "*"
	// allows every origin.
	AllowOrigins []string

	// AllowMethods advertised on preflight. Empty means the API's verb set:
	// GET, POST, PUT, PATCH, DELETE, OPTIONS.
	AllowMethods []string

	// AllowHeaders advertised on preflight. Empty echoes whatever headers
	// the preflight asked for.
	AllowHeaders []string

	// ExposeHeaders the browser may read off responses.
	ExposeHeaders []string

	// AllowCredentials permits cookies and Authorization headers. Incompatible
	// with the wildcard origin, so setting it forces exact origin matching.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header; negative sends "0" to disable caching.
	MaxAge int
}

// corsPolicy holds the header values precomputed from a CORSConfig.
type corsPolicy struct {
	wildcard    bool
	origins     map[string]string // lowercased origin -> configured spelling
	methods     string
	headers     string
	expose      string
	maxAge      string
	credentials bool
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		wildcard:    len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, origin := range cfg.AllowOrigins {
		if origin == "*" {
			p.wildcard = true
			break
		}
		p.origins[strings.ToLower(origin)] = origin
	}
	// Credentialed responses must name the origin, never "*".
	if p.credentials {
		p.wildcard = false
	}
	if p.methods == "" {
		p.methods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		p.maxAge = "0"
	}
	return p
}

// allowed maps a request origin onto the Access-Control-Allow-Origin value,
// or "" when the origin is not permitted. Matching is case-insensitive but
// the configured spelling is echoed back.
func (p *corsPolicy) allowed(origin string) string {
	if p.wildcard {
		return "*"
	}
	return p.origins[strings.ToLower(origin)]
}

func (p *corsPolicy) preflight(w http.ResponseWriter, r *http.Request, allowOrigin string) {
	// Vary on everything the answer depends on, or a shared cache may serve
	// one origin's preflight to another.
	w.Header().Add("Vary", "Origin")
	w.Header().Add("Vary", "Access-Control-Request-Method")
	w.Header().Add("Vary", "Access-Control-Request-Headers")

	if allowOrigin == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", p.methods)
	if p.headers != "" {
		w.Header().Set("Access-Control-Allow-Headers", p.headers)
	} else if asked := r.Header.Get("Access-Control-Request-Headers"); asked != "" {
		w.Header().Set("Access-Control-Allow-Headers", asked)
	}
	if p.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if p.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", p.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *corsPolicy) actual(w http.ResponseWriter, allowOrigin string) {
	if !p.wildcard {
		w.Header().Add("Vary", "Origin")
	}
	if allowOrigin == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
	if p.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if p.expose != "" {
		w.Header().Set("Access-Control-Expose-Headers", p.expose)
	}
}

// CORS answers preflights and stamps cross-origin response headers so the
// browser storefront can call the API directly.
func CORS(cfg CORSConfig) Middleware {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin or non-browser caller; still vary for caches.
				if !policy.wildcard {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			allowOrigin := policy.allowed(origin)
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				policy.preflight(w, r, allowOrigin)
				return
			}

			policy.actual(w, allowOrigin)
			next.ServeHTTP(w, r)
		})
	}
}
