package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig lists what cross-origin callers of the echo server may do.
// An AllowedOrigins entry of "*" admits every origin.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers" mapstructure:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
	// MaxAge is how long, in seconds, a preflight answer may be cached.
	MaxAge int `yaml:"max_age" mapstructure:"max_age" validate:"gte=0"`
}

// ApplyDefaults admits any origin with the methods the echo routes serve.
func (c *CORSConfig) ApplyDefaults() {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{"X-Request-Id"}
	}
}

// corsPolicy is a CORSConfig with its header values joined once.
type corsPolicy struct {
	anyOrigin   bool
	origins     []string
	methods     string
	headers     string
	exposed     string
	credentials bool
	maxAge      string
}

func newCORSPolicy(cfg *CORSConfig) *corsPolicy {
	p := &corsPolicy{
		anyOrigin:   slices.Contains(cfg.AllowedOrigins, "*"),
		origins:     cfg.AllowedOrigins,
		methods:     strings.Join(cfg.AllowedMethods, ", "),
		headers:     strings.Join(cfg.AllowedHeaders, ", "),
		exposed:     strings.Join(cfg.ExposedHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	return slices.ContainsFunc(p.origins, func(o string) bool {
		return strings.EqualFold(o, origin)
	})
}

// apply writes the response headers for an admitted origin.
func (p *corsPolicy) apply(h http.Header, origin string, preflight bool) {
	if !p.anyOrigin {
		h.Add("Vary", "Origin")
	}
	if origin == "" || !p.allows(origin) {
		return
	}
	h.Set("Access-Control-Allow-Origin", origin)
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if p.methods != "" {
		h.Set("Access-Control-Allow-Methods", p.methods)
	}
	if p.headers != "" {
		h.Set("Access-Control-Allow-Headers", p.headers)
	}
	if preflight {
		if p.maxAge != "" {
			h.Set("Access-Control-Max-Age", p.maxAge)
		}
	} else if p.exposed != "" {
		h.Set("Access-Control-Expose-Headers", p.exposed)
	}
}

// CORS answers preflight requests with 204 and decorates every other
// response for admitted origins. A bare OPTIONS without
// Access-Control-Request-Method is not a preflight and reaches next,
// so /anything can echo it.
func CORS(cfg *CORSConfig) Middleware {
	policy := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			policy.apply(w.Header(), r.Header.Get("Origin"), preflight)
			if preflight {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
