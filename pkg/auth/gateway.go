package auth

import (
	"net"
	"net/http"
	"strings"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/logger"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/utils"
)

// Gateway authenticates requests by API key, applies CORS headers, the
// IP whitelist and per-caller rate limits, and exposes the resolved key
// role to downstream handlers through the X-Role-Name header.
func Gateway(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogRequest(r)

			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,PATCH,OPTIONS")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-API-Key,X-User-ID,X-User-Name,X-User-Role,X-User-Signature")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if len(cfg.IPWhitelist) > 0 {
				ip := clientIP(r)
				if !ipWhitelisted(ip, cfg.IPWhitelist) {
					logger.Warn("request_blocked", "reason", "ip_not_whitelisted", "ip", ip, "path", r.URL.Path)
					utils.JSONError(w, http.StatusForbidden, "forbidden")
					return
				}
			}

			role, key := resolveKey(r, cfg)

			// unauthenticated liveness probes are allowed; deployment
			// systems cannot attach API keys
			if r.URL.Path == "/healthz" && r.Method == http.MethodGet {
				r.Header.Set("X-Role-Name", "unauth")
				next.ServeHTTP(w, r)
				return
			}

			if role == RoleUnauth {
				// a signed-user request without an API key is still valid;
				// signature middleware verifies it
				if r.Header.Get("X-User-ID") == "" || r.Header.Get("X-User-Signature") == "" {
					logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr)
					utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
			}

			limKey := key
			if limKey == "" {
				limKey = clientIP(r)
			}
			if cfg.RPS > 0 && !limiters.Allow(limKey) {
				logger.Warn("request_rate_limited", "path", r.URL.Path)
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			var roleName string
			switch role {
			case RoleFrontend:
				roleName = "frontend"
			case RoleBackend:
				roleName = "backend"
			case RoleAdmin:
				roleName = "admin"
			default:
				roleName = "unauth"
			}
			r.Header.Set("X-Role-Name", roleName)
			next.ServeHTTP(w, r)
		})
	}
}

func resolveKey(r *http.Request, cfg SecConfig) (Role, string) {
	key := r.Header.Get("X-API-Key")
	if key == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			key = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if key == "" {
		return RoleUnauth, ""
	}
	if _, ok := cfg.AdminKeys[key]; ok {
		return RoleAdmin, key
	}
	if _, ok := cfg.BackendKeys[key]; ok {
		return RoleBackend, key
	}
	if _, ok := cfg.FrontendKeys[key]; ok {
		return RoleFrontend, key
	}
	return RoleUnauth, ""
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	if h := r.Header.Get("X-Forwarded-For"); h != "" {
		parts := strings.Split(h, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func ipWhitelisted(ip string, whitelist []string) bool {
	for _, w := range whitelist {
		if w == ip {
			return true
		}
		if _, cidr, err := net.ParseCIDR(w); err == nil {
			if p := net.ParseIP(ip); p != nil && cidr.Contains(p) {
				return true
			}
		}
	}
	return false
}
