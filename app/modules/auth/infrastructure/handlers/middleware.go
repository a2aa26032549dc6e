package authhandlers

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	authservice "github.com/terrapulse/impact-service/app/modules/auth/application"
	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
	"github.com/terrapulse/impact-service/app/shared/attr"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle IP entry is eligible for cleanup.
	maxIdleAge = 10 * time.Minute

	// GuestSessionCookie carries the guest id between requests.
	GuestSessionCookie = "tp_guest_session"
	// GuestSessionHeader is the header alternative to the cookie.
	GuestSessionHeader = "X-Guest-Session"
	// GuestCookieTTL bounds the lifetime of the guest cookie.
	GuestCookieTTL = 24 * time.Hour
)

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is an IP-based rate limiter that prunes stale entries inline.
type IPRateLimiter struct {
	ips map[string]*ipEntry
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*ipEntry),
		r:   r,
		b:   b,
	}
}

// GetLimiter returns a rate.Limiter for the given IP, pruning stale entries when the
// map exceeds cleanupThreshold.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.ips) > cleanupThreshold {
		cutoff := time.Now().Add(-maxIdleAge)
		for k, e := range i.ips {
			if e.lastSeen.Before(cutoff) {
				delete(i.ips, k)
			}
		}
	}

	e, exists := i.ips[ip]
	if !exists {
		e = &ipEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = e
	}
	e.lastSeen = time.Now()

	return e.limiter
}

// RateLimitMiddleware returns a middleware that rate limits requests based on IP.
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.GetLimiter(ip).Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware returns a middleware that sets CORS headers for the configured origins.
// When allowedOrigins is empty, no CORS headers are added and the middleware is a no-op.
// A "*" entry allows every origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	_, wildcard := origins["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := origins[origin]; ok || wildcard {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+GuestSessionHeader)
					w.Header().Set("Access-Control-Expose-Headers", GuestSessionHeader)
					w.Header().Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SessionMiddleware resolves the caller and stores the session in the request
// context. Requests without a bearer token run as guests; the guest id is
// echoed in the X-Guest-Session header and newly minted ids also get a cookie.
func SessionMiddleware(service authservice.Service, logger *slog.Logger, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			resp, err := service.ResolveSession(ctx, authservice.SessionRequest{
				BearerToken: bearerToken(r),
				GuestID:     guestID(r),
			})
			if err != nil {
				logger.WarnContext(ctx, "Rejected request credentials", attr.Error(err))
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			if resp.Session.Guest {
				w.Header().Set(GuestSessionHeader, resp.Session.GuestID())
				if resp.NewGuest {
					http.SetCookie(w, &http.Cookie{
						Name:     GuestSessionCookie,
						Value:    resp.Session.GuestID(),
						Path:     "/",
						HttpOnly: true,
						Secure:   secureCookies,
						SameSite: http.SameSiteLaxMode,
						Expires:  time.Now().Add(GuestCookieTTL),
					})
				}
			}

			next.ServeHTTP(w, r.WithContext(authdomain.NewContext(ctx, resp.Session)))
		})
	}
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func guestID(r *http.Request) string {
	if id := r.Header.Get(GuestSessionHeader); id != "" {
		return id
	}
	if cookie, err := r.Cookie(GuestSessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
