package handler

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/logger"
	"golang.org/x/time/rate"
)

// Logger writes one access log line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.Infof("%s %s %d %dB %s [%s]",
			r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start).Round(time.Microsecond),
			middleware.GetReqID(r.Context()))
	})
}

// CORS allows browser calls from any origin and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Admin-Password, X-Test-Secret")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secretMatches compares in constant time. An unset expected secret never
// matches.
func secretMatches(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// requireAdmin gates next behind the admin password, read from the
// Admin-Password header, the password query parameter, or the adminPassword
// field of a JSON body. Callers are rate limited per client address before
// the password is checked.
func (h *RegistrationHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		pw := r.Header.Get("Admin-Password")
		if pw == "" {
			pw = r.URL.Query().Get("password")
		}
		if pw == "" {
			pw = bodyAdminPassword(w, r)
		}
		if !secretMatches(pw, h.opts.AdminPassword) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bodyAdminPassword reads adminPassword from a JSON body and restores the
// body for the next handler.
func bodyAdminPassword(w http.ResponseWriter, r *http.Request) string {
	if r.Body == nil || r.Method != http.MethodPost {
		return ""
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		AdminPassword string `json:"adminPassword"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	return body.AdminPassword
}

// clientKey is the client address without port. RealIP has already applied
// X-Forwarded-For when present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

const (
	limiterIdle    = 10 * time.Minute
	limiterMaxSize = 4096
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps one token bucket per client key.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	limit   rate.Limit
	burst   int
}

// NewClientLimiter allows perSecond sustained requests with the given burst.
func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		clients: make(map[string]*clientEntry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
}

// Allow reports whether key may make a request now.
func (l *ClientLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= limiterMaxSize {
			l.evict(now)
		}
		e = &clientEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// evict drops clients idle for longer than limiterIdle. When none are, it
// drops the least recently seen one so the map stays under limiterMaxSize.
func (l *ClientLimiter) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, e := range l.clients {
		if now.Sub(e.lastSeen) > limiterIdle {
			delete(l.clients, k)
			continue
		}
		if oldestKey == "" || e.lastSeen.Before(oldest) {
			oldestKey, oldest = k, e.lastSeen
		}
	}
	if len(l.clients) >= limiterMaxSize {
		delete(l.clients, oldestKey)
	}
}

func (l *ClientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
