package httpserver

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// IPLimiter throttles each client IP independently.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// NewIPLimiter allows perMin requests per minute per IP, bursting up to perMin.
func NewIPLimiter(perMin int) *IPLimiter {
	if perMin <= 0 {
		perMin = 30
	}
	return &IPLimiter{
		visitors: map[string]*visitor{},
		every:    rate.Every(time.Minute / time.Duration(perMin)),
		burst:    perMin,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (l *IPLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.every, l.burst)}
		l.visitors[ip] = v
	}
	v.seen = now
	// sweep idle entries opportunistically
	if len(l.visitors) > 1024 {
		for k, o := range l.visitors {
			if now.Sub(o.seen) > l.idle {
				delete(l.visitors, k)
			}
		}
	}
	return v.lim.AllowN(now, 1)
}

func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(remoteIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(l.every)))))
			writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "token rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
