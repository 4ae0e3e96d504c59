package middleware

import (
	"net/http"
	"sync"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"golang.org/x/time/rate"
)

// SubjectRateLimiter keeps one token bucket per token subject.
type SubjectRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit // requests per second
	b        int        // burst
}

func NewSubjectRateLimiter(r rate.Limit, b int) *SubjectRateLimiter {
	return &SubjectRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}
}

func (l *SubjectRateLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limiters[key] = limiter
	}

	return limiter
}

// RateLimitBySubject throttles each authenticated subject independently. A non-positive rate
// disables limiting. Must run after AuthRequired.
func RateLimitBySubject(r rate.Limit, b int) func(http.Handler) http.Handler {
	if r <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := NewSubjectRateLimiter(r, b)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.GetLimiter(Subject(req)).Allow() {
				response.TooManyRequests(w, "Too many requests from this client")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
