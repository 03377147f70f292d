package middleware

import (
	"net/http"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"strconv"
	"sync"
	"time"
)

// RequesterExtractor picks the identity a request is rate limited under.
type RequesterExtractor func(r *http.Request) string

// RequesterRateLimiter is a sliding-window limiter keyed by requester id.
type RequesterRateLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor RequesterExtractor
	log       *logger.Logger
	stopCh    chan struct{}
	once      sync.Once
	now       func() time.Time
}

func NewRequesterRateLimiter(limit int, window time.Duration, extractor RequesterExtractor, log *logger.Logger) *RequesterRateLimiter {
	if extractor == nil {
		extractor = httputil.RequesterID
	}
	limiter := &RequesterRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RequesterRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for requester, timestamps := range rl.requests {
				if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, requester)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RequesterRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// Allow records an attempt for requester and reports whether it fits in the
// window. The check and the record happen under one lock.
func (rl *RequesterRateLimiter) Allow(requester string) bool {
	if requester == "" {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	timestamps := rl.requests[requester]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[requester] = valid
		return false
	}

	rl.requests[requester] = append(valid, now)
	return true
}

// RateLimit applies limiter to write requests only; reads are not limited.
func RateLimit(limiter *RequesterRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			requester := limiter.extractor(r)
			if !limiter.Allow(requester) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"requester_id", requester,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
				_ = httputil.WriteError(w, apperrors.New(apperrors.CodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
