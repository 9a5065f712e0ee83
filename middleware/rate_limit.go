package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Each IP gets its own limiter plus a lastSeen stamp for the sweeper.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a map<ip, limiter>.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	reqPerMin int
	burst     int
	ttl       time.Duration
}

// reqPerMin e.g. 10, burst 5, ttl 5 minutes (idle IPs get swept).
func NewIPRateLimiter(reqPerMin, burst int, ttl time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		visitors:  make(map[string]*visitor),
		reqPerMin: reqPerMin,
		burst:     burst,
		ttl:       ttl,
	}
	go rl.cleanupVisitors()
	return rl
}

func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.visitors[ip]; ok {
		v.lastSeen = time.Now()
		return v.limiter
	}

	rps := float64(rl.reqPerMin) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), rl.burst)
	rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (rl *IPRateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > rl.ttl {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func RateLimitByIP(rl *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP() // honors X-Forwarded-For once TrustedProxies is set
		limiter := rl.getLimiter(ip)
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too Many Requests",
				"hint":    "Please try again in a few minutes.",
			})
			return
		}
		c.Next()
	}
}

// Per-endpoint limiter instances.
var (
	// POST /api/surveys: 10 requests/min/IP, burst 5
	SurveyCreateLimiter = NewIPRateLimiter(10, 5, 5*time.Minute)
	// POST /api/public/surveys/:id/responses: 30 requests/min/IP, burst 10
	ResponseSubmitLimiter = NewIPRateLimiter(30, 10, 5*time.Minute)
	// POST /api/surveys/:id/analyze: LLM calls are expensive, keep this tight
	AnalyzeLimiter = NewIPRateLimiter(5, 2, 5*time.Minute)
)

func RateLimitSurveyCreate() gin.HandlerFunc   { return RateLimitByIP(SurveyCreateLimiter) }
func RateLimitResponseSubmit() gin.HandlerFunc { return RateLimitByIP(ResponseSubmitLimiter) }
func RateLimitAnalyze() gin.HandlerFunc        { return RateLimitByIP(AnalyzeLimiter) }
