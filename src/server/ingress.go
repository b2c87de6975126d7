package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/bchfaucet/faucet/src/faucet"
	"github.com/bchfaucet/faucet/src/server/response"
	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Ingress limits the request rate of every client IP with a token bucket.
// Buckets of idle clients expire.
type Ingress struct {
	config   *config.Claim
	monitor  monitoring.Monitor
	limiters *cache.Cache
}

func NewIngress(config *config.Config) (self *Ingress) {
	self = new(Ingress)
	self.config = &config.Claim
	self.limiters = cache.New(config.Claim.IngressLimiterTTL, config.Claim.IngressLimiterTTL)
	return
}

func (self *Ingress) WithMonitor(monitor monitoring.Monitor) *Ingress {
	self.monitor = monitor
	return self
}

func (self *Ingress) limiter(ip string) *rate.Limiter {
	if v, ok := self.limiters.Get(ip); ok {
		// Extend expiry on use
		self.limiters.SetDefault(ip, v)
		return v.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rate.Limit(self.config.IngressLimit), self.config.IngressBurst)
	err := self.limiters.Add(ip, limiter, cache.DefaultExpiration)
	if err != nil {
		// Added concurrently
		if v, ok := self.limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

func (self *Ingress) Allow(ip string) bool {
	if self.config.IngressLimit <= 0 {
		return true
	}
	return self.limiter(ip).Allow()
}

func (self *Ingress) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if self.Allow(clientIP(c)) {
			c.Next()
			return
		}

		self.monitor.GetReport().Claimer.State.IngressRateLimited.Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, &response.Error{
			Error: "too many requests",
			Kind:  faucet.KindRateLimited,
		})
	}
}

// First X-Forwarded-For entry, remote address otherwise
func clientIP(c *gin.Context) string {
	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
