package config

import (
	"time"

	"github.com/spf13/viper"
)

type Claim struct {
	// One claim per faucet and IP is allowed within this trailing window
	RateLimitWindow time.Duration

	// Serialize rate limit check, broadcast and commit per faucet
	SerializePerFaucet bool

	// Number of claims returned by the recent claims endpoint
	RecentClaimsLimit int

	// Per IP request limit of the claim endpoint, requests per second. 0 disables
	IngressLimit float64

	// Burst of the per IP request limit
	IngressBurst int

	// How long an idle per IP limiter is kept
	IngressLimiterTTL time.Duration
}

func setClaimDefaults(v *viper.Viper) {
	v.SetDefault("Claim.RateLimitWindow", "24h")
	v.SetDefault("Claim.SerializePerFaucet", "false")
	v.SetDefault("Claim.RecentClaimsLimit", "10")
	v.SetDefault("Claim.IngressLimit", "0.2")
	v.SetDefault("Claim.IngressBurst", "5")
	v.SetDefault("Claim.IngressLimiterTTL", "10m")
}
