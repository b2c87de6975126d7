package config

import (
	"time"

	"github.com/spf13/viper"
)

type Watchtower struct {
	// Base urls of the indexer, one per network
	MainnetUrl string
	ChipnetUrl string

	// Subscription project ids, one per network
	ProjectId        string
	ChipnetProjectId string

	// Url of this service's webhook receiver, passed when subscribing addresses
	WebhookReceiverUrl string

	// Time limit for one request, including reading the body
	RequestTimeout time.Duration

	// How many times idempotent requests are retried upon server errors
	RetryCount int

	// Outbound request pacing, 0 means no limit
	RequestsPerSecond int

	// Transport
	DialerTimeout       time.Duration
	DialerKeepAlive     time.Duration
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
}

func setWatchtowerDefaults(v *viper.Viper) {
	v.SetDefault("Watchtower.MainnetUrl", "https://watchtower.cash/api/")
	v.SetDefault("Watchtower.ChipnetUrl", "https://chipnet.watchtower.cash/api/")
	v.SetDefault("Watchtower.ProjectId", "")
	v.SetDefault("Watchtower.ChipnetProjectId", "")
	v.SetDefault("Watchtower.WebhookReceiverUrl", "")
	v.SetDefault("Watchtower.RequestTimeout", "15s")
	v.SetDefault("Watchtower.RetryCount", "2")
	v.SetDefault("Watchtower.RequestsPerSecond", "10")
	v.SetDefault("Watchtower.DialerTimeout", "10s")
	v.SetDefault("Watchtower.DialerKeepAlive", "15s")
	v.SetDefault("Watchtower.IdleConnTimeout", "30s")
	v.SetDefault("Watchtower.TLSHandshakeTimeout", "10s")
}
