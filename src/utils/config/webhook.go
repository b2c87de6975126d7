package config

import (
	"time"

	"github.com/spf13/viper"
)

type Webhook struct {
	// Address of the webhook receiver
	ListenAddress string

	// Workers reconciling balances of notified addresses
	NumWorkers int

	// Max time reconciliation is retried after a notification. 0 means no retrying
	ReconcileMaxElapsedTime time.Duration

	// Max time between reconciliation retries
	ReconcileMaxInterval time.Duration
}

func setWebhookDefaults(v *viper.Viper) {
	v.SetDefault("Webhook.ListenAddress", ":8001")
	v.SetDefault("Webhook.NumWorkers", "5")
	v.SetDefault("Webhook.ReconcileMaxElapsedTime", "1m")
	v.SetDefault("Webhook.ReconcileMaxInterval", "10s")
}
