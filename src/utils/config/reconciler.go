package config

import (
	"time"

	"github.com/spf13/viper"
)

type Reconciler struct {
	// How often stale balances are refreshed. 0 disables the periodic refresh
	Period time.Duration

	// Balances older than this are considered stale
	StaleAfter time.Duration

	// Max faucets refreshed in one period
	BatchSize int
}

func setReconcilerDefaults(v *viper.Viper) {
	v.SetDefault("Reconciler.Period", "10m")
	v.SetDefault("Reconciler.StaleAfter", "1h")
	v.SetDefault("Reconciler.BatchSize", "50")
}
