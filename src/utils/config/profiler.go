package config

import (
	"github.com/spf13/viper"
)

type Profiler struct {
	// Are profiling endpoints registered
	Enabled bool
}

func setProfilerDefaults(v *viper.Viper) {
	v.SetDefault("Profiler.Enabled", "false")
}
