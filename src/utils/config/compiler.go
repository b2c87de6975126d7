package config

import (
	"time"

	"github.com/spf13/viper"
)

type Compiler struct {
	// Node.js binary used to run the contract scripts
	NodePath string

	// Entry script exposing compileFaucetContract, faucetClaim and faucetSweep
	ScriptPath string

	// Max time of a single script invocation
	Timeout time.Duration
}

func setCompilerDefaults(v *viper.Viper) {
	v.SetDefault("Compiler.NodePath", "node")
	v.SetDefault("Compiler.ScriptPath", "js/runner.js")
	v.SetDefault("Compiler.Timeout", "30s")
}
