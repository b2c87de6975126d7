package config

import (
	"github.com/spf13/viper"
)

type Admin struct {
	// Basic auth credentials of the admin API. Empty password disables the admin API
	Username string
	Password string
}

func setAdminDefaults(v *viper.Viper) {
	v.SetDefault("Admin.Username", "admin")
	v.SetDefault("Admin.Password", "")
}
