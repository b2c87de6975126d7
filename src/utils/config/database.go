package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

type Database struct {
	// postgres or sqlite
	Driver string

	Port     uint16
	Host     string
	User     string
	Password string
	Name     string
	SslMode  string

	// Sqlite file path. Empty means a shared in-memory database
	Path string

	PingTimeout time.Duration

	// Connection pool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	// Migrations are run with this user, empty skips migrations
	MigrationUser     string
	MigrationPassword string
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("Database.Driver", DriverPostgres)
	v.SetDefault("Database.Port", "5432")
	v.SetDefault("Database.Host", "127.0.0.1")
	v.SetDefault("Database.User", "postgres")
	v.SetDefault("Database.Password", "postgres")
	v.SetDefault("Database.Name", "faucet")
	v.SetDefault("Database.SslMode", "disable")
	v.SetDefault("Database.Path", "")
	v.SetDefault("Database.PingTimeout", "15s")
	v.SetDefault("Database.MaxOpenConns", "10")
	v.SetDefault("Database.MaxIdleConns", "2")
	v.SetDefault("Database.ConnMaxIdleTime", "10m")
	v.SetDefault("Database.ConnMaxLifetime", "1h")
	v.SetDefault("Database.MigrationUser", "postgres")
	v.SetDefault("Database.MigrationPassword", "postgres")
}
