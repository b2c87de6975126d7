package model

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bchfaucet/faucet/src/utils/config"
	l "github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/model/sql_migrations"

	"github.com/glebarez/sqlite"
	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Tables managed by this service, used for sqlite schema creation
var MigrateModels = []interface{}{
	&FaucetContract{},
	&FaucetClaim{},
}

func newLogger() logger.Interface {
	log := l.NewSublogger("db")
	return logger.New(log,
		logger.Config{
			SlowThreshold:             500 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Error,           // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,                  // Disable color
		},
	)
}

func dialector(dbConfig *config.Database, username, password, applicationName string) (gorm.Dialector, error) {
	switch dbConfig.Driver {
	case config.DriverPostgres, "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
			dbConfig.Host,
			dbConfig.Port,
			username,
			password,
			dbConfig.Name,
			dbConfig.SslMode,
			applicationName,
		)
		return postgres.Open(dsn), nil
	case config.DriverSqlite:
		if dbConfig.Path == "" {
			// cache=shared allows multiple connections to share the same in-memory database
			return sqlite.Open("file::memory:?cache=shared"), nil
		}
		return sqlite.Open(fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dbConfig.Path)), nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", dbConfig.Driver)
}

func Connect(ctx context.Context, dbConfig *config.Database, username, password, applicationName string) (self *gorm.DB, err error) {
	dialector, err := dialector(dbConfig, username, password, applicationName)
	if err != nil {
		return
	}

	self, err = gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger(),
		TranslateError: true,
	})
	if err != nil {
		return
	}

	db, err := self.DB()
	if err != nil {
		return
	}

	if dbConfig.Driver == config.DriverSqlite {
		// Sqlite allows one writer at a time
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(dbConfig.MaxOpenConns)
		db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	err = Ping(ctx, dbConfig, self)
	if err != nil {
		return
	}

	return
}

// Runs migrations and connects to the database
func NewConnection(ctx context.Context, conf *config.Config, applicationName string) (self *gorm.DB, err error) {
	if conf.Database.Driver == config.DriverSqlite {
		self, err = Connect(ctx, &conf.Database, "", "", applicationName)
		if err != nil {
			return
		}
		err = self.WithContext(ctx).AutoMigrate(MigrateModels...)
		return
	}

	err = Migrate(ctx, conf)
	if err != nil {
		return
	}

	return Connect(ctx, &conf.Database, conf.Database.User, conf.Database.Password, applicationName)
}

func Migrate(ctx context.Context, config *config.Config) (err error) {
	log := l.NewSublogger("db-migrate")

	if config.Database.MigrationUser == "" || config.Database.MigrationPassword == "" {
		log.Info("Migration user not set, skipping migrations")
		return
	}

	migrations := &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(sql_migrations.FS),
	}

	// Use special migration user
	self, err := Connect(ctx, &config.Database, config.Database.MigrationUser, config.Database.MigrationPassword, "migration")
	if err != nil {
		return
	}

	db, err := self.DB()
	if err != nil {
		return
	}
	defer db.Close()

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return
	}

	log.WithField("num", n).Info("Applied migrations")

	return
}

func Ping(ctx context.Context, dbConfig *config.Database, db *gorm.DB) (err error) {
	if dbConfig.PingTimeout < 0 {
		// Ping disabled
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbConfig.PingTimeout)
	defer cancel()

	return sqlDB.PingContext(dbCtx)
}
