package server

import (
	"context"

	"github.com/bchfaucet/faucet/src/faucet"
	"github.com/bchfaucet/faucet/src/utils/compiler"
	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/model"
	monitor_faucet "github.com/bchfaucet/faucet/src/utils/monitoring/faucet"
	"github.com/bchfaucet/faucet/src/utils/task"
	"github.com/bchfaucet/faucet/src/utils/watchtower"
)

type Controller struct {
	*task.Task
}

// Main class that orchestrates the faucet
// Setups the database, gateway, compiler, background tasks and both http servers
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	self.Task = task.NewTask(config, "controller")

	db, err := model.NewConnection(self.Ctx, self.Config, "faucet")
	if err != nil {
		return
	}

	monitor := monitor_faucet.NewMonitor().
		WithMaxHistorySize(30).
		WithHealthCheck(func(ctx context.Context) error {
			return model.Ping(ctx, &config.Database, db)
		})

	gateway := watchtower.NewClient(&config.Watchtower)
	script := compiler.NewScript(&config.Compiler)

	service := faucet.NewService(config, db, gateway, script, monitor)

	server := NewServer(config).
		WithService(service).
		WithMonitor(monitor)

	webhook := NewWebhookServer(config).
		WithNotifier(service.Notifier)

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(service.Task).
		WithSubtask(server.Task).
		WithSubtask(webhook.Task).
		WithOnAfterStop(func() {
			sqlDB, err := db.DB()
			if err != nil {
				return
			}
			err = sqlDB.Close()
			if err != nil {
				self.Log.WithError(err).Error("Failed to close database")
			}
		})

	return
}
