package faucet

import (
	"github.com/bchfaucet/faucet/src/utils/compiler"
	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/monitoring"
	"github.com/bchfaucet/faucet/src/utils/task"

	"gorm.io/gorm"
)

// Service wires faucet components sharing one registry, gateway and compiler
type Service struct {
	*task.Task

	Registry   *Registry
	Claimer    *Claimer
	Reconciler *Reconciler
	Subscriber *Subscriber
	Admin      *Admin
	Notifier   *Notifier
}

func NewService(config *config.Config, db *gorm.DB, gateway Gateway, compiler compiler.Compiler, monitor monitoring.Monitor) (self *Service) {
	self = new(Service)

	self.Registry = NewRegistry(db)

	self.Reconciler = NewReconciler(config).
		WithRegistry(self.Registry).
		WithGateway(gateway).
		WithMonitor(monitor)

	self.Subscriber = NewSubscriber(config).
		WithRegistry(self.Registry).
		WithGateway(gateway).
		WithMonitor(monitor)

	self.Claimer = NewClaimer(config).
		WithRegistry(self.Registry).
		WithGateway(gateway).
		WithCompiler(compiler).
		WithReconciler(self.Reconciler).
		WithMonitor(monitor)

	self.Admin = NewAdmin(config).
		WithRegistry(self.Registry).
		WithGateway(gateway).
		WithCompiler(compiler).
		WithSubscriber(self.Subscriber).
		WithReconciler(self.Reconciler).
		WithMonitor(monitor)

	self.Notifier = NewNotifier(config).
		WithRegistry(self.Registry).
		WithReconciler(self.Reconciler).
		WithMonitor(monitor)

	// Background work: periodic balance refresh and notification handling
	self.Task = task.NewTask(config, "service").
		WithSubtask(self.Reconciler.Task).
		WithSubtask(self.Notifier.Task)

	return
}
