package faucet

import (
	"context"
	"errors"
	"sync"

	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/model"
	"github.com/bchfaucet/faucet/src/utils/monitoring"
	"github.com/bchfaucet/faucet/src/utils/task"
)

// Notifier handles address change notifications from the gateway.
// Matching faucets get reconciled in the background, the sender never waits for it.
type Notifier struct {
	*task.Task

	registry   *Registry
	reconciler *Reconciler
	monitor    monitoring.Monitor

	// Guards submitting to the worker pool, which stops after closed is set
	mtx    sync.Mutex
	closed bool
}

func NewNotifier(config *config.Config) (self *Notifier) {
	self = new(Notifier)

	self.Task = task.NewTask(config, "notifier").
		WithWorkerPool(config.Webhook.NumWorkers).
		// Keeps the worker pool alive until stop
		WithSubtaskFunc(func() error {
			<-self.StopChannel
			self.mtx.Lock()
			self.closed = true
			self.mtx.Unlock()
			return nil
		})
	return
}

func (self *Notifier) WithRegistry(registry *Registry) *Notifier {
	self.registry = registry
	return self
}

func (self *Notifier) WithReconciler(reconciler *Reconciler) *Notifier {
	self.reconciler = reconciler
	return self
}

func (self *Notifier) WithMonitor(monitor monitoring.Monitor) *Notifier {
	self.monitor = monitor
	return self
}

// Notify looks up the faucet by its exact address and schedules reconciliation.
// Returns whether a faucet matched.
func (self *Notifier) Notify(ctx context.Context, address string) (matched bool) {
	self.monitor.GetReport().Webhook.State.Received.Inc()

	if address == "" {
		self.monitor.GetReport().Webhook.Errors.Malformed.Inc()
		return false
	}

	faucet, err := self.registry.FaucetByAddress(ctx, address)
	if err != nil {
		if !errors.Is(err, ErrFaucetNotFound) {
			self.monitor.GetReport().Webhook.Errors.Lookup.Inc()
			self.Log.WithError(err).WithField("address", address).Error("Failed to look up faucet")
		}
		return false
	}
	self.monitor.GetReport().Webhook.State.Matched.Inc()

	if !self.submit(faucet) {
		self.Log.WithField("address", address).Warn("Stopping, notification dropped")
	}
	return true
}

func (self *Notifier) submit(faucet *model.FaucetContract) bool {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.closed || self.IsStopping.Load() {
		return false
	}

	self.monitor.GetReport().Webhook.State.PendingTasks.Inc()
	self.Workers.Submit(func() {
		defer self.monitor.GetReport().Webhook.State.PendingTasks.Dec()
		self.reconcile(faucet.ID)
	})
	return true
}

// Faucet is reloaded on every attempt, a removed faucet isn't retried
func (self *Notifier) reconcile(id uint) {
	err := task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(self.Config.Webhook.ReconcileMaxElapsedTime).
		WithMaxInterval(self.Config.Webhook.ReconcileMaxInterval).
		WithOnError(func(err error) {
			self.Log.WithError(err).WithField("id", id).Debug("Retrying reconciliation")
		}).
		Run(func() (err error) {
			faucet, err := self.registry.GetFaucet(self.Ctx, id)
			if errors.Is(err, ErrFaucetNotFound) {
				return task.Permanent(err)
			}
			if err != nil {
				return
			}
			_, err = self.reconciler.Reconcile(self.Ctx, faucet)
			return
		})
	if errors.Is(err, ErrFaucetNotFound) {
		self.Log.WithField("id", id).Debug("Faucet removed before reconciliation")
		return
	}
	if err != nil {
		self.monitor.GetReport().Webhook.Errors.Reconcile.Inc()
		self.Log.WithError(err).
			WithField("id", id).
			Warn("Failed to reconcile after notification")
		return
	}
	self.monitor.GetReport().Webhook.State.Reconciled.Inc()
}
