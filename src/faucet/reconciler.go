package faucet

import (
	"context"
	"fmt"
	"time"

	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/model"
	"github.com/bchfaucet/faucet/src/utils/monitoring"
	"github.com/bchfaucet/faucet/src/utils/task"
)

// Reconciler keeps the cached faucet balances close to what the gateway reports.
// Optionally refreshes stale balances periodically.
type Reconciler struct {
	*task.Task

	registry *Registry
	gateway  Gateway
	monitor  monitoring.Monitor
	now      func() time.Time
}

type ReconcileResult struct {
	FaucetId uint   `json:"faucet_id"`
	Address  string `json:"address"`
	Satoshis *int64 `json:"satoshis,omitempty"`
	Error    string `json:"error,omitempty"`
}

func NewReconciler(config *config.Config) (self *Reconciler) {
	self = new(Reconciler)
	self.now = time.Now

	self.Task = task.NewTask(config, "reconciler")
	if config.Reconciler.Period > 0 {
		self.Task = self.Task.WithPeriodicSubtaskFunc(config.Reconciler.Period, self.refreshStale)
	}
	return
}

func (self *Reconciler) WithRegistry(registry *Registry) *Reconciler {
	self.registry = registry
	return self
}

func (self *Reconciler) WithGateway(gateway Gateway) *Reconciler {
	self.gateway = gateway
	return self
}

func (self *Reconciler) WithMonitor(monitor monitoring.Monitor) *Reconciler {
	self.monitor = monitor
	return self
}

func (self *Reconciler) WithClock(now func() time.Time) *Reconciler {
	self.now = now
	return self
}

// Reconcile fetches the balance, stores it and updates the passed faucet.
// Same upstream balance always results in the same stored value.
func (self *Reconciler) Reconcile(ctx context.Context, faucet *model.FaucetContract) (satoshis int64, err error) {
	balance, err := self.gateway.GetBalance(ctx, faucet.Network, faucet.Address)
	if err != nil {
		self.monitor.GetReport().Reconciler.Errors.Gateway.Inc()
		err = fmt.Errorf("%w: balance of %s: %s", ErrGateway, faucet.Address, err)
		return
	}

	satoshis = balance.Satoshis()
	if satoshis < 0 {
		satoshis = 0
	}

	now := self.now()
	err = self.registry.UpdateBalance(ctx, faucet, uint64(satoshis), now)
	if err != nil {
		self.monitor.GetReport().Reconciler.Errors.Persisting.Inc()
		return
	}

	stored := uint64(satoshis)
	faucet.BalanceSatoshis = &stored
	faucet.BalanceUpdatedAt = &now

	self.monitor.GetReport().Reconciler.State.Reconciliations.Inc()
	self.Log.WithField("id", faucet.ID).
		WithField("address", faucet.Address).
		WithField("satoshis", satoshis).
		Debug("Balance reconciled")
	return
}

// ReconcileAll refreshes the selected faucets, all of them when ids is empty.
// Failures of single faucets are reported, not returned.
func (self *Reconciler) ReconcileAll(ctx context.Context, ids []uint) (out []ReconcileResult, err error) {
	faucets, err := self.registry.FaucetsByIds(ctx, ids)
	if err != nil {
		return
	}

	out = make([]ReconcileResult, 0, len(faucets))
	for _, faucet := range faucets {
		out = append(out, self.reconcileOne(ctx, faucet))
	}
	return
}

func (self *Reconciler) reconcileOne(ctx context.Context, faucet *model.FaucetContract) ReconcileResult {
	result := ReconcileResult{FaucetId: faucet.ID, Address: faucet.Address}

	satoshis, err := self.Reconcile(ctx, faucet)
	if err != nil {
		self.Log.WithError(err).
			WithField("id", faucet.ID).
			WithField("address", faucet.Address).
			Warn("Failed to reconcile balance")
		result.Error = err.Error()
		return result
	}

	result.Satoshis = &satoshis
	return result
}

// Periodically refreshes a batch of balances that weren't updated for a while
func (self *Reconciler) refreshStale() (err error) {
	before := self.now().Add(-self.Config.Reconciler.StaleAfter)
	faucets, err := self.registry.StaleFaucets(self.Ctx, before, self.Config.Reconciler.BatchSize)
	if err != nil {
		self.Log.WithError(err).Error("Failed to get stale faucets")
		// Try again next time
		return nil
	}

	for _, faucet := range faucets {
		if self.IsStopping.Load() {
			return
		}
		result := self.reconcileOne(self.Ctx, faucet)
		if result.Error == "" {
			self.monitor.GetReport().Reconciler.State.StaleRefreshes.Inc()
		}
	}

	self.monitor.GetReport().Reconciler.State.LastRefreshTimestamp.Store(self.now().Unix())
	if len(faucets) > 0 {
		self.Log.WithField("num", len(faucets)).Debug("Refreshed stale balances")
	}
	return
}
