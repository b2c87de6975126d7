package faucet

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/bchfaucet/faucet/src/utils/compiler"
	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/model"
	"github.com/bchfaucet/faucet/src/utils/monitoring"
	"github.com/bchfaucet/faucet/src/utils/watchtower"

	"github.com/sirupsen/logrus"
)

const MaxPasscodeLength = 10

type CreateFaucetParams struct {
	Network        model.Network
	Passcode       string
	PayoutSatoshis uint64
	OwnerAddress   string
	MaxClaimCount  *uint
}

type SweepRequest struct {
	ContractId uint
	SigningKey string

	// Defaults to the owner address
	Recipient string
}

type SweepResult struct {
	Txid      string `json:"txid"`
	Recipient string `json:"recipient"`
	Satoshis  uint64 `json:"satoshis"`
	NumUtxos  int    `json:"num_utxos"`
	TxLink    string `json:"tx_link"`
}

// Admin implements operator actions on faucets
type Admin struct {
	config *config.Config
	log    *logrus.Entry

	registry   *Registry
	gateway    Gateway
	compiler   compiler.Compiler
	subscriber *Subscriber
	reconciler *Reconciler
	monitor    monitoring.Monitor
}

func NewAdmin(config *config.Config) (self *Admin) {
	self = new(Admin)
	self.config = config
	self.log = logger.NewSublogger("admin")
	return
}

func (self *Admin) WithRegistry(registry *Registry) *Admin {
	self.registry = registry
	return self
}

func (self *Admin) WithGateway(gateway Gateway) *Admin {
	self.gateway = gateway
	return self
}

func (self *Admin) WithCompiler(compiler compiler.Compiler) *Admin {
	self.compiler = compiler
	return self
}

func (self *Admin) WithSubscriber(subscriber *Subscriber) *Admin {
	self.subscriber = subscriber
	return self
}

func (self *Admin) WithReconciler(reconciler *Reconciler) *Admin {
	self.reconciler = reconciler
	return self
}

func (self *Admin) WithMonitor(monitor monitoring.Monitor) *Admin {
	self.monitor = monitor
	return self
}

// CreateFaucet compiles the contract address, stores the faucet and subscribes it once
func (self *Admin) CreateFaucet(ctx context.Context, params CreateFaucetParams) (out *model.FaucetContract, err error) {
	if _, err = model.ParseNetwork(string(params.Network)); err != nil {
		err = fmt.Errorf("%w: %s", ErrInvalidRequest, err)
		return
	}

	length := utf8.RuneCountInString(params.Passcode)
	if length == 0 || length > MaxPasscodeLength {
		err = fmt.Errorf("%w: passcode must have 1 to %d characters", ErrInvalidRequest, MaxPasscodeLength)
		return
	}

	owner, err := NormalizeOwner(params.OwnerAddress, params.Network)
	if err != nil {
		return
	}

	contract, err := self.compiler.Compile(ctx, compiler.ContractParams{
		Passcode:       params.Passcode,
		PayoutSatoshis: params.PayoutSatoshis,
		OwnerAddress:   owner,
		Network:        params.Network,
	})
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrCompilation, errorMessage(err))
		return
	}

	out = &model.FaucetContract{
		Address:        contract.Address,
		Network:        params.Network,
		Passcode:       params.Passcode,
		PayoutSatoshis: params.PayoutSatoshis,
		OwnerAddress:   owner,
		MaxClaimCount:  params.MaxClaimCount,
	}
	err = self.registry.CreateFaucet(ctx, out)
	if err != nil {
		out = nil
		return
	}

	self.monitor.GetReport().Admin.State.FaucetsCreated.Inc()
	self.log.WithField("id", out.ID).
		WithField("address", out.Address).
		WithField("network", out.Network).
		Info("Faucet created")

	// Only once, failure needs a manual re-trigger
	_, serr := self.subscriber.Subscribe(ctx, out)
	if serr != nil {
		self.log.WithError(serr).
			WithField("id", out.ID).
			WithField("address", out.Address).
			Warn("Failed to subscribe new faucet")
	}

	return
}

func (self *Admin) ListFaucets(ctx context.Context, network *model.Network) ([]*model.FaucetContract, error) {
	return self.registry.ListFaucets(ctx, network)
}

func (self *Admin) GetFaucet(ctx context.Context, id uint) (*model.FaucetContract, error) {
	return self.registry.GetFaucet(ctx, id)
}

// Nil removes the cap
func (self *Admin) UpdateMaxClaimCount(ctx context.Context, id uint, maxClaimCount *uint) (out *model.FaucetContract, err error) {
	out, err = self.registry.GetFaucet(ctx, id)
	if err != nil {
		return
	}

	err = self.registry.UpdateMaxClaimCount(ctx, out, maxClaimCount)
	if err != nil {
		return nil, err
	}
	return
}

// Forbidden while the faucet has claims
func (self *Admin) DeleteFaucet(ctx context.Context, id uint) (err error) {
	faucet, err := self.registry.GetFaucet(ctx, id)
	if err != nil {
		return
	}

	err = self.registry.DeleteFaucet(ctx, faucet)
	if err != nil {
		return
	}

	self.monitor.GetReport().Admin.State.FaucetsDeleted.Inc()
	self.log.WithField("id", faucet.ID).WithField("address", faucet.Address).Info("Faucet deleted")
	return
}

// Sweep moves all funds of the faucet to the recipient. Rate limits and UTXO selection don't apply.
func (self *Admin) Sweep(ctx context.Context, req SweepRequest) (out *SweepResult, err error) {
	defer func() {
		if err != nil && KindOf(err).IsLogged() {
			self.monitor.GetReport().Admin.Errors.Sweep.Inc()
			self.log.WithError(err).WithField("id", req.ContractId).Warn("Sweep failed")
		}
	}()

	faucet, err := self.registry.GetFaucet(ctx, req.ContractId)
	if err != nil {
		return
	}

	err = compiler.CheckSigningKey(req.SigningKey)
	if err != nil {
		return
	}

	recipient := faucet.OwnerAddress
	if req.Recipient != "" {
		recipient, err = NormalizeRecipient(req.Recipient, faucet.Network)
		if err != nil {
			return
		}
	}

	utxos, err := self.gateway.GetUtxos(ctx, faucet.Network, faucet.Address)
	if err != nil {
		err = fmt.Errorf("%w: utxos of %s: %s", ErrGateway, faucet.Address, err)
		return
	}
	if len(utxos) == 0 {
		err = fmt.Errorf("%w: nothing to sweep", ErrInsufficientFunds)
		return
	}

	tx, err := self.compiler.Sweep(ctx, compiler.SweepParams{
		Contract:   compiler.ContractParamsOf(faucet),
		Utxos:      compiler.UtxosOf(utxos),
		Recipient:  recipient,
		SigningKey: req.SigningKey,
	})
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrCompilation, errorMessage(err))
		return
	}

	err = self.gateway.Broadcast(ctx, faucet.Network, tx.Hex)
	if err != nil {
		if watchtower.IsRejected(err) {
			err = fmt.Errorf("%w: %s", ErrBroadcast, errorMessage(err))
		} else {
			err = fmt.Errorf("%w: broadcast: %s", ErrGateway, err)
		}
		return
	}

	out = &SweepResult{
		Txid:      tx.Txid,
		Recipient: recipient,
		NumUtxos:  len(utxos),
		TxLink:    model.TxLink(faucet.Network, tx.Txid),
	}
	for _, utxo := range utxos {
		out.Satoshis += utxo.Value
	}

	self.monitor.GetReport().Admin.State.Sweeps.Inc()
	self.log.WithField("txid", tx.Txid).
		WithField("id", faucet.ID).
		WithField("recipient", recipient).
		WithField("satoshis", out.Satoshis).
		Info("Faucet swept")

	// Best effort
	_, rerr := self.reconciler.Reconcile(context.WithoutCancel(ctx), faucet)
	if rerr != nil {
		self.log.WithError(rerr).WithField("id", faucet.ID).Warn("Failed to refresh balance after sweep")
	}

	return
}

func (self *Admin) SubscribeAll(ctx context.Context, ids []uint) ([]SubscribeResult, error) {
	return self.subscriber.SubscribeAll(ctx, ids)
}

func (self *Admin) ReconcileAll(ctx context.Context, ids []uint) ([]ReconcileResult, error) {
	return self.reconciler.ReconcileAll(ctx, ids)
}
