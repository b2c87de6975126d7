package faucet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bchfaucet/faucet/src/utils/compiler"
	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/model"
	"github.com/bchfaucet/faucet/src/utils/monitoring"
	"github.com/bchfaucet/faucet/src/utils/watchtower"

	"github.com/sirupsen/logrus"
)

type ClaimRequest struct {
	Network  model.Network
	Address  string
	Passcode string

	// Claimant, nil when unknown
	IP *string
}

type ClaimResult struct {
	Txid   string
	Faucet *model.FaucetContract
	Claim  *model.FaucetClaim
}

// Claimer pays out a faucet to a recipient: picks the faucet, checks the rate limit,
// builds the claim transaction from a single UTXO, broadcasts and records it.
type Claimer struct {
	config *config.Claim
	log    *logrus.Entry

	registry   *Registry
	gateway    Gateway
	compiler   compiler.Compiler
	reconciler *Reconciler
	monitor    monitoring.Monitor
	now        func() time.Time

	// Per faucet locks, used only when claims are serialized
	mtx   sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewClaimer(config *config.Config) (self *Claimer) {
	self = new(Claimer)
	self.config = &config.Claim
	self.log = logger.NewSublogger("claimer")
	self.now = time.Now
	self.locks = make(map[uint]*sync.Mutex)
	return
}

func (self *Claimer) WithRegistry(registry *Registry) *Claimer {
	self.registry = registry
	return self
}

func (self *Claimer) WithGateway(gateway Gateway) *Claimer {
	self.gateway = gateway
	return self
}

func (self *Claimer) WithCompiler(compiler compiler.Compiler) *Claimer {
	self.compiler = compiler
	return self
}

func (self *Claimer) WithReconciler(reconciler *Reconciler) *Claimer {
	self.reconciler = reconciler
	return self
}

func (self *Claimer) WithMonitor(monitor monitoring.Monitor) *Claimer {
	self.monitor = monitor
	return self
}

func (self *Claimer) WithClock(now func() time.Time) *Claimer {
	self.now = now
	return self
}

func (self *Claimer) lock(faucetId uint) func() {
	self.mtx.Lock()
	l, ok := self.locks[faucetId]
	if !ok {
		l = new(sync.Mutex)
		self.locks[faucetId] = l
	}
	self.mtx.Unlock()

	l.Lock()
	return l.Unlock
}

func (self *Claimer) Claim(ctx context.Context, req ClaimRequest) (out *ClaimResult, err error) {
	var faucet *model.FaucetContract
	defer func() {
		self.report(err, faucet, req)
	}()

	// Find the faucet
	faucet, err = self.identify(ctx, req.Network, req.Passcode)
	if err != nil {
		return
	}

	recipient, err := NormalizeRecipient(req.Address, faucet.Network)
	if err != nil {
		return
	}

	// Without serialization two requests from the same IP may both pass the rate limit
	if self.config.SerializePerFaucet {
		unlock := self.lock(faucet.ID)
		defer unlock()
	}

	since := self.now().Add(-self.config.RateLimitWindow)
	limited, err := self.registry.HasRecentClaim(ctx, faucet.ID, req.IP, since)
	if err != nil {
		return
	}
	if limited {
		err = ErrRateLimited
		return
	}

	utxos, err := self.gateway.GetUtxos(ctx, faucet.Network, faucet.Address)
	if err != nil {
		err = fmt.Errorf("%w: utxos of %s: %s", ErrGateway, faucet.Address, err)
		return
	}

	utxo, ok := SelectUtxo(utxos, faucet.RequiredUtxoSatoshis())
	if !ok {
		err = fmt.Errorf("%w: no utxo with at least %d satoshis", ErrInsufficientFunds, faucet.RequiredUtxoSatoshis())
		return
	}

	tx, err := self.compiler.Claim(ctx, compiler.ClaimParams{
		Contract:  compiler.ContractParamsOf(faucet),
		Utxo:      compiler.UtxoOf(utxo),
		Recipient: recipient,
		Passcode:  req.Passcode,
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

	// Money is sent, don't let a canceled request stop recording it
	commitCtx := context.WithoutCancel(ctx)

	claim := &model.FaucetClaim{
		FaucetID:  &faucet.ID,
		Network:   faucet.Network,
		Txid:      tx.Txid,
		Recipient: recipient,
		Satoshis:  faucet.PayoutSatoshis,
		IP:        req.IP,
		CreatedAt: self.now(),
	}
	err = self.registry.CommitClaim(commitCtx, faucet, claim)
	if err != nil {
		self.monitor.GetReport().Claimer.Errors.CommitAfterBroadcast.Inc()
		self.log.WithError(err).
			WithField("txid", tx.Txid).
			WithField("id", faucet.ID).
			WithField("address", faucet.Address).
			WithField("recipient", recipient).
			WithField("ip", deref(req.IP)).
			Error("Claim broadcasted but not recorded, reconcile manually")
		err = fmt.Errorf("%w: txid %s: %s", ErrCommit, tx.Txid, err)
		return
	}

	self.monitor.GetReport().Claimer.State.SatoshisPaid.Add(claim.Satoshis)
	self.log.WithField("txid", tx.Txid).
		WithField("id", faucet.ID).
		WithField("recipient", recipient).
		WithField("satoshis", claim.Satoshis).
		Info("Claimed")

	// Best effort
	if self.reconciler != nil {
		_, rerr := self.reconciler.Reconcile(commitCtx, faucet)
		if rerr != nil {
			self.log.WithError(rerr).
				WithField("id", faucet.ID).
				WithField("address", faucet.Address).
				Warn("Failed to refresh balance after claim")
		}
	}

	return &ClaimResult{Txid: tx.Txid, Faucet: faucet, Claim: claim}, nil
}

// Lowest id claimable faucet with a matching passcode
func (self *Claimer) identify(ctx context.Context, network model.Network, passcode string) (*model.FaucetContract, error) {
	faucets, err := self.registry.ClaimableFaucets(ctx, network)
	if err != nil {
		return nil, err
	}
	if len(faucets) == 0 {
		return nil, fmt.Errorf("%w on %s", ErrNoClaimableFaucet, network)
	}

	for _, faucet := range faucets {
		if faucet.Passcode == passcode && faucet.IsClaimable() {
			return faucet, nil
		}
	}
	return nil, ErrInvalidPasscode
}

// SelectUtxo picks the first UTXO, in the given order, that can fund a claim
func SelectUtxo(utxos []watchtower.Utxo, required uint64) (watchtower.Utxo, bool) {
	for _, utxo := range utxos {
		if utxo.Value >= required {
			return utxo, true
		}
	}
	return watchtower.Utxo{}, false
}

func (self *Claimer) report(err error, faucet *model.FaucetContract, req ClaimRequest) {
	state := self.monitor.GetReport().Claimer

	if err == nil {
		state.State.ClaimsSucceeded.Inc()
		return
	}

	kind := KindOf(err)
	switch kind {
	case KindValidation:
		state.State.ClaimsRejected.Inc()
	case KindRateLimited:
		state.State.ClaimsRateLimited.Inc()
	case KindOperational:
		state.Errors.Operational.Inc()
	case KindUpstream:
		state.Errors.Upstream.Inc()
	case KindGateway:
		state.Errors.Gateway.Inc()
	default:
		state.Errors.Internal.Inc()
	}

	if !kind.IsLogged() || errors.Is(err, ErrCommit) {
		return
	}

	log := self.log.WithError(err).
		WithField("kind", kind).
		WithField("network", req.Network)
	if faucet != nil {
		log = log.WithField("id", faucet.ID).WithField("address", faucet.Address)
	}
	log.Warn("Claim failed")
}

// Message of the innermost cause, used to surface upstream errors verbatim
func errorMessage(err error) string {
	for _, target := range []error{compiler.ErrScriptFailed, watchtower.ErrRejected} {
		if errors.Is(err, target) {
			return strings.TrimPrefix(err.Error(), target.Error()+": ")
		}
	}
	return err.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
