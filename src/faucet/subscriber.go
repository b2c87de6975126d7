package faucet

import (
	"context"
	"fmt"

	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/logger"
	"github.com/bchfaucet/faucet/src/utils/model"
	"github.com/bchfaucet/faucet/src/utils/monitoring"
	"github.com/bchfaucet/faucet/src/utils/watchtower"

	"github.com/sirupsen/logrus"
)

// Subscriber registers faucet addresses for gateway webhook notifications
type Subscriber struct {
	config   *config.Config
	log      *logrus.Entry
	registry *Registry
	gateway  Gateway
	monitor  monitoring.Monitor
}

type SubscribeResult struct {
	FaucetId   uint   `json:"faucet_id"`
	Address    string `json:"address"`
	Subscribed bool   `json:"subscribed"`
	Error      string `json:"error,omitempty"`
}

func NewSubscriber(config *config.Config) (self *Subscriber) {
	self = new(Subscriber)
	self.config = config
	self.log = logger.NewSublogger("subscriber")
	return
}

func (self *Subscriber) WithRegistry(registry *Registry) *Subscriber {
	self.registry = registry
	return self
}

func (self *Subscriber) WithGateway(gateway Gateway) *Subscriber {
	self.gateway = gateway
	return self
}

func (self *Subscriber) WithMonitor(monitor monitoring.Monitor) *Subscriber {
	self.monitor = monitor
	return self
}

// Subscribe points the gateway's notifications for the faucet address at the webhook receiver.
// On success the faucet is marked as subscribed.
func (self *Subscriber) Subscribe(ctx context.Context, faucet *model.FaucetContract) (ok bool, err error) {
	self.log.WithField("id", faucet.ID).
		WithField("address", faucet.Address).
		WithField("webhook", self.config.Watchtower.WebhookReceiverUrl).
		Info("Subscribing faucet contract")

	err = self.gateway.Subscribe(ctx, faucet.Network, faucet.Address, self.config.Watchtower.WebhookReceiverUrl)
	if err != nil {
		self.monitor.GetReport().Admin.Errors.Subscribe.Inc()
		if watchtower.IsRejected(err) {
			err = fmt.Errorf("%w: %s", ErrSubscribe, err)
		} else {
			err = fmt.Errorf("%w: %s", ErrGateway, err)
		}
		return
	}

	err = self.registry.MarkSubscribed(ctx, faucet)
	if err != nil {
		return
	}
	faucet.Subscribed = true

	self.monitor.GetReport().Admin.State.Subscriptions.Inc()
	return true, nil
}

// SubscribeAll re-triggers subscription of selected faucets. Empty ids selects all not yet subscribed.
func (self *Subscriber) SubscribeAll(ctx context.Context, ids []uint) (out []SubscribeResult, err error) {
	faucets, err := self.registry.FaucetsByIds(ctx, ids)
	if err != nil {
		return
	}

	out = make([]SubscribeResult, 0, len(faucets))
	for _, faucet := range faucets {
		if len(ids) == 0 && faucet.Subscribed {
			continue
		}

		result := SubscribeResult{FaucetId: faucet.ID, Address: faucet.Address}
		result.Subscribed, err = self.Subscribe(ctx, faucet)
		if err != nil {
			self.log.WithError(err).
				WithField("id", faucet.ID).
				WithField("address", faucet.Address).
				Warn("Failed to subscribe")
			result.Error = err.Error()
			err = nil
		}
		out = append(out, result)
	}
	return
}
