package monitor_faucet

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

type Collector struct {
	monitor *Monitor

	// Run
	StartTimestamp *prometheus.Desc
	UpForSeconds   *prometheus.Desc

	// Claimer
	ClaimsSucceeded        *prometheus.Desc
	ClaimsRejected         *prometheus.Desc
	ClaimsRateLimited      *prometheus.Desc
	SatoshisPaid           *prometheus.Desc
	IngressRateLimited     *prometheus.Desc
	AverageClaimsPerMinute *prometheus.Desc

	// Reconciler
	Reconciliations      *prometheus.Desc
	StaleRefreshes       *prometheus.Desc
	LastRefreshTimestamp *prometheus.Desc

	// Webhook
	WebhooksReceived   *prometheus.Desc
	WebhooksMatched    *prometheus.Desc
	WebhooksReconciled *prometheus.Desc
	WebhookPending     *prometheus.Desc

	// Admin
	FaucetsCreated *prometheus.Desc
	FaucetsDeleted *prometheus.Desc
	Subscriptions  *prometheus.Desc
	Sweeps         *prometheus.Desc

	// Errors
	ClaimOperationalErrors *prometheus.Desc
	ClaimUpstreamErrors    *prometheus.Desc
	ClaimGatewayErrors     *prometheus.Desc
	ClaimInternalErrors    *prometheus.Desc
	CommitAfterBroadcast   *prometheus.Desc
	ReconcileGatewayErrors *prometheus.Desc
	ReconcilePersistErrors *prometheus.Desc
	WebhookMalformedErrors *prometheus.Desc
	WebhookLookupErrors    *prometheus.Desc
	WebhookReconcileErrors *prometheus.Desc
	SubscribeErrors        *prometheus.Desc
	SweepErrors            *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "faucet",
	}

	desc := func(name string) *prometheus.Desc {
		return prometheus.NewDesc(name, "", nil, labels)
	}

	return &Collector{
		StartTimestamp: desc("start_timestamp"),
		UpForSeconds:   desc("up_for_seconds"),

		ClaimsSucceeded:        desc("claims_succeeded"),
		ClaimsRejected:         desc("claims_rejected"),
		ClaimsRateLimited:      desc("claims_rate_limited"),
		SatoshisPaid:           desc("satoshis_paid"),
		IngressRateLimited:     desc("ingress_rate_limited"),
		AverageClaimsPerMinute: desc("average_claims_per_minute"),

		Reconciliations:      desc("reconciliations"),
		StaleRefreshes:       desc("stale_refreshes"),
		LastRefreshTimestamp: desc("last_refresh_timestamp"),

		WebhooksReceived:   desc("webhooks_received"),
		WebhooksMatched:    desc("webhooks_matched"),
		WebhooksReconciled: desc("webhooks_reconciled"),
		WebhookPending:     desc("webhook_pending_tasks"),

		FaucetsCreated: desc("faucets_created"),
		FaucetsDeleted: desc("faucets_deleted"),
		Subscriptions:  desc("subscriptions"),
		Sweeps:         desc("sweeps"),

		ClaimOperationalErrors: desc("error_claim_operational"),
		ClaimUpstreamErrors:    desc("error_claim_upstream"),
		ClaimGatewayErrors:     desc("error_claim_gateway"),
		ClaimInternalErrors:    desc("error_claim_internal"),
		CommitAfterBroadcast:   desc("error_commit_after_broadcast"),
		ReconcileGatewayErrors: desc("error_reconcile_gateway"),
		ReconcilePersistErrors: desc("error_reconcile_persist"),
		WebhookMalformedErrors: desc("error_webhook_malformed"),
		WebhookLookupErrors:    desc("error_webhook_lookup"),
		WebhookReconcileErrors: desc("error_webhook_reconcile"),
		SubscribeErrors:        desc("error_subscribe"),
		SweepErrors:            desc("error_sweep"),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.StartTimestamp
	ch <- self.UpForSeconds

	ch <- self.ClaimsSucceeded
	ch <- self.ClaimsRejected
	ch <- self.ClaimsRateLimited
	ch <- self.SatoshisPaid
	ch <- self.IngressRateLimited
	ch <- self.AverageClaimsPerMinute

	ch <- self.Reconciliations
	ch <- self.StaleRefreshes
	ch <- self.LastRefreshTimestamp

	ch <- self.WebhooksReceived
	ch <- self.WebhooksMatched
	ch <- self.WebhooksReconciled
	ch <- self.WebhookPending

	ch <- self.FaucetsCreated
	ch <- self.FaucetsDeleted
	ch <- self.Subscriptions
	ch <- self.Sweeps

	// Errors
	ch <- self.ClaimOperationalErrors
	ch <- self.ClaimUpstreamErrors
	ch <- self.ClaimGatewayErrors
	ch <- self.ClaimInternalErrors
	ch <- self.CommitAfterBroadcast
	ch <- self.ReconcileGatewayErrors
	ch <- self.ReconcilePersistErrors
	ch <- self.WebhookMalformedErrors
	ch <- self.WebhookLookupErrors
	ch <- self.WebhookReconcileErrors
	ch <- self.SubscribeErrors
	ch <- self.SweepErrors
}

func counter(desc *prometheus.Desc, v *atomic.Uint64) prometheus.Metric {
	return prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v.Load()))
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	r := &self.monitor.Report
	start := r.Run.State.StartTimestamp.Load()

	ch <- prometheus.MustNewConstMetric(self.StartTimestamp, prometheus.GaugeValue, float64(start))
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(time.Now().Unix()-start))

	ch <- counter(self.ClaimsSucceeded, &r.Claimer.State.ClaimsSucceeded)
	ch <- counter(self.ClaimsRejected, &r.Claimer.State.ClaimsRejected)
	ch <- counter(self.ClaimsRateLimited, &r.Claimer.State.ClaimsRateLimited)
	ch <- counter(self.SatoshisPaid, &r.Claimer.State.SatoshisPaid)
	ch <- counter(self.IngressRateLimited, &r.Claimer.State.IngressRateLimited)
	ch <- prometheus.MustNewConstMetric(self.AverageClaimsPerMinute, prometheus.GaugeValue, r.Claimer.State.AverageClaimsPerMinute.Load())

	ch <- counter(self.Reconciliations, &r.Reconciler.State.Reconciliations)
	ch <- counter(self.StaleRefreshes, &r.Reconciler.State.StaleRefreshes)
	ch <- prometheus.MustNewConstMetric(self.LastRefreshTimestamp, prometheus.GaugeValue, float64(r.Reconciler.State.LastRefreshTimestamp.Load()))

	ch <- counter(self.WebhooksReceived, &r.Webhook.State.Received)
	ch <- counter(self.WebhooksMatched, &r.Webhook.State.Matched)
	ch <- counter(self.WebhooksReconciled, &r.Webhook.State.Reconciled)
	ch <- prometheus.MustNewConstMetric(self.WebhookPending, prometheus.GaugeValue, float64(r.Webhook.State.PendingTasks.Load()))

	ch <- counter(self.FaucetsCreated, &r.Admin.State.FaucetsCreated)
	ch <- counter(self.FaucetsDeleted, &r.Admin.State.FaucetsDeleted)
	ch <- counter(self.Subscriptions, &r.Admin.State.Subscriptions)
	ch <- counter(self.Sweeps, &r.Admin.State.Sweeps)

	// Errors
	ch <- counter(self.ClaimOperationalErrors, &r.Claimer.Errors.Operational)
	ch <- counter(self.ClaimUpstreamErrors, &r.Claimer.Errors.Upstream)
	ch <- counter(self.ClaimGatewayErrors, &r.Claimer.Errors.Gateway)
	ch <- counter(self.ClaimInternalErrors, &r.Claimer.Errors.Internal)
	ch <- counter(self.CommitAfterBroadcast, &r.Claimer.Errors.CommitAfterBroadcast)
	ch <- counter(self.ReconcileGatewayErrors, &r.Reconciler.Errors.Gateway)
	ch <- counter(self.ReconcilePersistErrors, &r.Reconciler.Errors.Persisting)
	ch <- counter(self.WebhookMalformedErrors, &r.Webhook.Errors.Malformed)
	ch <- counter(self.WebhookLookupErrors, &r.Webhook.Errors.Lookup)
	ch <- counter(self.WebhookReconcileErrors, &r.Webhook.Errors.Reconcile)
	ch <- counter(self.SubscribeErrors, &r.Admin.Errors.Subscribe)
	ch <- counter(self.SweepErrors, &r.Admin.Errors.Sweep)
}
