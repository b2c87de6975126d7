package report

import (
	"go.uber.org/atomic"
)

type WebhookErrors struct {
	Malformed atomic.Uint64 `json:"malformed"`
	Lookup    atomic.Uint64 `json:"lookup"`
	Reconcile atomic.Uint64 `json:"reconcile"`
}

type WebhookState struct {
	Received     atomic.Uint64 `json:"received"`
	Matched      atomic.Uint64 `json:"matched"`
	Reconciled   atomic.Uint64 `json:"reconciled"`
	PendingTasks atomic.Int64  `json:"pending_tasks"`
}

type WebhookReport struct {
	State  WebhookState  `json:"state"`
	Errors WebhookErrors `json:"errors"`
}
