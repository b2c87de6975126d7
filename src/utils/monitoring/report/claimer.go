package report

import (
	"go.uber.org/atomic"
)

type ClaimerErrors struct {
	Operational atomic.Uint64 `json:"operational"`
	Upstream    atomic.Uint64 `json:"upstream"`
	Gateway     atomic.Uint64 `json:"gateway"`
	Internal    atomic.Uint64 `json:"internal"`

	// Paid on chain, but not recorded in the ledger
	CommitAfterBroadcast atomic.Uint64 `json:"commit_after_broadcast"`
}

type ClaimerState struct {
	ClaimsSucceeded    atomic.Uint64 `json:"claims_succeeded"`
	ClaimsRejected     atomic.Uint64 `json:"claims_rejected"`
	ClaimsRateLimited  atomic.Uint64 `json:"claims_rate_limited"`
	SatoshisPaid       atomic.Uint64 `json:"satoshis_paid"`
	IngressRateLimited atomic.Uint64 `json:"ingress_rate_limited"`

	AverageClaimsPerMinute atomic.Float64 `json:"average_claims_per_minute"`
}

type ClaimerReport struct {
	State  ClaimerState  `json:"state"`
	Errors ClaimerErrors `json:"errors"`
}
