package report

import (
	"go.uber.org/atomic"
)

type ReconcilerErrors struct {
	Gateway    atomic.Uint64 `json:"gateway"`
	Persisting atomic.Uint64 `json:"persisting"`
}

type ReconcilerState struct {
	Reconciliations      atomic.Uint64 `json:"reconciliations"`
	StaleRefreshes       atomic.Uint64 `json:"stale_refreshes"`
	LastRefreshTimestamp atomic.Int64  `json:"last_refresh_timestamp"`
}

type ReconcilerReport struct {
	State  ReconcilerState  `json:"state"`
	Errors ReconcilerErrors `json:"errors"`
}
