package report

import (
	"go.uber.org/atomic"
)

type AdminErrors struct {
	Subscribe atomic.Uint64 `json:"subscribe"`
	Sweep     atomic.Uint64 `json:"sweep"`
}

type AdminState struct {
	FaucetsCreated atomic.Uint64 `json:"faucets_created"`
	FaucetsDeleted atomic.Uint64 `json:"faucets_deleted"`
	Subscriptions  atomic.Uint64 `json:"subscriptions"`
	Sweeps         atomic.Uint64 `json:"sweeps"`
}

type AdminReport struct {
	State  AdminState  `json:"state"`
	Errors AdminErrors `json:"errors"`
}
