package faucet

import (
	"errors"
	"net/http"

	"github.com/bchfaucet/faucet/src/utils/compiler"
	"github.com/bchfaucet/faucet/src/utils/model"
)

var (
	// Claim
	ErrNoClaimableFaucet   = errors.New("no claimable faucet")
	ErrInvalidPasscode     = errors.New("invalid passcode")
	ErrInvalidAddress      = errors.New("invalid address")
	ErrWrongNetworkAddress = errors.New("address is for a different network")
	ErrRateLimited         = errors.New("already claimed, try again later")
	ErrInsufficientFunds   = errors.New("not enough funds to claim")

	// Upstream
	ErrCompilation = errors.New("compilation failed")
	ErrBroadcast   = errors.New("broadcast rejected")
	ErrSubscribe   = errors.New("subscription rejected")
	ErrGateway     = errors.New("gateway error")

	// Registry
	ErrFaucetNotFound  = errors.New("faucet not found")
	ErrFaucetExists    = errors.New("faucet with this address already exists")
	ErrFaucetHasClaims = errors.New("faucet has claims and can't be deleted")

	// Request
	ErrInvalidRequest = errors.New("invalid request")

	// Paid on chain, but not recorded
	ErrCommit = errors.New("failed to record claim")
)

type Kind string

const (
	KindValidation  Kind = "validation"
	KindRateLimited Kind = "rate_limited"
	KindOperational Kind = "operational"
	KindUpstream    Kind = "upstream"
	KindGateway     Kind = "gateway"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindInternal    Kind = "internal"
)

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindValidation, []error{ErrInvalidPasscode, ErrInvalidAddress, ErrWrongNetworkAddress, ErrInvalidRequest, compiler.ErrInvalidSigningKey, model.ErrImmutableContract}},
	{KindRateLimited, []error{ErrRateLimited}},
	{KindOperational, []error{ErrNoClaimableFaucet, ErrInsufficientFunds}},
	{KindUpstream, []error{ErrCompilation, ErrBroadcast, ErrSubscribe}},
	{KindGateway, []error{ErrGateway}},
	{KindNotFound, []error{ErrFaucetNotFound}},
	{KindConflict, []error{ErrFaucetExists, ErrFaucetHasClaims}},
}

// KindOf classifies an error returned by the faucet, unknown errors are internal
func KindOf(err error) Kind {
	for _, k := range kinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return k.kind
			}
		}
	}
	return KindInternal
}

func (self Kind) HTTPStatus() int {
	switch self {
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindOperational:
		return http.StatusServiceUnavailable
	case KindUpstream:
		return http.StatusBadGateway
	case KindGateway:
		return http.StatusGatewayTimeout
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Errors the operator should look at
func (self Kind) IsLogged() bool {
	switch self {
	case KindValidation, KindRateLimited, KindNotFound, KindConflict:
		return false
	}
	return true
}
