package faucet

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bchfaucet/faucet/src/utils/compiler"
	"github.com/bchfaucet/faucet/src/utils/model"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	for _, tc := range []struct {
		err    error
		kind   Kind
		status int
		logged bool
	}{
		{ErrInvalidPasscode, KindValidation, http.StatusBadRequest, false},
		{fmt.Errorf("%w: x", ErrWrongNetworkAddress), KindValidation, http.StatusBadRequest, false},
		{compiler.ErrInvalidSigningKey, KindValidation, http.StatusBadRequest, false},
		{model.ErrImmutableContract, KindValidation, http.StatusBadRequest, false},
		{ErrRateLimited, KindRateLimited, http.StatusTooManyRequests, false},
		{ErrNoClaimableFaucet, KindOperational, http.StatusServiceUnavailable, true},
		{ErrInsufficientFunds, KindOperational, http.StatusServiceUnavailable, true},
		{fmt.Errorf("%w: bad script", ErrCompilation), KindUpstream, http.StatusBadGateway, true},
		{ErrBroadcast, KindUpstream, http.StatusBadGateway, true},
		{ErrGateway, KindGateway, http.StatusGatewayTimeout, true},
		{ErrFaucetNotFound, KindNotFound, http.StatusNotFound, false},
		{ErrFaucetHasClaims, KindConflict, http.StatusConflict, false},
		{ErrCommit, KindInternal, http.StatusInternalServerError, true},
		{errors.New("whatever"), KindInternal, http.StatusInternalServerError, true},
	} {
		kind := KindOf(tc.err)
		require.Equal(t, tc.kind, kind, tc.err.Error())
		require.Equal(t, tc.status, kind.HTTPStatus(), tc.err.Error())
		require.Equal(t, tc.logged, kind.IsLogged(), tc.err.Error())
	}
}

func TestParseAddress(t *testing.T) {
	parsed, err := ParseAddress("qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a", model.NetworkMainnet)
	require.Nil(t, err)
	require.Equal(t, mainnetAddress, parsed.String())

	_, err = ParseAddress(mainnetAddress, model.NetworkChipnet)
	require.ErrorIs(t, err, ErrWrongNetworkAddress)

	_, err = ParseAddress(mainnetAddress, "regtest")
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = ParseAddress("bitcoincash:", model.NetworkMainnet)
	require.ErrorIs(t, err, ErrInvalidAddress)
}
