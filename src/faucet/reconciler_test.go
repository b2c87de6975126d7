package faucet

import (
	"testing"
	"time"

	"github.com/bchfaucet/faucet/src/utils/model"
	"github.com/bchfaucet/faucet/src/utils/watchtower"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestReconcilerTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerTestSuite))
}

type ReconcilerTestSuite struct {
	FaucetTestSuite
}

func (s *ReconcilerTestSuite) setBalance(faucet *model.FaucetContract, bch string) {
	s.gateway.mtx.Lock()
	defer s.gateway.mtx.Unlock()
	s.gateway.balances[faucet.Address] = decimal.RequireFromString(bch)
}

func (s *ReconcilerTestSuite) TestReconcile() {
	faucet := s.faucet(model.NetworkMainnet, "ABC123", 10000, nil)
	s.setBalance(faucet, "0.00123456")

	satoshis, err := s.service.Reconciler.Reconcile(s.ctx, faucet)
	require.Nil(s.T(), err)
	require.Equal(s.T(), int64(123456), satoshis)
	require.Equal(s.T(), uint64(123456), *faucet.BalanceSatoshis)

	stored := s.reload(faucet)
	require.Equal(s.T(), uint64(123456), *stored.BalanceSatoshis)
	require.True(s.T(), s.now.Equal(*stored.BalanceUpdatedAt))

	// Same upstream balance, same result
	s.advance(time.Minute)
	satoshis, err = s.service.Reconciler.Reconcile(s.ctx, faucet)
	require.Nil(s.T(), err)
	require.Equal(s.T(), int64(123456), satoshis)
	require.Equal(s.T(), uint64(123456), *s.reload(faucet).BalanceSatoshis)

	require.Equal(s.T(), uint64(2), s.monitor.GetReport().Reconciler.State.Reconciliations.Load())
}

func (s *ReconcilerTestSuite) TestRounding() {
	faucet := s.faucet(model.NetworkMainnet, "ABC123", 10000, nil)
	s.setBalance(faucet, "0.000123456")

	satoshis, err := s.service.Reconciler.Reconcile(s.ctx, faucet)
	require.Nil(s.T(), err)
	require.Equal(s.T(), int64(12346), satoshis)
}

func (s *ReconcilerTestSuite) TestNegativeClamped() {
	faucet := s.faucet(model.NetworkMainnet, "ABC123", 10000, nil)
	s.setBalance(faucet, "-0.0001")

	satoshis, err := s.service.Reconciler.Reconcile(s.ctx, faucet)
	require.Nil(s.T(), err)
	require.Equal(s.T(), int64(0), satoshis)
	require.Equal(s.T(), uint64(0), *s.reload(faucet).BalanceSatoshis)
}

func (s *ReconcilerTestSuite) TestGatewayError() {
	faucet := s.faucet(model.NetworkMainnet, "ABC123", 10000, nil)
	s.gateway.balanceErr = watchtower.ErrUnavailable

	_, err := s.service.Reconciler.Reconcile(s.ctx, faucet)
	require.ErrorIs(s.T(), err, ErrGateway)
	require.Nil(s.T(), s.reload(faucet).BalanceSatoshis)
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Reconciler.Errors.Gateway.Load())
}

func (s *ReconcilerTestSuite) TestReconcileDoesntTouchClaims() {
	faucet := s.faucet(model.NetworkMainnet, "ABC123", 10000, ptr(uint(5)))
	s.setBalance(faucet, "1")

	_, err := s.service.Reconciler.Reconcile(s.ctx, faucet)
	require.Nil(s.T(), err)

	stored := s.reload(faucet)
	require.Equal(s.T(), uint(0), stored.ClaimCount)
	require.Equal(s.T(), uint(5), *stored.MaxClaimCount)
	require.Equal(s.T(), "ABC123", stored.Passcode)
}

func (s *ReconcilerTestSuite) TestReconcileAll() {
	first := s.faucet(model.NetworkMainnet, "ONE", 10000, nil)
	second := s.faucet(model.NetworkMainnet, "TWO", 10000, nil)
	s.setBalance(first, "0.001")
	s.setBalance(second, "0.002")

	results, err := s.service.Reconciler.ReconcileAll(s.ctx, nil)
	require.Nil(s.T(), err)
	require.Len(s.T(), results, 2)
	require.Equal(s.T(), first.ID, results[0].FaucetId)
	require.Equal(s.T(), int64(100000), *results[0].Satoshis)
	require.Equal(s.T(), int64(200000), *results[1].Satoshis)

	// Selected only
	results, err = s.service.Reconciler.ReconcileAll(s.ctx, []uint{second.ID})
	require.Nil(s.T(), err)
	require.Len(s.T(), results, 1)
	require.Equal(s.T(), second.Address, results[0].Address)
}

func (s *ReconcilerTestSuite) TestReconcileAllReportsFailures() {
	s.faucet(model.NetworkMainnet, "ONE", 10000, nil)
	s.gateway.balanceErr = watchtower.ErrUnavailable

	results, err := s.service.Reconciler.ReconcileAll(s.ctx, nil)
	require.Nil(s.T(), err)
	require.Len(s.T(), results, 1)
	require.Nil(s.T(), results[0].Satoshis)
	require.Contains(s.T(), results[0].Error, ErrGateway.Error())
}

func (s *ReconcilerTestSuite) TestRefreshStale() {
	s.config.Reconciler.StaleAfter = time.Hour
	s.config.Reconciler.BatchSize = 2

	fresh := s.faucet(model.NetworkMainnet, "FRESH", 10000, nil)
	stale := s.faucet(model.NetworkMainnet, "STALE", 10000, nil)
	never := s.faucet(model.NetworkMainnet, "NEVER", 10000, nil)
	other := s.faucet(model.NetworkMainnet, "OTHER", 10000, nil)
	for _, faucet := range []*model.FaucetContract{fresh, stale, never, other} {
		s.setBalance(faucet, "0.01")
	}

	require.Nil(s.T(), s.service.Registry.UpdateBalance(s.ctx, stale, 1, s.now.Add(-2*time.Hour)))
	require.Nil(s.T(), s.service.Registry.UpdateBalance(s.ctx, fresh, 1, s.now.Add(-time.Minute)))

	// Never refreshed go first, batch is limited
	require.Nil(s.T(), s.service.Reconciler.refreshStale())
	require.Equal(s.T(), uint64(1000000), *s.reload(never).BalanceSatoshis)
	require.Equal(s.T(), uint64(1000000), *s.reload(other).BalanceSatoshis)
	require.Equal(s.T(), uint64(1), *s.reload(stale).BalanceSatoshis)

	require.Nil(s.T(), s.service.Reconciler.refreshStale())
	require.Equal(s.T(), uint64(1000000), *s.reload(stale).BalanceSatoshis)
	require.Equal(s.T(), uint64(1), *s.reload(fresh).BalanceSatoshis)

	require.Equal(s.T(), uint64(3), s.monitor.GetReport().Reconciler.State.StaleRefreshes.Load())
	require.Equal(s.T(), s.now.Unix(), s.monitor.GetReport().Reconciler.State.LastRefreshTimestamp.Load())
}
