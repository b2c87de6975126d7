package faucet

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bchfaucet/faucet/src/utils/cashaddr"
	"github.com/bchfaucet/faucet/src/utils/compiler"
	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/model"
	monitor_faucet "github.com/bchfaucet/faucet/src/utils/monitoring/faucet"
	"github.com/bchfaucet/faucet/src/utils/watchtower"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	mainnetAddress = "bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a"
	testWif        = "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"
)

type fakeGateway struct {
	mtx sync.Mutex

	balances map[string]decimal.Decimal
	utxos    map[string][]watchtower.Utxo

	balanceErr   error
	utxosErr     error
	broadcastErr error
	subscribeErr error

	// Called inside GetUtxos, before returning
	onGetUtxos func()

	balanceCalls  int
	utxoCalls     int
	broadcasts    []string
	subscriptions []string
	webhookUrls   []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		balances: make(map[string]decimal.Decimal),
		utxos:    make(map[string][]watchtower.Utxo),
	}
}

func (self *fakeGateway) calls() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.balanceCalls + self.utxoCalls + len(self.broadcasts) + len(self.subscriptions)
}

func (self *fakeGateway) GetBalance(ctx context.Context, network model.Network, address string) (*watchtower.Balance, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.balanceCalls++
	if self.balanceErr != nil {
		return nil, self.balanceErr
	}
	return &watchtower.Balance{Valid: true, Balance: self.balances[address]}, nil
}

func (self *fakeGateway) GetUtxos(ctx context.Context, network model.Network, address string) ([]watchtower.Utxo, error) {
	self.mtx.Lock()
	self.utxoCalls++
	utxos, err, hook := self.utxos[address], self.utxosErr, self.onGetUtxos
	self.mtx.Unlock()

	if hook != nil {
		hook()
	}
	return utxos, err
}

func (self *fakeGateway) Broadcast(ctx context.Context, network model.Network, txHex string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.broadcastErr != nil {
		return self.broadcastErr
	}
	self.broadcasts = append(self.broadcasts, txHex)
	return nil
}

func (self *fakeGateway) Subscribe(ctx context.Context, network model.Network, address, webhookUrl string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.subscribeErr != nil {
		return self.subscribeErr
	}
	self.subscriptions = append(self.subscriptions, address)
	self.webhookUrls = append(self.webhookUrls, webhookUrl)
	return nil
}

type fakeCompiler struct {
	mtx sync.Mutex

	compileErr error
	claimErr   error
	sweepErr   error

	counter int
	claims  []compiler.ClaimParams
	sweeps  []compiler.SweepParams
	txs     []*compiler.Transaction
}

// Deterministic, unique per parameters
func contractAddress(params compiler.ContractParams) string {
	prefix := cashaddr.PrefixMainnet
	if params.Network == model.NetworkChipnet {
		prefix = cashaddr.PrefixTestnet
	}
	return fmt.Sprintf("%s:contract-%s-%d-%s", prefix, params.Passcode, params.PayoutSatoshis, params.OwnerAddress[len(params.OwnerAddress)-6:])
}

func (self *fakeCompiler) Compile(ctx context.Context, params compiler.ContractParams) (*compiler.Contract, error) {
	if self.compileErr != nil {
		return nil, self.compileErr
	}
	return &compiler.Contract{Address: contractAddress(params)}, nil
}

func (self *fakeCompiler) transaction(kind string) (*compiler.Transaction, error) {
	self.counter++
	txHex := hex.EncodeToString([]byte(fmt.Sprintf("%s-%d", kind, self.counter)))
	txid, err := compiler.TxId(txHex)
	if err != nil {
		return nil, err
	}
	tx := &compiler.Transaction{Hex: txHex, Txid: txid}
	self.txs = append(self.txs, tx)
	return tx, nil
}

func (self *fakeCompiler) Claim(ctx context.Context, params compiler.ClaimParams) (*compiler.Transaction, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.claims = append(self.claims, params)
	if self.claimErr != nil {
		return nil, self.claimErr
	}
	if params.Passcode != params.Contract.Passcode {
		return nil, fmt.Errorf("%w: passcode mismatch", compiler.ErrScriptFailed)
	}
	return self.transaction("claim")
}

func (self *fakeCompiler) Sweep(ctx context.Context, params compiler.SweepParams) (*compiler.Transaction, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.sweeps = append(self.sweeps, params)
	if self.sweepErr != nil {
		return nil, self.sweepErr
	}
	return self.transaction("sweep")
}

func (self *fakeCompiler) lastClaim() compiler.ClaimParams {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.claims[len(self.claims)-1]
}

// Base suite: sqlite database, fake gateway and compiler, controllable clock
type FaucetTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc

	config   *config.Config
	db       *gorm.DB
	gateway  *fakeGateway
	compiler *fakeCompiler
	monitor  *monitor_faucet.Monitor
	service  *Service

	clockMtx sync.Mutex
	now      time.Time
}

func (s *FaucetTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.config = config.Default()
	s.config.Database.Driver = config.DriverSqlite
	s.config.Database.Path = filepath.Join(s.T().TempDir(), "faucet.db")
	s.config.Reconciler.Period = 0
	s.config.Webhook.ReconcileMaxElapsedTime = 0
	s.config.Watchtower.WebhookReceiverUrl = "https://faucet.example/webhook/"

	var err error
	s.db, err = model.NewConnection(s.ctx, s.config, "faucet-test")
	require.Nil(s.T(), err)

	s.gateway = newFakeGateway()
	s.compiler = &fakeCompiler{}
	s.monitor = monitor_faucet.NewMonitor()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	s.build()
}

// Rebuilds components, e.g. after config change
func (s *FaucetTestSuite) build() {
	s.service = NewService(s.config, s.db, s.gateway, s.compiler, s.monitor)
	s.service.Claimer.WithClock(s.clock)
	s.service.Reconciler.WithClock(s.clock)
}

func (s *FaucetTestSuite) TearDownTest() {
	db, err := s.db.DB()
	if err == nil {
		_ = db.Close()
	}
	s.cancel()
}

func (s *FaucetTestSuite) clock() time.Time {
	s.clockMtx.Lock()
	defer s.clockMtx.Unlock()
	return s.now
}

func (s *FaucetTestSuite) advance(d time.Duration) {
	s.clockMtx.Lock()
	defer s.clockMtx.Unlock()
	s.now = s.now.Add(d)
}

func (s *FaucetTestSuite) chipnetAddress() string {
	out, err := cashaddr.Encode(cashaddr.PrefixTestnet, cashaddr.P2PKH, make([]byte, 20))
	require.Nil(s.T(), err)
	return out
}

func (s *FaucetTestSuite) recipient(i byte) string {
	hash := make([]byte, 20)
	hash[0] = i
	out, err := cashaddr.Encode(cashaddr.PrefixMainnet, cashaddr.P2PKH, hash)
	require.Nil(s.T(), err)
	return out
}

// Inserts a faucet directly
func (s *FaucetTestSuite) faucet(network model.Network, passcode string, payout uint64, maxClaimCount *uint) *model.FaucetContract {
	owner := mainnetAddress
	if network == model.NetworkChipnet {
		owner = s.chipnetAddress()
	}

	faucet := &model.FaucetContract{
		Network:        network,
		Passcode:       passcode,
		PayoutSatoshis: payout,
		OwnerAddress:   owner,
		MaxClaimCount:  maxClaimCount,
	}
	faucet.Address = contractAddress(compiler.ContractParamsOf(faucet))
	require.Nil(s.T(), s.service.Registry.CreateFaucet(s.ctx, faucet))
	return faucet
}

func (s *FaucetTestSuite) fund(faucet *model.FaucetContract, values ...uint64) {
	s.gateway.mtx.Lock()
	defer s.gateway.mtx.Unlock()

	utxos := make([]watchtower.Utxo, 0, len(values))
	for i, value := range values {
		utxos = append(utxos, watchtower.Utxo{Txid: fmt.Sprintf("%064d", i), Vout: uint32(i), Value: value})
	}
	s.gateway.utxos[faucet.Address] = utxos

	var total uint64
	for _, value := range values {
		total += value
	}
	s.gateway.balances[faucet.Address] = decimal.NewFromInt(int64(total)).Shift(-8)
}

func (s *FaucetTestSuite) reload(faucet *model.FaucetContract) *model.FaucetContract {
	out, err := s.service.Registry.GetFaucet(s.ctx, faucet.ID)
	require.Nil(s.T(), err)
	return out
}

func (s *FaucetTestSuite) claims(faucet *model.FaucetContract) []*model.FaucetClaim {
	out, err := s.service.Registry.ClaimsOf(s.ctx, faucet.ID)
	require.Nil(s.T(), err)
	return out
}

func ptr[T any](v T) *T {
	return &v
}
