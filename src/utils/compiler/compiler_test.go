package compiler

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/model"
	"github.com/bchfaucet/faucet/src/utils/watchtower"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testWif = "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"

func TestCompilerTestSuite(t *testing.T) {
	suite.Run(t, new(CompilerTestSuite))
}

type CompilerTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config config.Compiler

	genesisHex  string
	genesisTxid string

	function string
	input    map[string]interface{}
	output   string
}

func (s *CompilerTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default().Compiler

	tx := chaincfg.MainNetParams.GenesisBlock.Transactions[0]
	var buf bytes.Buffer
	require.Nil(s.T(), tx.Serialize(&buf))
	s.genesisHex = hex.EncodeToString(buf.Bytes())
	s.genesisTxid = tx.TxHash().String()
}

func (s *CompilerTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *CompilerTestSuite) fake() *Script {
	return NewScript(&s.config).WithRunFunc(func(ctx context.Context, function string, input []byte) ([]byte, error) {
		s.function = function
		s.input = nil
		if err := json.Unmarshal(input, &s.input); err != nil {
			return nil, err
		}
		return []byte(s.output), nil
	})
}

func (s *CompilerTestSuite) params() ContractParams {
	return ContractParams{
		Passcode:       "ABC123",
		PayoutSatoshis: 10000,
		OwnerAddress:   "bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a",
		Network:        model.NetworkMainnet,
	}
}

func (s *CompilerTestSuite) TestTxId() {
	require.Equal(s.T(), "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b", s.genesisTxid)

	txid, err := TxId(s.genesisHex)
	require.Nil(s.T(), err)
	require.Equal(s.T(), s.genesisTxid, txid)

	_, err = TxId("zz")
	require.ErrorIs(s.T(), err, ErrRunnerFailed)
}

func (s *CompilerTestSuite) TestCompile() {
	s.output = `{"address": "bitcoincash:pcontract", "tokenAddress": "bitcoincash:rcontract"}`

	out, err := s.fake().Compile(s.ctx, s.params())
	require.Nil(s.T(), err)
	require.Equal(s.T(), "bitcoincash:pcontract", out.Address)
	require.Equal(s.T(), "bitcoincash:rcontract", out.TokenAddress)

	require.Equal(s.T(), FunctionCompile, s.function)
	params := s.input["params"].(map[string]interface{})
	require.Equal(s.T(), "ABC123", params["passcode"])
	require.Equal(s.T(), float64(10000), params["payoutSats"])
	require.Equal(s.T(), "mainnet", s.input["options"].(map[string]interface{})["network"])
}

func (s *CompilerTestSuite) TestCompileNoAddress() {
	s.output = `{}`

	_, err := s.fake().Compile(s.ctx, s.params())
	require.ErrorIs(s.T(), err, ErrRunnerFailed)
}

func (s *CompilerTestSuite) TestClaim() {
	s.output = "building\n" + `{"success": true, "transaction": "` + s.genesisHex + `"}`

	out, err := s.fake().Claim(s.ctx, ClaimParams{
		Contract:  s.params(),
		Utxo:      Utxo{Txid: "aa", Vout: 1, Satoshis: 50000},
		Recipient: "bitcoincash:qrecipient",
		Passcode:  "ABC123",
	})
	require.Nil(s.T(), err)
	require.Equal(s.T(), s.genesisHex, out.Hex)
	require.Equal(s.T(), s.genesisTxid, out.Txid)
	require.Len(s.T(), out.Txid, 64)

	require.Equal(s.T(), FunctionClaim, s.function)
	require.Equal(s.T(), "bitcoincash:qrecipient", s.input["recipient"])
	utxo := s.input["utxo"].(map[string]interface{})
	require.Equal(s.T(), float64(50000), utxo["satoshis"])
	_, hasToken := utxo["token"]
	require.False(s.T(), hasToken)
}

func (s *CompilerTestSuite) TestClaimRefused() {
	s.output = `{"success": false, "error": "Not enough satoshis"}`

	_, err := s.fake().Claim(s.ctx, ClaimParams{Contract: s.params()})
	require.ErrorIs(s.T(), err, ErrScriptFailed)
	require.Contains(s.T(), err.Error(), "Not enough satoshis")
}

func (s *CompilerTestSuite) TestRefusedWithoutReason() {
	s.output = `{"success": false}`

	_, err := s.fake().Claim(s.ctx, ClaimParams{Contract: s.params()})
	require.ErrorIs(s.T(), err, ErrScriptFailed)
	require.EqualError(s.T(), err, "contract script failed: failed to create transaction")

	_, err = s.fake().Sweep(s.ctx, SweepParams{Contract: s.params(), SigningKey: testWif})
	require.ErrorIs(s.T(), err, ErrScriptFailed)
	require.EqualError(s.T(), err, "contract script failed: failed to create sweep transaction")
}

func (s *CompilerTestSuite) TestSweep() {
	s.output = `{"success": true, "transaction": "` + s.genesisHex + `"}`

	out, err := s.fake().Sweep(s.ctx, SweepParams{
		Contract:   s.params(),
		Utxos:      []Utxo{{Txid: "aa", Satoshis: 1000}, {Txid: "bb", Satoshis: 2000}},
		SigningKey: testWif,
	})
	require.Nil(s.T(), err)
	require.Equal(s.T(), s.genesisTxid, out.Txid)

	require.Equal(s.T(), FunctionSweep, s.function)
	require.Equal(s.T(), s.params().OwnerAddress, s.input["recipient"])
	require.Equal(s.T(), testWif, s.input["wif"])
	require.Len(s.T(), s.input["utxos"], 2)
}

func (s *CompilerTestSuite) TestSweepInvalidKey() {
	s.function = ""

	_, err := s.fake().Sweep(s.ctx, SweepParams{Contract: s.params(), SigningKey: "not-a-wif"})
	require.ErrorIs(s.T(), err, ErrInvalidSigningKey)
	require.Empty(s.T(), s.function)
}

func (s *CompilerTestSuite) TestUtxoOf() {
	plain := UtxoOf(watchtower.Utxo{Txid: "aa", Vout: 2, Value: 700})
	require.Nil(s.T(), plain.Token)
	require.Equal(s.T(), uint64(700), plain.Satoshis)

	token := UtxoOf(watchtower.Utxo{
		Txid:        "bb",
		Value:       1000,
		IsCashToken: true,
		TokenId:     "cc",
		Amount:      json.Number("12"),
		Capability:  "minting",
		Commitment:  "00",
	})
	require.NotNil(s.T(), token.Token)
	require.Equal(s.T(), "cc", token.Token.Category)
	require.Equal(s.T(), "12", token.Token.Amount)
	require.Equal(s.T(), "minting", token.Token.Nft.Capability)

	nft := UtxoOf(watchtower.Utxo{IsCashToken: true, TokenId: "dd"})
	require.Equal(s.T(), "0", nft.Token.Amount)
	require.Nil(s.T(), nft.Token.Nft)
}

func (s *CompilerTestSuite) script(body string) *Script {
	path := filepath.Join(s.T().TempDir(), "runner.sh")
	require.Nil(s.T(), os.WriteFile(path, []byte(body), 0o755))

	conf := s.config
	conf.NodePath = "sh"
	conf.ScriptPath = path
	conf.Timeout = 5 * time.Second
	return NewScript(&conf)
}

func (s *CompilerTestSuite) TestSubprocess() {
	script := s.script(`cat > /dev/null
if [ "$1" = "compileFaucetContract" ]; then
  echo '{"address": "bchtest:pcontract", "tokenAddress": "bchtest:rcontract"}'
else
  exit 3
fi
`)

	out, err := script.Compile(s.ctx, s.params())
	require.Nil(s.T(), err)
	require.Equal(s.T(), "bchtest:pcontract", out.Address)
}

func (s *CompilerTestSuite) TestSubprocessThrows() {
	script := s.script(`cat > /dev/null
echo "at Faucet.getContract" >&2
echo "Error: Invalid owner address" >&2
exit 1
`)

	_, err := script.Compile(s.ctx, s.params())
	require.ErrorIs(s.T(), err, ErrScriptFailed)
	require.Contains(s.T(), err.Error(), "Error: Invalid owner address")
}

func (s *CompilerTestSuite) TestSubprocessMissingBinary() {
	conf := s.config
	conf.NodePath = filepath.Join(s.T().TempDir(), "no-such-node")

	_, err := NewScript(&conf).Compile(s.ctx, s.params())
	require.ErrorIs(s.T(), err, ErrRunnerFailed)
}
