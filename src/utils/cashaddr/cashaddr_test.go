package cashaddr

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	knownAddress = "bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a"
	knownHash    = "76a04053bda0a88bda5177b86a15c3b29f559873"
)

type CashAddrTestSuite struct {
	suite.Suite
}

func TestCashAddrTestSuite(t *testing.T) {
	suite.Run(t, new(CashAddrTestSuite))
}

func (s *CashAddrTestSuite) hash(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*7 + 3)
	}
	return out
}

func (s *CashAddrTestSuite) TestKnownVector() {
	hash, err := hex.DecodeString(knownHash)
	require.Nil(s.T(), err)

	encoded, err := Encode(PrefixMainnet, P2PKH, hash)
	require.Nil(s.T(), err)
	require.Equal(s.T(), knownAddress, encoded)

	decoded, err := Decode(knownAddress, "")
	require.Nil(s.T(), err)
	require.Equal(s.T(), PrefixMainnet, decoded.Prefix)
	require.Equal(s.T(), P2PKH, decoded.Type)
	require.Equal(s.T(), hash, decoded.Hash)
	require.True(s.T(), decoded.IsPubKeyHash())
}

func (s *CashAddrTestSuite) TestRoundTripSizes() {
	for _, size := range []int{20, 24, 28, 32, 40, 48, 56, 64} {
		for _, addressType := range []AddressType{P2PKH, P2SH, P2PKHWithTokens, P2SHWithTokens} {
			hash := s.hash(size)
			encoded, err := Encode(PrefixTestnet, addressType, hash)
			require.Nil(s.T(), err)
			require.True(s.T(), strings.HasPrefix(encoded, PrefixTestnet+":"))

			decoded, err := Decode(encoded, "")
			require.Nil(s.T(), err)
			require.Equal(s.T(), addressType, decoded.Type)
			require.Equal(s.T(), hash, decoded.Hash)
			require.Equal(s.T(), encoded, decoded.String())
		}
	}
}

func (s *CashAddrTestSuite) TestInvalidLength() {
	_, err := Encode(PrefixMainnet, P2PKH, s.hash(21))
	require.ErrorIs(s.T(), err, ErrInvalidLength)

	_, err = Encode("", P2PKH, s.hash(20))
	require.ErrorIs(s.T(), err, ErrMissingPrefix)
}

func (s *CashAddrTestSuite) TestUnprefixed() {
	decoded, err := Decode(strings.TrimPrefix(knownAddress, "bitcoincash:"), PrefixMainnet)
	require.Nil(s.T(), err)
	require.Equal(s.T(), knownAddress, decoded.String())

	// Checksum commits to the prefix
	_, err = Decode(strings.TrimPrefix(knownAddress, "bitcoincash:"), PrefixTestnet)
	require.ErrorIs(s.T(), err, ErrInvalidChecksum)

	_, err = Decode(strings.TrimPrefix(knownAddress, "bitcoincash:"), "")
	require.ErrorIs(s.T(), err, ErrMissingPrefix)
}

func (s *CashAddrTestSuite) TestCase() {
	decoded, err := Decode(strings.ToUpper(knownAddress), "")
	require.Nil(s.T(), err)
	require.Equal(s.T(), knownAddress, decoded.String())

	_, err = Decode("bitcoincash:Qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a", "")
	require.ErrorIs(s.T(), err, ErrMixedCase)
}

func (s *CashAddrTestSuite) TestCorrupted() {
	// Flip the last character
	corrupted := knownAddress[:len(knownAddress)-1] + "q"
	_, err := Decode(corrupted, "")
	require.ErrorIs(s.T(), err, ErrInvalidChecksum)

	_, err = Decode("bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6b", "")
	require.ErrorIs(s.T(), err, ErrInvalidChar)

	_, err = Decode("bitcoincash:qpm2", "")
	require.ErrorIs(s.T(), err, ErrInvalidLength)
}

func (s *CashAddrTestSuite) TestFromLegacy() {
	hash := s.hash(20)

	mainnet, err := btcutil.NewAddressPubKeyHash(hash, &chaincfg.MainNetParams)
	require.Nil(s.T(), err)
	out, err := FromLegacy(mainnet.EncodeAddress())
	require.Nil(s.T(), err)
	require.Equal(s.T(), PrefixMainnet, out.Prefix)
	require.Equal(s.T(), P2PKH, out.Type)
	require.Equal(s.T(), hash, out.Hash)

	testnet, err := btcutil.NewAddressScriptHashFromHash(hash, &chaincfg.TestNet3Params)
	require.Nil(s.T(), err)
	out, err = FromLegacy(testnet.EncodeAddress())
	require.Nil(s.T(), err)
	require.Equal(s.T(), PrefixTestnet, out.Prefix)
	require.Equal(s.T(), P2SH, out.Type)

	_, err = FromLegacy("not-an-address")
	require.ErrorIs(s.T(), err, ErrNotLegacy)
}

func (s *CashAddrTestSuite) TestParse() {
	out, err := Parse(knownAddress)
	require.Nil(s.T(), err)
	require.Equal(s.T(), knownAddress, out.String())

	out, err = Parse(strings.TrimPrefix(knownAddress, "bitcoincash:"))
	require.Nil(s.T(), err)
	require.Equal(s.T(), knownAddress, out.String())

	testnet, err := Encode(PrefixTestnet, P2PKH, s.hash(20))
	require.Nil(s.T(), err)
	out, err = Parse(strings.TrimPrefix(testnet, "bchtest:"))
	require.Nil(s.T(), err)
	require.Equal(s.T(), PrefixTestnet, out.Prefix)

	legacy, err := btcutil.NewAddressPubKeyHash(s.hash(20), &chaincfg.MainNetParams)
	require.Nil(s.T(), err)
	out, err = Parse(legacy.EncodeAddress())
	require.Nil(s.T(), err)
	require.Equal(s.T(), PrefixMainnet, out.Prefix)

	_, err = Parse("garbage")
	require.NotNil(s.T(), err)
}
