package cashaddr

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

var ErrNotLegacy = errors.New("not a legacy base58 address")

var legacyParams = []struct {
	params *chaincfg.Params
	prefix string
}{
	{&chaincfg.MainNetParams, PrefixMainnet},
	{&chaincfg.TestNet3Params, PrefixTestnet},
}

// FromLegacy converts a base58 P2PKH or P2SH address into its CashAddr form.
// Bitcoin Cash shares version bytes with Bitcoin, so mainnet and testnet params are used as is.
func FromLegacy(address string) (*Address, error) {
	for _, p := range legacyParams {
		decoded, err := btcutil.DecodeAddress(address, p.params)
		if err != nil || !decoded.IsForNet(p.params) {
			continue
		}

		switch a := decoded.(type) {
		case *btcutil.AddressPubKeyHash:
			return &Address{Prefix: p.prefix, Type: P2PKH, Hash: a.ScriptAddress()}, nil
		case *btcutil.AddressScriptHash:
			return &Address{Prefix: p.prefix, Type: P2SH, Hash: a.ScriptAddress()}, nil
		}
	}
	return nil, ErrNotLegacy
}

// Parse accepts a prefixed CashAddr, an unprefixed CashAddr (mainnet or testnet) or a legacy address
func Parse(address string) (*Address, error) {
	if HasPrefix(address) {
		return Decode(address, "")
	}

	for _, prefix := range []string{PrefixMainnet, PrefixTestnet} {
		if out, err := Decode(address, prefix); err == nil {
			return out, nil
		}
	}

	out, err := FromLegacy(address)
	if err != nil {
		return nil, ErrInvalidChecksum
	}
	return out, nil
}
