package faucet

import (
	"fmt"

	"github.com/bchfaucet/faucet/src/utils/cashaddr"
	"github.com/bchfaucet/faucet/src/utils/model"
)

var prefixes = map[model.Network]string{
	model.NetworkMainnet: cashaddr.PrefixMainnet,
	model.NetworkChipnet: cashaddr.PrefixTestnet,
}

// ParseAddress validates the address for the network and returns its prefixed CashAddr form
func ParseAddress(address string, network model.Network) (*cashaddr.Address, error) {
	parsed, err := cashaddr.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}

	expected, ok := prefixes[network]
	if !ok {
		return nil, fmt.Errorf("%w: unknown network %q", ErrInvalidRequest, network)
	}
	if parsed.Prefix != expected {
		return nil, fmt.Errorf("%w: %s is not a %s address", ErrWrongNetworkAddress, address, network)
	}
	return parsed, nil
}

func NormalizeRecipient(address string, network model.Network) (string, error) {
	parsed, err := ParseAddress(address, network)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// Owner signs sweeps, so it has to be a key hash
func NormalizeOwner(address string, network model.Network) (string, error) {
	parsed, err := ParseAddress(address, network)
	if err != nil {
		return "", err
	}
	if !parsed.IsPubKeyHash() {
		return "", fmt.Errorf("%w: owner %s is not a pay-to-public-key-hash address", ErrInvalidAddress, address)
	}
	return parsed.String(), nil
}
