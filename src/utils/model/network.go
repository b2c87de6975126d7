package model

import (
	"database/sql/driver"
	"fmt"
)

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkChipnet Network = "chipnet"
)

func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case NetworkMainnet, NetworkChipnet:
		return Network(s), nil
	}
	return "", fmt.Errorf("unknown network: %q", s)
}

func (self Network) String() string {
	return string(self)
}

func (self *Network) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*self = Network(v)
	case []byte:
		*self = Network(v)
	default:
		return fmt.Errorf("unsupported network type: %T", value)
	}
	return nil
}

func (self Network) Value() (driver.Value, error) {
	return string(self), nil
}
