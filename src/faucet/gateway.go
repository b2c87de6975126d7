package faucet

import (
	"context"

	"github.com/bchfaucet/faucet/src/utils/model"
	"github.com/bchfaucet/faucet/src/utils/watchtower"
)

// Remote ledger the faucet reads UTXOs and balances from and broadcasts to
type Gateway interface {
	GetBalance(ctx context.Context, network model.Network, address string) (*watchtower.Balance, error)
	GetUtxos(ctx context.Context, network model.Network, address string) ([]watchtower.Utxo, error)
	Broadcast(ctx context.Context, network model.Network, txHex string) error
	Subscribe(ctx context.Context, network model.Network, address, webhookUrl string) error
}
