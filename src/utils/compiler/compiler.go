// Package compiler drives the faucet covenant scripts: address derivation, claim and sweep transactions.
package compiler

import (
	"context"
	"errors"

	"github.com/bchfaucet/faucet/src/utils/model"
	"github.com/bchfaucet/faucet/src/utils/watchtower"
)

var (
	// Script ran and refused to produce a result, message is the script's own
	ErrScriptFailed = errors.New("contract script failed")

	// Script couldn't be run or returned garbage
	ErrRunnerFailed = errors.New("contract runner failed")

	ErrInvalidSigningKey = errors.New("invalid signing key")
)

type Compiler interface {
	Compile(ctx context.Context, params ContractParams) (*Contract, error)
	Claim(ctx context.Context, params ClaimParams) (*Transaction, error)
	Sweep(ctx context.Context, params SweepParams) (*Transaction, error)
}

// Parameters the contract address is derived from
type ContractParams struct {
	Passcode       string
	PayoutSatoshis uint64
	OwnerAddress   string
	Network        model.Network
}

func ContractParamsOf(faucet *model.FaucetContract) ContractParams {
	return ContractParams{
		Passcode:       faucet.Passcode,
		PayoutSatoshis: faucet.PayoutSatoshis,
		OwnerAddress:   faucet.OwnerAddress,
		Network:        faucet.Network,
	}
}

type Contract struct {
	Address      string `json:"address"`
	TokenAddress string `json:"tokenAddress"`
}

type Nft struct {
	Capability string `json:"capability"`
	Commitment string `json:"commitment"`
}

type Token struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Nft      *Nft   `json:"nft,omitempty"`
}

type Utxo struct {
	Txid     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Satoshis uint64 `json:"satoshis"`
	Token    *Token `json:"token,omitempty"`
}

func UtxoOf(in watchtower.Utxo) (out Utxo) {
	out = Utxo{
		Txid:     in.Txid,
		Vout:     in.Vout,
		Satoshis: in.Value,
	}
	if !in.IsCashToken {
		return
	}

	out.Token = &Token{
		Category: in.TokenId,
		Amount:   in.Amount.String(),
	}
	if out.Token.Amount == "" {
		out.Token.Amount = "0"
	}
	if in.Capability != "" {
		out.Token.Nft = &Nft{
			Capability: in.Capability,
			Commitment: in.Commitment,
		}
	}
	return
}

func UtxosOf(in []watchtower.Utxo) (out []Utxo) {
	out = make([]Utxo, 0, len(in))
	for _, utxo := range in {
		out = append(out, UtxoOf(utxo))
	}
	return
}

type ClaimParams struct {
	Contract  ContractParams
	Utxo      Utxo
	Recipient string
	Passcode  string
}

type SweepParams struct {
	Contract ContractParams
	Utxos    []Utxo

	// Defaults to the owner address when empty
	Recipient string

	// WIF encoded key of the owner
	SigningKey string
}

type Transaction struct {
	Hex  string
	Txid string
}
