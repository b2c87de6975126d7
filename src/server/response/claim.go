package response

import (
	"time"

	"github.com/bchfaucet/faucet/src/faucet"
	"github.com/bchfaucet/faucet/src/utils/model"
)

type Claim struct {
	Txid      string `json:"txid"`
	Satoshis  uint64 `json:"satoshis"`
	AmountBCH string `json:"amount_bch"`
	Recipient string `json:"recipient"`
	TxLink    string `json:"tx_link"`
}

func ClaimToResponse(result *faucet.ClaimResult) *Claim {
	return &Claim{
		Txid:      result.Txid,
		Satoshis:  result.Claim.Satoshis,
		AmountBCH: result.Claim.AmountBCH(),
		Recipient: result.Claim.Recipient,
		TxLink:    result.Claim.TxLink(),
	}
}

// Claimant's IP is never exposed
type RecentClaim struct {
	Network   model.Network `json:"network"`
	Txid      string        `json:"txid"`
	Recipient string        `json:"recipient"`
	Satoshis  uint64        `json:"satoshis"`
	AmountBCH string        `json:"amount_bch"`
	TxLink    string        `json:"tx_link"`
	CreatedAt time.Time     `json:"created_at"`
}

func RecentClaimsToResponse(claims []*model.FaucetClaim) []*RecentClaim {
	out := make([]*RecentClaim, len(claims))
	for i, claim := range claims {
		out[i] = &RecentClaim{
			Network:   claim.Network,
			Txid:      claim.Txid,
			Recipient: claim.Recipient,
			Satoshis:  claim.Satoshis,
			AmountBCH: claim.AmountBCH(),
			TxLink:    claim.TxLink(),
			CreatedAt: claim.CreatedAt,
		}
	}
	return out
}

type Error struct {
	Error string      `json:"error"`
	Kind  faucet.Kind `json:"kind"`
}
