package response

import (
	"time"

	"github.com/bchfaucet/faucet/src/utils/model"
)

// Passcode is returned only to the admin
type Faucet struct {
	ID               uint          `json:"id"`
	Address          string        `json:"address"`
	Network          model.Network `json:"network"`
	Passcode         string        `json:"passcode"`
	PayoutSatoshis   uint64        `json:"payout_satoshis"`
	OwnerAddress     string        `json:"owner_address"`
	ClaimCount       uint          `json:"claim_count"`
	MaxClaimCount    *uint         `json:"max_claim_count"`
	Subscribed       bool          `json:"subscribed"`
	BalanceSatoshis  *uint64       `json:"balance_satoshis"`
	BalanceBCH       *string       `json:"balance_bch"`
	BalanceUpdatedAt *time.Time    `json:"balance_updated_at"`
	CreatedAt        time.Time     `json:"created_at"`
}

func FaucetToResponse(faucet *model.FaucetContract) *Faucet {
	out := &Faucet{
		ID:               faucet.ID,
		Address:          faucet.Address,
		Network:          faucet.Network,
		Passcode:         faucet.Passcode,
		PayoutSatoshis:   faucet.PayoutSatoshis,
		OwnerAddress:     faucet.OwnerAddress,
		ClaimCount:       faucet.ClaimCount,
		MaxClaimCount:    faucet.MaxClaimCount,
		Subscribed:       faucet.Subscribed,
		BalanceSatoshis:  faucet.BalanceSatoshis,
		BalanceUpdatedAt: faucet.BalanceUpdatedAt,
		CreatedAt:        faucet.CreatedAt,
	}
	if faucet.BalanceSatoshis != nil {
		bch := model.SatoshisToBCH(*faucet.BalanceSatoshis)
		out.BalanceBCH = &bch
	}
	return out
}

func FaucetsToResponse(faucets []*model.FaucetContract) []*Faucet {
	out := make([]*Faucet, len(faucets))
	for i, faucet := range faucets {
		out[i] = FaucetToResponse(faucet)
	}
	return out
}
