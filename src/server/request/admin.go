package request

import "encoding/json"

type CreateFaucet struct {
	Network        string `json:"network" binding:"required"`
	Passcode       string `json:"passcode" binding:"required"`
	PayoutSatoshis uint64 `json:"payout_satoshis"`
	OwnerAddress   string `json:"owner_address" binding:"required"`
	MaxClaimCount  *uint  `json:"max_claim_count"`
}

// Null cap removes it, missing cap keeps it
type UpdateFaucet struct {
	MaxClaimCount OptionalUint `json:"max_claim_count"`
}

// Tells a missing field from an explicit null
type OptionalUint struct {
	Set   bool
	Value *uint
}

func (self *OptionalUint) UnmarshalJSON(data []byte) error {
	self.Set = true
	return json.Unmarshal(data, &self.Value)
}

type Sweep struct {
	SigningKey string `json:"signing_key" binding:"required"`
	Recipient  string `json:"recipient"`
}

// Empty ids selects all faucets
type Bulk struct {
	Ids []uint `json:"ids"`
}
