package model

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

const TableFaucetClaim = "faucet_claims"

type FaucetClaim struct {
	ID uint `gorm:"primaryKey"`

	// Deleting a faucet that has claims is forbidden
	FaucetID *uint           `gorm:"index"`
	Faucet   *FaucetContract `gorm:"constraint:OnDelete:RESTRICT"`

	Network   Network `gorm:"size:15;not null"`
	Txid      string  `gorm:"size:64;not null"`
	Recipient string  `gorm:"size:75;not null"`
	Satoshis  uint64  `gorm:"not null"`

	// Claimant, nil when unknown
	IP *string `gorm:"size:45;index"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (FaucetClaim) TableName() string {
	return TableFaucetClaim
}

func (self *FaucetClaim) AmountBCH() string {
	return SatoshisToBCH(self.Satoshis)
}

func (self *FaucetClaim) TxLink() string {
	return TxLink(self.Network, self.Txid)
}

func SatoshisToBCH(satoshis uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(satoshis), -8).StringFixed(8)
}

func TxLink(network Network, txid string) string {
	if network == NetworkChipnet {
		return "https://chipnet.bch.ninja/tx/" + txid
	}
	return "https://explorer.bch.ninja/tx/" + txid
}
