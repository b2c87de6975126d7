package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	TableFaucetContract = "faucet_contracts"

	// Fee hardcoded into every claim transaction
	ClaimTxFee uint64 = 300
)

var ErrImmutableContract = errors.New("contract parameters can't be changed after creation")

type FaucetContract struct {
	ID uint `gorm:"primaryKey"`

	// Derived from the parameters below, never changes
	Address string  `gorm:"size:75;uniqueIndex;not null"`
	Network Network `gorm:"size:15;not null;index"`

	// Parameters compiled into the contract
	Passcode       string `gorm:"size:10;not null"`
	PayoutSatoshis uint64 `gorm:"not null"`
	OwnerAddress   string `gorm:"size:75;not null"`

	// Incremented only upon a successful claim
	ClaimCount uint `gorm:"not null;default:0"`

	// Nil means unbounded
	MaxClaimCount *uint

	// Is the address subscribed for webhook notifications
	Subscribed bool `gorm:"not null;default:false"`

	// Last known on-chain balance. Display only, never used for spending decisions
	BalanceSatoshis  *uint64
	BalanceUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FaucetContract) TableName() string {
	return TableFaucetContract
}

func (self *FaucetContract) String() string {
	return fmt.Sprintf("Faucet#%d <%s>", self.ID, self.Address)
}

// Minimal value of a UTXO that can fund one claim
func (self *FaucetContract) RequiredUtxoSatoshis() uint64 {
	return self.PayoutSatoshis + ClaimTxFee
}

func (self *FaucetContract) IsClaimable() bool {
	return self.MaxClaimCount == nil || self.ClaimCount < *self.MaxClaimCount
}

// Contract parameters determine the address, they can't be updated
func (self *FaucetContract) BeforeUpdate(tx *gorm.DB) (err error) {
	if tx.Statement.Changed("Address", "Network", "Passcode", "PayoutSatoshis", "OwnerAddress") {
		return ErrImmutableContract
	}
	return nil
}
