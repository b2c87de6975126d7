package watchtower

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Balance struct {
	Valid bool `json:"valid"`

	// Confirmed + unconfirmed, in BCH
	Balance   decimal.Decimal `json:"balance"`
	Spendable decimal.Decimal `json:"spendable"`
}

// Satoshis converts the BCH balance to base units, rounding to nearest
func (self *Balance) Satoshis() int64 {
	return self.Balance.Shift(8).Round(0).IntPart()
}

type Utxo struct {
	Txid  string `json:"txid"`
	Vout  uint32 `json:"vout"`
	Value uint64 `json:"value"`

	// CashToken fields, set only when IsCashToken is true
	IsCashToken bool        `json:"is_cashtoken"`
	TokenId     string      `json:"tokenid"`
	Amount      json.Number `json:"amount"`
	Capability  string      `json:"capability"`
	Commitment  string      `json:"commitment"`
}

type UtxoList struct {
	Valid bool   `json:"valid"`
	Utxos []Utxo `json:"utxos"`
}

// Response of broadcast and subscription endpoints
type Status struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Txid    string `json:"txid"`
}
