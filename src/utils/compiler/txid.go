package compiler

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TxId is the byte-reversed double SHA256 of the raw transaction
func TxId(txHex string) (string, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return "", fmt.Errorf("%w: transaction is not hex: %s", ErrRunnerFailed, err)
	}
	return chainhash.DoubleHashH(raw).String(), nil
}

// CheckSigningKey rejects keys that aren't valid WIF before they reach the script
func CheckSigningKey(wif string) error {
	if _, err := btcutil.DecodeWIF(wif); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSigningKey, err)
	}
	return nil
}
