// Package cashaddr encodes and decodes Bitcoin Cash addresses in the CashAddr format.
package cashaddr

import (
	"errors"
	"fmt"
	"strings"
)

const (
	PrefixMainnet = "bitcoincash"
	PrefixTestnet = "bchtest"
	PrefixRegtest = "bchreg"

	charset        = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	checksumLength = 8
)

type AddressType byte

const (
	P2PKH           AddressType = 0
	P2SH            AddressType = 1
	P2PKHWithTokens AddressType = 2
	P2SHWithTokens  AddressType = 3
)

var (
	ErrMixedCase       = errors.New("mixed case address")
	ErrMissingPrefix   = errors.New("missing address prefix")
	ErrInvalidChar     = errors.New("invalid address character")
	ErrInvalidChecksum = errors.New("invalid address checksum")
	ErrInvalidLength   = errors.New("invalid address length")
	ErrInvalidVersion  = errors.New("invalid address version byte")
	ErrInvalidPadding  = errors.New("invalid address padding")
)

// Hash sizes in bits, indexed by the size part of the version byte
var hashSizes = [8]int{160, 192, 224, 256, 320, 384, 448, 512}

var charsetRev = func() (out [128]int8) {
	for i := range out {
		out[i] = -1
	}
	for i, c := range charset {
		out[c] = int8(i)
	}
	return
}()

type Address struct {
	Prefix string
	Type   AddressType
	Hash   []byte
}

func (self *Address) String() string {
	out, err := Encode(self.Prefix, self.Type, self.Hash)
	if err != nil {
		return ""
	}
	return out
}

func (self *Address) IsPubKeyHash() bool {
	return self.Type == P2PKH || self.Type == P2PKHWithTokens
}

func (self *Address) IsTokenAware() bool {
	return self.Type == P2PKHWithTokens || self.Type == P2SHWithTokens
}

func polymod(values []byte) uint64 {
	c := uint64(1)
	for _, d := range values {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		if c0&0x01 != 0 {
			c ^= 0x98f2bc8e61
		}
		if c0&0x02 != 0 {
			c ^= 0x79b76d99e2
		}
		if c0&0x04 != 0 {
			c ^= 0xf33e5fb3c4
		}
		if c0&0x08 != 0 {
			c ^= 0xae2eabe2a8
		}
		if c0&0x10 != 0 {
			c ^= 0x1e4f43e470
		}
	}
	return c ^ 1
}

// Lower 5 bits of each prefix character followed by a zero separator
func expandPrefix(prefix string) []byte {
	out := make([]byte, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		out[i] = prefix[i] & 0x1f
	}
	return out
}

func createChecksum(prefix string, payload []byte) []byte {
	values := append(expandPrefix(prefix), payload...)
	values = append(values, make([]byte, checksumLength)...)
	mod := polymod(values)

	out := make([]byte, checksumLength)
	for i := 0; i < checksumLength; i++ {
		out[i] = byte((mod >> uint(5*(checksumLength-1-i))) & 0x1f)
	}
	return out
}

func verifyChecksum(prefix string, payload []byte) bool {
	return polymod(append(expandPrefix(prefix), payload...)) == 0
}

// Regroups bits from fromBits sized words to toBits sized words
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var (
		acc  uint32
		bits uint
		out  []byte
	)
	maxv := uint32(1)<<toBits - 1
	for _, value := range data {
		if uint32(value)>>fromBits != 0 {
			return nil, ErrInvalidChar
		}
		acc = acc<<fromBits | uint32(value)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxv != 0 {
		return nil, ErrInvalidPadding
	}
	return out, nil
}

func versionByte(addressType AddressType, hashLength int) (byte, error) {
	if addressType > 15 {
		return 0, ErrInvalidVersion
	}
	for i, size := range hashSizes {
		if size == hashLength*8 {
			return byte(addressType)<<3 | byte(i), nil
		}
	}
	return 0, ErrInvalidLength
}

// Encode builds a prefixed, lowercase CashAddr string
func Encode(prefix string, addressType AddressType, hash []byte) (string, error) {
	if prefix == "" {
		return "", ErrMissingPrefix
	}
	prefix = strings.ToLower(prefix)

	version, err := versionByte(addressType, len(hash))
	if err != nil {
		return "", err
	}

	payload, err := convertBits(append([]byte{version}, hash...), 8, 5, true)
	if err != nil {
		return "", err
	}
	payload = append(payload, createChecksum(prefix, payload)...)

	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + len(payload))
	sb.WriteString(prefix)
	sb.WriteByte(':')
	for _, b := range payload {
		sb.WriteByte(charset[b])
	}
	return sb.String(), nil
}

// Decode parses a CashAddr string. The defaultPrefix is used when the address has no prefix.
func Decode(address, defaultPrefix string) (out *Address, err error) {
	lower := strings.ToLower(address)
	if lower != address && strings.ToUpper(address) != address {
		return nil, ErrMixedCase
	}

	prefix, data := defaultPrefix, lower
	if idx := strings.LastIndexByte(lower, ':'); idx >= 0 {
		prefix, data = lower[:idx], lower[idx+1:]
	}
	prefix = strings.ToLower(prefix)
	if prefix == "" {
		return nil, ErrMissingPrefix
	}

	if len(data) <= checksumLength {
		return nil, ErrInvalidLength
	}

	payload := make([]byte, len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c >= 128 || charsetRev[c] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidChar, c)
		}
		payload[i] = byte(charsetRev[c])
	}

	if !verifyChecksum(prefix, payload) {
		return nil, ErrInvalidChecksum
	}

	decoded, err := convertBits(payload[:len(payload)-checksumLength], 5, 8, false)
	if err != nil {
		return nil, err
	}
	if len(decoded) < 1 {
		return nil, ErrInvalidLength
	}

	version := decoded[0]
	if version&0x80 != 0 {
		return nil, ErrInvalidVersion
	}
	hash := decoded[1:]
	if hashSizes[version&0x07] != len(hash)*8 {
		return nil, ErrInvalidLength
	}

	return &Address{
		Prefix: prefix,
		Type:   AddressType(version >> 3),
		Hash:   hash,
	}, nil
}

// HasPrefix reports whether the address string carries an explicit prefix
func HasPrefix(address string) bool {
	return strings.IndexByte(address, ':') >= 0
}
