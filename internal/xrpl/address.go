// Package xrpl holds XRP Ledger address helpers.
package xrpl

import (
	"strings"

	addresscodec "github.com/Peersyst/xrpl-go/address-codec"
)

// Alphabet is the base58 dictionary used by the XRP Ledger.
const Alphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// Encoded classic addresses are 25 to 35 characters long.
const (
	minClassicAddressLength = 25
	maxClassicAddressLength = 35
)

// IsValidClassicAddress reports whether candidate is a syntactically valid
// classic (r-prefixed, base58check) account address. It does not check that
// the account exists on ledger.
func IsValidClassicAddress(candidate string) bool {
	if len(candidate) < minClassicAddressLength || len(candidate) > maxClassicAddressLength {
		return false
	}
	for i := 0; i < len(candidate); i++ {
		if strings.IndexByte(Alphabet, candidate[i]) < 0 {
			return false
		}
	}

	// Base58CheckDecode verifies the four byte checksum
	payload, err := addresscodec.Base58CheckDecode(candidate)
	if err != nil {
		return false
	}

	return len(payload) == 1+addresscodec.AccountAddressLength &&
		payload[0] == addresscodec.AccountAddressPrefix
}
