package domain

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashNationalID derives the fixed-length digest stored in the registry from
// a raw national ID number. SHA3-256 keeps the digest one-way so the raw
// number never reaches the ledger.
func HashNationalID(nationalID string) IDHash {
	sum := sha3.Sum256([]byte(nationalID))
	return IDHash(hex.EncodeToString(sum[:]))
}
