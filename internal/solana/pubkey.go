package solana

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// PubkeyLength is the size of a Solana public key in bytes.
const PubkeyLength = 32

// Pubkey is a Solana account address. Equality and ordering are by bytes;
// the display form is base-58.
type Pubkey [PubkeyLength]byte

// PubkeyFromBase58 parses a base-58 encoded public key.
func PubkeyFromBase58(s string) (Pubkey, error) {
	var pk Pubkey
	decoded, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode pubkey %q: %w", s, err)
	}
	if len(decoded) != PubkeyLength {
		return pk, fmt.Errorf("decode pubkey %q: got %d bytes, want %d", s, len(decoded), PubkeyLength)
	}
	copy(pk[:], decoded)
	return pk, nil
}

// MustPubkey parses a base-58 public key and panics on failure.
// Intended for constants and tests.
func MustPubkey(s string) Pubkey {
	pk, err := PubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// PubkeysFromBase58 parses a list of base-58 public keys, failing on the
// first invalid entry.
func PubkeysFromBase58(ss []string) ([]Pubkey, error) {
	pks := make([]Pubkey, len(ss))
	for i, s := range ss {
		pk, err := PubkeyFromBase58(s)
		if err != nil {
			return nil, err
		}
		pks[i] = pk
	}
	return pks, nil
}

// String returns the base-58 encoding.
func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// Bytes returns the key as a byte slice.
func (p Pubkey) Bytes() []byte {
	return p[:]
}

// IsZero reports whether the key is all zero bytes.
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// Less orders keys lexicographically by bytes.
func (p Pubkey) Less(other Pubkey) bool {
	return bytes.Compare(p[:], other[:]) < 0
}
