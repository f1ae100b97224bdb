package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
)

// pdaMarker terminates the hash input of program-derived addresses.
const pdaMarker = "ProgramDerivedAddress"

// IsOnCurve reports whether the key is a valid ed25519 curve point.
// Program-derived addresses are required to be off-curve.
func IsOnCurve(p Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(p[:])
	return err == nil
}

// FindProgramAddress derives the program address for the given seeds,
// searching bump seeds from 255 downward until the hash falls off the
// ed25519 curve. Returns the address and the bump that produced it.
func FindProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, byte, error) {
	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID[:]...)
		data = append(data, []byte(pdaMarker)...)

		hash := sha256.Sum256(data)

		var candidate Pubkey
		copy(candidate[:], hash[:])
		if !IsOnCurve(candidate) {
			return candidate, bump, nil
		}
	}

	return Pubkey{}, 0, fmt.Errorf("no off-curve address found for program %s", programID)
}
