package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// SignatureLength is the size of a Solana transaction signature in bytes.
const SignatureLength = 64

// Signature is a Solana transaction signature. It is opaque: equality is by
// bytes and the display form is base-58. On the JSON-RPC wire signatures
// travel as base-58 strings; this type is for callers that need the byte
// form, e.g. as a fixed-size map key.
type Signature [SignatureLength]byte

// SignatureFromBase58 parses a base-58 encoded signature.
func SignatureFromBase58(s string) (Signature, error) {
	var sig Signature
	decoded, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("decode signature %q: %w", s, err)
	}
	if len(decoded) != SignatureLength {
		return sig, fmt.Errorf("decode signature %q: got %d bytes, want %d", s, len(decoded), SignatureLength)
	}
	copy(sig[:], decoded)
	return sig, nil
}

// MustSignature parses a base-58 signature and panics on failure.
// Intended for tests.
func MustSignature(s string) Signature {
	sig, err := SignatureFromBase58(s)
	if err != nil {
		panic(err)
	}
	return sig
}

// String returns the base-58 encoding.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// Bytes returns the signature as a byte slice.
func (s Signature) Bytes() []byte {
	return s[:]
}

// IsZero reports whether the signature is all zero bytes.
func (s Signature) IsZero() bool {
	return s == Signature{}
}
