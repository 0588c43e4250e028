package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"hash"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidPublicKey      = errors.New("invalid public key")
	ErrNoViableBumpSeed      = errors.New("unable to find a viable program address bump seed")
)

// newPDAHash is swapped out in tests to force on-curve results.
var newPDAHash func() hash.Hash = sha256.New

// PublicKeyFromString decodes a base58 encoded ed25519 public key.
func PublicKeyFromString(s string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 public key")
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid public key size: %d", len(decoded))
	}
	return decoded, nil
}

// MustPublicKeyFromString is PublicKeyFromString for well known constants.
func MustPublicKeyFromString(s string) ed25519.PublicKey {
	key, err := PublicKeyFromString(s)
	if err != nil {
		panic(err)
	}
	return key
}

// IsOnCurve reports whether key is a valid compressed edwards25519 point, and
// therefore could have a private key.
//
// The standard library keeps its point type internal, so this relies on the
// edwards25519 package that ed25519.Verify was originally built on.
func IsOnCurve(key ed25519.PublicKey) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}

	var point [32]byte
	copy(point[:], key)

	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&point)
}

// CreateProgramAddress derives sha256(seeds || program || "ProgramDerivedAddress")
// and rejects the result when it lies on the ed25519 curve.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := newPDAHash()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(program)
	h.Write([]byte(pdaMarker))

	address := ed25519.PublicKey(h.Sum(nil)[:ed25519.PublicKeySize])
	if IsOnCurve(address) {
		return nil, ErrInvalidPublicKey
	}
	return address, nil
}

// FindProgramAddressAndBump walks bump seeds from 255 down to 1 and returns
// the first off-curve address along with the bump that produced it.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}

		address, err := CreateProgramAddress(program, withBump...)
		switch err {
		case nil:
			return address, byte(bump), nil
		case ErrInvalidPublicKey:
			continue
		default:
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoViableBumpSeed
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	address, _, err := FindProgramAddressAndBump(program, seeds...)
	return address, err
}
