package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"os"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

// loadKeypair reads a private key file. Both the JSON byte array written by
// solana-keygen and a base58 encoded private key are accepted.
func loadKeypair(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keypair")
	}
	return parseKeypair(raw)
}

func parseKeypair(raw []byte) (ed25519.PrivateKey, error) {
	raw = bytes.TrimSpace(raw)

	var key []byte
	if bytes.HasPrefix(raw, []byte("[")) {
		if err := json.Unmarshal(raw, &key); err != nil {
			return nil, errors.Wrap(err, "invalid json keypair")
		}
	} else {
		decoded, err := base58.Decode(string(raw))
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 keypair")
		}
		key = decoded
	}

	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid keypair size %d", len(key))
	}

	// The trailing half must be the public key for the seed
	priv := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !bytes.Equal(priv, key) {
		return nil, errors.New("keypair public key does not match private key")
	}
	return priv, nil
}
