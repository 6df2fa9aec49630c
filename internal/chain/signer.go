package chain

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Signer signs move calls on behalf of the service account.
type Signer interface {
	Sign(call interface{}) (string, error)
	Address() string
}

// NoSigner rejects every signing request with ErrMissingConfig. Used when
// the service key is not configured so that read paths keep working.
type NoSigner struct{}

// Sign ...
func (NoSigner) Sign(interface{}) (string, error) {
	return "", fmt.Errorf("%w: signer seed is not set", ErrMissingConfig)
}

// Address ...
func (NoSigner) Address() string { return "" }

type keySigner struct {
	key     ed25519.PrivateKey
	address string
}

// NewKeySigner creates a signer from a hex-encoded ed25519 seed.
func NewKeySigner(seedHex string) (Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signer seed: %w", err)
	}

	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid signer seed length %d", len(seed))
	}

	key := ed25519.NewKeyFromSeed(seed)

	return &keySigner{
		key:     key,
		address: "0x" + hex.EncodeToString(key.Public().(ed25519.PublicKey)),
	}, nil
}

// Sign serializes the call canonically and returns a base64 signature.
func (s *keySigner) Sign(call interface{}) (string, error) {
	payload, err := json.Marshal(call)
	if err != nil {
		return "", fmt.Errorf("failed to marshal call: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ed25519.Sign(s.key, payload)), nil
}

func (s *keySigner) Address() string {
	return s.address
}
