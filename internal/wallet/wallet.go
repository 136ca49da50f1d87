// Package wallet provides the signing collaborator for the vault engine.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/doa-network/staking-vault/internal/chain"
	"github.com/doa-network/staking-vault/internal/domain/stake"
)

// Signer turns a transaction message into a signature. Every engine entry
// point checks PublicKey first; an unconnected wallet is a precondition
// failure, never a crash.
type Signer interface {
	PublicKey() (chain.Address, error)
	Sign(message []byte) ([]byte, error)
}

// Keypair is an ed25519 signing identity held in memory.
type Keypair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

var _ Signer = (*Keypair)(nil)

// NewKeypair generates a fresh signing identity.
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{pub: pub, priv: priv}, nil
}

// FromSeed builds a keypair from a 32-byte ed25519 seed.
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

// FromSeedHex builds a keypair from a hex-encoded seed string.
func FromSeedHex(s string) (*Keypair, error) {
	seed, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return FromSeed(seed)
}

// LoadFile reads a hex-encoded seed from a file.
func LoadFile(path string) (*Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	return FromSeedHex(string(raw))
}

// PublicKey returns the wallet address.
func (k *Keypair) PublicKey() (chain.Address, error) {
	return chain.AddressFromBytes(k.pub)
}

// Sign signs a transaction message.
func (k *Keypair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, message), nil
}

// Disconnected is a signer with no identity attached. Every operation fails
// with the not-connected precondition error.
type Disconnected struct{}

var _ Signer = Disconnected{}

func (Disconnected) PublicKey() (chain.Address, error) {
	return chain.ZeroAddress, stake.ErrNotConnected
}

func (Disconnected) Sign([]byte) ([]byte, error) {
	return nil, stake.ErrNotConnected
}
