package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/doa-network/staking-vault/internal/domain/stake"
)

func TestKeypair_SignVerify(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	pub, err := kp.PublicKey()
	if err != nil {
		t.Fatalf("public key: %v", err)
	}

	message := []byte("transfer 10 lamports")
	sig, err := kp.Sign(message)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub.Bytes()), message, sig) {
		t.Fatal("signature did not verify")
	}
}

func TestFromSeed_Deterministic(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	a, err := FromSeed(seed)
	if err != nil {
		t.Fatalf("from seed: %v", err)
	}
	b, err := FromSeedHex(hex.EncodeToString(seed))
	if err != nil {
		t.Fatalf("from seed hex: %v", err)
	}

	pubA, _ := a.PublicKey()
	pubB, _ := b.PublicKey()
	if pubA != pubB {
		t.Fatalf("same seed produced different keys: %s vs %s", pubA, pubB)
	}
}

func TestFromSeed_WrongLength(t *testing.T) {
	if _, err := FromSeed([]byte("short")); err == nil {
		t.Fatal("accepted short seed")
	}
}

func TestDisconnected(t *testing.T) {
	var s Signer = Disconnected{}

	if _, err := s.PublicKey(); !errors.Is(err, stake.ErrNotConnected) {
		t.Fatalf("public key: expected ErrNotConnected, got %v", err)
	}
	if _, err := s.Sign([]byte("msg")); !errors.Is(err, stake.ErrNotConnected) {
		t.Fatalf("sign: expected ErrNotConnected, got %v", err)
	}
}
