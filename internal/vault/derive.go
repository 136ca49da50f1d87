// Package vault implements the staking vault engine: deterministic vault
// address derivation and the deposit/withdraw/balance orchestration.
package vault

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"

	"github.com/doa-network/staking-vault/internal/chain"
)

// vaultSeed is the domain tag for vault derivation. It must match the
// on-chain program's seed.
const vaultSeed = "vault"

// pdaMarker terminates the derivation preimage so program-derived addresses
// can never collide with a hash computed for another purpose.
const pdaMarker = "ProgramDerivedAddress"

// ErrNoVaultAddress is returned when no bump seed yields an off-curve
// address. The search space makes this unreachable in practice.
var ErrNoVaultAddress = errors.New("no valid vault address for owner")

// DeriveVaultAddress maps an owner to their vault account. The derivation is
// pure: the same (program, owner) pair always yields the same address. The
// result must not be a valid curve point, so no private key can ever sign
// for a vault; the bump seed is decremented until that holds.
func DeriveVaultAddress(program, owner chain.Address) (chain.Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		h.Write([]byte(vaultSeed))
		h.Write(owner[:])
		h.Write([]byte{uint8(bump)})
		h.Write(program[:])
		h.Write([]byte(pdaMarker))

		candidate, err := chain.AddressFromBytes(h.Sum(nil))
		if err != nil {
			return chain.ZeroAddress, 0, err
		}
		if !onCurve(candidate) {
			return candidate, uint8(bump), nil
		}
	}
	return chain.ZeroAddress, 0, ErrNoVaultAddress
}

func onCurve(addr chain.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(addr.Bytes())
	return err == nil
}
