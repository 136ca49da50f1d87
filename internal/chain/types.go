// Package chain provides the ledger network boundary for the staking vault:
// address types, the transfer transaction codec and a JSON-RPC client.
package chain

import (
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLength is the size of a public account identifier in bytes.
const AddressLength = 32

// Address is a 32-byte account identifier, rendered as base58 text.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address.
var ZeroAddress Address

// ParseAddress decodes a base58 address string.
func ParseAddress(s string) (Address, error) {
	var addr Address
	raw, err := base58.Decode(s)
	if err != nil {
		return addr, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != AddressLength {
		return addr, fmt.Errorf("decode address: expected %d bytes, got %d", AddressLength, len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// AddressFromBytes builds an address from a raw 32-byte key.
func AddressFromBytes(b []byte) (Address, error) {
	var addr Address
	if len(b) != AddressLength {
		return addr, fmt.Errorf("address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

// MarshalJSON renders the address as its base58 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses a base58 address string.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// BlockhashToken is the freshness token required to submit a transaction: a
// recent blockhash and the last block height at which it remains valid.
type BlockhashToken struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// SignatureStatus is the confirmation state of a submitted transaction.
type SignatureStatus struct {
	Slot               uint64 `json:"slot"`
	Confirmations      *int   `json:"confirmations"`
	ConfirmationStatus string `json:"confirmationStatus"` // processed, confirmed, finalized
	Err                any    `json:"err"`
}

// Finalized reports whether the network considers the transaction final.
func (s *SignatureStatus) Finalized() bool {
	return s != nil && s.ConfirmationStatus == "finalized"
}

// Failed reports whether execution ended in an error.
func (s *SignatureStatus) Failed() bool {
	return s != nil && s.Err != nil
}

// AccountInfo is the subset of account state the vault engine reads.
type AccountInfo struct {
	Lamports uint64 `json:"lamports"`
	Owner    string `json:"owner"`
}

// rpcRequest is the JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
	ID      int    `json:"id"`
}

// rpcResponse is the JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      int             `json:"id"`
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
