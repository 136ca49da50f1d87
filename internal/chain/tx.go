package chain

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"

	"github.com/mr-tron/base58"
)

// Instruction kinds understood by the transfer codec.
const (
	InstructionTransfer      uint8 = 1
	InstructionCreateAccount uint8 = 2
)

// Instruction is one step of a transaction.
type Instruction struct {
	Kind     uint8
	From     Address
	To       Address
	Lamports uint64
}

// Transaction is an unsigned or signed transfer operation. All instructions
// execute atomically once the transaction is accepted.
type Transaction struct {
	RecentBlockhash string
	Payer           Address
	Instructions    []Instruction

	signature []byte
}

// NewTransaction starts a transaction anchored to the given freshness token.
func NewTransaction(token BlockhashToken, payer Address) *Transaction {
	return &Transaction{
		RecentBlockhash: token.Blockhash,
		Payer:           payer,
	}
}

// AddTransfer appends a lamport transfer instruction.
func (t *Transaction) AddTransfer(from, to Address, lamports uint64) {
	t.Instructions = append(t.Instructions, Instruction{
		Kind:     InstructionTransfer,
		From:     from,
		To:       to,
		Lamports: lamports,
	})
}

// AddCreateAccount appends an account-creation instruction funded by payer.
func (t *Transaction) AddCreateAccount(payer, newAccount Address, lamports uint64) {
	t.Instructions = append(t.Instructions, Instruction{
		Kind:     InstructionCreateAccount,
		From:     payer,
		To:       newAccount,
		Lamports: lamports,
	})
}

// Message returns the deterministic byte encoding that the payer signs.
func (t *Transaction) Message() []byte {
	var buf bytes.Buffer

	hash, err := base58.Decode(t.RecentBlockhash)
	if err != nil {
		// A malformed blockhash came from the node, not the caller; encode
		// the raw string so signing remains deterministic and submission
		// fails at the boundary.
		hash = []byte(t.RecentBlockhash)
	}
	writeBytes(&buf, hash)
	buf.Write(t.Payer[:])

	var count [2]byte
	binary.LittleEndian.PutUint16(count[:], uint16(len(t.Instructions)))
	buf.Write(count[:])

	for _, in := range t.Instructions {
		buf.WriteByte(in.Kind)
		buf.Write(in.From[:])
		buf.Write(in.To[:])
		var amount [8]byte
		binary.LittleEndian.PutUint64(amount[:], in.Lamports)
		buf.Write(amount[:])
	}
	return buf.Bytes()
}

// Attach stores the payer signature over Message.
func (t *Transaction) Attach(signature []byte) {
	t.signature = signature
}

// Encode returns the base64 wire form: signature followed by the message.
func (t *Transaction) Encode() (string, error) {
	if len(t.signature) == 0 {
		return "", errors.New("transaction not signed")
	}
	var buf bytes.Buffer
	writeBytes(&buf, t.signature)
	buf.Write(t.Message())
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], uint16(len(b)))
	buf.Write(n[:])
	buf.Write(b)
}

// IsBlockhashExpired reports whether submission was rejected because the
// freshness token went stale. The caller should fetch a new token and retry.
func IsBlockhashExpired(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return strings.Contains(strings.ToLower(rpcErr.Message), "blockhash not found")
}
