package crawler

import (
	"fmt"

	"github.com/mr-tron/base58"

	"solana-crawler/internal/solana"
)

// Origin identifies where an instruction sat inside its transaction.
// InnerIndex is -1 for outer instructions and the position within the
// inner-instruction group otherwise.
type Origin struct {
	OuterIndex int
	InnerIndex int
}

// IsInner reports whether the instruction was invoked via CPI.
func (o Origin) IsInner() bool {
	return o.InnerIndex >= 0
}

func (o Origin) String() string {
	if o.IsInner() {
		return fmt.Sprintf("inner(%d,%d)", o.OuterIndex, o.InnerIndex)
	}
	return fmt.Sprintf("outer(%d)", o.OuterIndex)
}

// Instruction is a normalized instruction: program and account indices are
// resolved to concrete public keys, instruction data is decoded to bytes.
type Instruction struct {
	ProgramID solana.Pubkey
	Accounts  []solana.Pubkey
	Data      []byte
	Origin    Origin
}

// Transaction is the normalized view the filter chains operate on.
// Instructions holds all outer instructions in declared order, followed by
// all inner instructions grouped by their parent outer index.
type Transaction struct {
	Signature    string
	Slot         int64
	BlockTime    int64
	Succeeded    bool
	Accounts     []solana.Pubkey
	Instructions []Instruction
}

// Normalize flattens a fetched transaction into the filterable form.
// A failed transaction still normalizes; SuccessfulTxFilter handles
// rejection. Any index outside the combined account-key vector, missing
// message or metadata, or undecodable key makes the transaction malformed.
func Normalize(tx *solana.Transaction) (*Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil transaction")
	}
	if tx.Message == nil {
		return nil, fmt.Errorf("transaction %s: missing message", tx.Signature)
	}
	if tx.Meta == nil {
		return nil, fmt.Errorf("transaction %s: missing meta", tx.Signature)
	}

	keys, err := solana.PubkeysFromBase58(tx.AllAccountKeys())
	if err != nil {
		return nil, fmt.Errorf("transaction %s: account keys: %w", tx.Signature, err)
	}

	outer := tx.Message.Instructions
	instructions := make([]Instruction, 0, len(outer))

	for i, ci := range outer {
		ix, err := resolveInstruction(ci, keys, Origin{OuterIndex: i, InnerIndex: -1})
		if err != nil {
			return nil, fmt.Errorf("transaction %s: instruction %d: %w", tx.Signature, i, err)
		}
		instructions = append(instructions, ix)
	}

	for _, group := range tx.Meta.InnerInstructions {
		if group.Index < 0 || group.Index >= len(outer) {
			return nil, fmt.Errorf("transaction %s: inner group references instruction %d of %d", tx.Signature, group.Index, len(outer))
		}
		for j, ci := range group.Instructions {
			ix, err := resolveInstruction(ci, keys, Origin{OuterIndex: group.Index, InnerIndex: j})
			if err != nil {
				return nil, fmt.Errorf("transaction %s: inner instruction %d.%d: %w", tx.Signature, group.Index, j, err)
			}
			instructions = append(instructions, ix)
		}
	}

	return &Transaction{
		Signature:    tx.Signature,
		Slot:         tx.Slot,
		BlockTime:    tx.BlockTime,
		Succeeded:    tx.Succeeded(),
		Accounts:     keys,
		Instructions: instructions,
	}, nil
}

// resolveInstruction maps a compiled instruction's indices into the
// combined key vector.
func resolveInstruction(ci solana.CompiledInstruction, keys []solana.Pubkey, origin Origin) (Instruction, error) {
	if ci.ProgramIDIndex < 0 || ci.ProgramIDIndex >= len(keys) {
		return Instruction{}, fmt.Errorf("program index %d out of range (%d keys)", ci.ProgramIDIndex, len(keys))
	}

	accounts := make([]solana.Pubkey, len(ci.Accounts))
	for k, idx := range ci.Accounts {
		if idx < 0 || idx >= len(keys) {
			return Instruction{}, fmt.Errorf("account index %d out of range (%d keys)", idx, len(keys))
		}
		accounts[k] = keys[idx]
	}

	var data []byte
	if ci.Data != "" {
		var err error
		data, err = base58.Decode(ci.Data)
		if err != nil {
			return Instruction{}, fmt.Errorf("decode data: %w", err)
		}
	}

	return Instruction{
		ProgramID: keys[ci.ProgramIDIndex],
		Accounts:  accounts,
		Data:      data,
		Origin:    origin,
	}, nil
}
