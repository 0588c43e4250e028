package memory

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
)

// processor executes a single instruction for a builtin program.
type processor func(b *Bank, ix *invocation) error

// accountRef is an account as seen by an executing instruction.
type accountRef struct {
	key      ed25519.PublicKey
	signer   bool
	writable bool
	*account
}

type invocation struct {
	index    int
	program  ed25519.PublicKey
	data     []byte
	accounts []*accountRef
}

func (ix *invocation) fail(key solana.InstructionErrorKey) error {
	return solana.TransactionErrorFromInstructionError(solana.NewInstructionError(ix.index, key))
}

func (ix *invocation) custom(code solana.CustomError) error {
	return solana.TransactionErrorFromInstructionError(solana.NewCustomInstructionError(ix.index, uint32(code)))
}

// sanitize rejects structurally invalid messages.
func sanitize(txn solana.Transaction) error {
	m := txn.Message
	h := m.Header

	sanitizeFailure := solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)

	switch {
	case h.NumSignatures == 0,
		len(txn.Signatures) != int(h.NumSignatures),
		int(h.NumSignatures) > len(m.Accounts),
		h.NumReadonlySigned >= h.NumSignatures,
		int(h.NumSignatures)+int(h.NumReadOnly) > len(m.Accounts):
		return sanitizeFailure
	}

	for _, ix := range m.Instructions {
		if ix.ProgramIndex == 0 || int(ix.ProgramIndex) >= len(m.Accounts) {
			return sanitizeFailure
		}
		for _, index := range ix.Accounts {
			if int(index) >= len(m.Accounts) {
				return sanitizeFailure
			}
		}
	}

	for i := range m.Accounts {
		if len(m.Accounts[i]) != ed25519.PublicKeySize {
			return sanitizeFailure
		}
		for j := i + 1; j < len(m.Accounts); j++ {
			if bytes.Equal(m.Accounts[i], m.Accounts[j]) {
				return solana.NewTransactionError(solana.TransactionErrorAccountLoadedTwice)
			}
		}
	}

	return nil
}

func verifySignatures(txn solana.Transaction) error {
	message := txn.Message.Marshal()
	for i, sig := range txn.Signatures {
		if !ed25519.Verify(txn.Message.Accounts[i], message, sig[:]) {
			return solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
		}
	}
	return nil
}

// execute runs every instruction of m against loaded, stopping at the first
// failure.
func (b *Bank) execute(m solana.Message, loaded []*account) error {
	for i, compiled := range m.Instructions {
		ix := &invocation{
			index:   i,
			program: m.Accounts[compiled.ProgramIndex],
			data:    compiled.Data,
		}
		for _, index := range compiled.Accounts {
			ix.accounts = append(ix.accounts, &accountRef{
				key:      m.Accounts[index],
				signer:   m.IsSigner(int(index)),
				writable: m.IsWritable(int(index)),
				account:  loaded[index],
			})
		}

		process, ok := b.programs[string(ix.program)]
		if !ok {
			return ix.fail(solana.InstructionErrorUnsupportedProgramID)
		}

		before := snapshotReadonly(ix.accounts)
		if err := process(b, ix); err != nil {
			return err
		}
		if err := before.verify(ix); err != nil {
			return err
		}
	}

	return nil
}

type readonlySnapshot map[*accountRef]account

func snapshotReadonly(refs []*accountRef) readonlySnapshot {
	snapshot := make(readonlySnapshot)
	for _, ref := range refs {
		if !ref.writable {
			snapshot[ref] = *ref.account.clone()
		}
	}
	return snapshot
}

func (s readonlySnapshot) verify(ix *invocation) error {
	for ref, before := range s {
		if ref.lamports != before.lamports {
			return ix.fail(solana.InstructionErrorReadonlyLamportChange)
		}
		if !bytes.Equal(ref.data, before.data) || !bytes.Equal(ref.owner, before.owner) {
			return ix.fail(solana.InstructionErrorReadonlyDataModified)
		}
	}
	return nil
}
