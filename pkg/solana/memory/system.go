package memory

import (
	"crypto/ed25519"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/binary"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
)

const (
	systemCommandCreateAccount = 0
	createAccountDataSize      = 4 + 8 + 8 + ed25519.PublicKeySize
)

// processSystem executes system program instructions. Only CreateAccount is
// supported.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/runtime/src/system_instruction_processor.rs
func processSystem(b *Bank, ix *invocation) error {
	if len(ix.data) < 4 {
		return ix.fail(solana.InstructionErrorInvalidInstructionData)
	}

	r := binary.NewReader(ix.data)
	switch r.Uint32() {
	case systemCommandCreateAccount:
		if len(ix.data) != createAccountDataSize {
			return ix.fail(solana.InstructionErrorInvalidInstructionData)
		}
		if len(ix.accounts) < 2 {
			return ix.fail(solana.InstructionErrorNotEnoughAccountKeys)
		}

		lamports := r.Uint64()
		space := r.Uint64()
		owner := r.Key32()

		funder, to := ix.accounts[0], ix.accounts[1]
		if !to.signer {
			return ix.fail(solana.InstructionErrorMissingRequiredSignature)
		}
		return createAccount(ix, funder, to, lamports, space, owner)
	default:
		return ix.fail(solana.InstructionErrorInvalidInstructionData)
	}
}

// createAccount funds, allocates and assigns to. Callers verify that to
// authorized the creation.
func createAccount(ix *invocation, funder, to *accountRef, lamports, space uint64, owner ed25519.PublicKey) error {
	if to.lamports > 0 {
		return ix.custom(system.ErrorAccountAlreadyInUse)
	}
	if err := allocateAndAssign(ix, to, space, owner); err != nil {
		return err
	}
	return transfer(ix, funder, to, lamports)
}

func allocateAndAssign(ix *invocation, to *accountRef, space uint64, owner ed25519.PublicKey) error {
	if len(to.data) > 0 || !to.isOwnedBy(system.ProgramKey[:]) {
		return ix.custom(system.ErrorAccountAlreadyInUse)
	}
	if space > system.MaxPermittedDataLength {
		return ix.custom(system.ErrorInvalidAccountDataLength)
	}

	to.data = make([]byte, space)
	to.owner = append(ed25519.PublicKey(nil), owner...)
	return nil
}

func transfer(ix *invocation, from, to *accountRef, lamports uint64) error {
	if !from.signer {
		return ix.fail(solana.InstructionErrorMissingRequiredSignature)
	}
	if len(from.data) > 0 {
		return ix.fail(solana.InstructionErrorInvalidArgument)
	}
	if from.lamports < lamports {
		return ix.custom(system.ErrorResultWithNegativeLamports)
	}

	from.lamports -= lamports
	to.lamports += lamports
	return nil
}
