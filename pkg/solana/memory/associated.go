package memory

import (
	"bytes"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
	"github.com/code-payments/code-mint-fixture/pkg/solana/token"
)

// processAssociatedTokenAccount executes Create and CreateIdempotent.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/associated-token-account-v1.1.3/associated-token-account/program/src/processor.rs
func processAssociatedTokenAccount(b *Bank, ix *invocation) error {
	var idempotent bool
	switch {
	case len(ix.data) == 0:
	case len(ix.data) == 1 && token.AssociatedCommand(ix.data[0]) == token.AssociatedCommandCreate:
	case len(ix.data) == 1 && token.AssociatedCommand(ix.data[0]) == token.AssociatedCommandCreateIdempotent:
		idempotent = true
	default:
		return ix.fail(solana.InstructionErrorInvalidInstructionData)
	}

	if len(ix.accounts) < 6 {
		return ix.fail(solana.InstructionErrorNotEnoughAccountKeys)
	}
	payer, ata, wallet, mint := ix.accounts[0], ix.accounts[1], ix.accounts[2], ix.accounts[3]
	systemProgram, tokenProgram := ix.accounts[4], ix.accounts[5]

	if !bytes.Equal(systemProgram.key, system.ProgramKey[:]) || !token.IsTokenProgram(tokenProgram.key) {
		return ix.fail(solana.InstructionErrorIncorrectProgramID)
	}

	expected, err := token.GetAssociatedAccountForProgram(wallet.key, mint.key, tokenProgram.key)
	if err != nil || !bytes.Equal(expected, ata.key) {
		return ix.fail(solana.InstructionErrorInvalidSeeds)
	}

	if idempotent && ata.isOwnedBy(tokenProgram.key) {
		var existing token.Account
		if existing.Unmarshal(ata.data) && existing.State != token.AccountStateUninitialized {
			if !bytes.Equal(existing.Owner, wallet.key) {
				return ix.custom(token.ErrorAssociatedInvalidOwner)
			}
			if !bytes.Equal(existing.Mint, mint.key) {
				return ix.fail(solana.InstructionErrorInvalidAccountData)
			}
			return nil
		}
	}

	if !ata.isOwnedBy(system.ProgramKey[:]) {
		return ix.fail(solana.InstructionErrorIllegalOwner)
	}

	if !mint.isOwnedBy(tokenProgram.key) {
		return ix.fail(solana.InstructionErrorIncorrectProgramID)
	}
	if _, err := loadMint(ix, tokenProgram.key, mint); err != nil {
		return err
	}

	// The account address is derived from the program, which signs for it.
	size := token.AccountSizeForProgram(tokenProgram.key)
	required := b.rent.MinimumBalance(size)
	if ata.lamports > 0 {
		if ata.lamports < required {
			if err := transfer(ix, payer, ata, required-ata.lamports); err != nil {
				return err
			}
		}
		if err := allocateAndAssign(ix, ata, size, tokenProgram.key); err != nil {
			return err
		}
	} else if err := createAccount(ix, payer, ata, required, size, tokenProgram.key); err != nil {
		return err
	}

	if size == token.ImmutableOwnerAccountSize {
		copy(ata.data[token.AccountSize:], immutableOwnerExtension)
	}
	return initializeAccount(b, ix, tokenProgram.key, ata, mint, wallet.key)
}
