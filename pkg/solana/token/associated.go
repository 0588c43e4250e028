package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
)

// AssociatedTokenAccountProgramKey  is the address of the associated token account program that should be used.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey = ed25519.PublicKey{140, 151, 37, 143, 78, 36, 137, 241, 187, 61, 16, 41, 20, 142, 13, 131, 11, 90, 19, 153, 218, 255, 16, 132, 4, 142, 123, 216, 219, 233, 248, 89}

type AssociatedCommand byte

const (
	AssociatedCommandCreate AssociatedCommand = iota
	AssociatedCommandCreateIdempotent
)

// Custom error codes returned by the associated token account program.
const (
	ErrorAssociatedInvalidOwner solana.CustomError = iota
)

// GetAssociatedAccount returns the associated account address for an SPL token
// held under the original token program.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return GetAssociatedAccountForProgram(wallet, mint, ProgramKey)
}

// GetAssociatedAccountForProgram returns the associated account address of
// wallet for a mint owned by program.
func GetAssociatedAccountForProgram(wallet, mint, program ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(
		AssociatedTokenAccountProgramKey,
		wallet,
		program,
		mint,
	)
}

// CreateAssociatedTokenAccount creates the associated account of wallet under
// the original token program.
func CreateAssociatedTokenAccount(payer, wallet, mint ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	return CreateAssociatedTokenAccountForProgram(payer, wallet, mint, ProgramKey)
}

// CreateAssociatedTokenAccountForProgram creates the associated account of
// wallet for a mint owned by program. The instruction fails if the account
// already exists.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/associated-token-account-v1.1.3/associated-token-account/program/src/instruction.rs#L20-L33
func CreateAssociatedTokenAccountForProgram(payer, wallet, mint, program ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	return createAssociated(AssociatedCommandCreate, payer, wallet, mint, program)
}

// CreateAssociatedTokenAccountIdempotent is like
// CreateAssociatedTokenAccountForProgram, but succeeds without changes when
// the account already exists with the expected owner.
func CreateAssociatedTokenAccountIdempotent(payer, wallet, mint, program ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	return createAssociated(AssociatedCommandCreateIdempotent, payer, wallet, mint, program)
}

func createAssociated(command AssociatedCommand, payer, wallet, mint, program ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writeable,signer]` Funding account (must be a system account)
	//   1. `[writeable]` Associated token account address to be created
	//   2. `[]` Wallet address for the new associated token account
	//   3. `[]` The token mint for the new associated token account
	//   4. `[]` System program
	//   5. `[]` SPL Token program
	if !IsTokenProgram(program) {
		return solana.Instruction{}, nil, ErrIncorrectProgramID
	}

	addr, err := GetAssociatedAccountForProgram(wallet, mint, program)
	if err != nil {
		return solana.Instruction{}, nil, err
	}

	return solana.NewInstruction(
		AssociatedTokenAccountProgramKey,
		[]byte{byte(command)},
		solana.NewAccountMeta(payer, true),
		solana.NewAccountMeta(addr, false),
		solana.NewReadonlyAccountMeta(wallet, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(program, false),
	), addr, nil
}

type DecompiledCreateAssociatedAccount struct {
	Payer        ed25519.PublicKey
	Address      ed25519.PublicKey
	Owner        ed25519.PublicKey
	Mint         ed25519.PublicKey
	TokenProgram ed25519.PublicKey
	Idempotent   bool
}

// DecompileCreateAssociatedAccount decompiles either create instruction. Empty
// data is the original encoding of AssociatedCommandCreate.
func DecompileCreateAssociatedAccount(m solana.Message, index int) (*DecompiledCreateAssociatedAccount, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], AssociatedTokenAccountProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}

	var idempotent bool
	switch {
	case len(i.Data) == 0:
	case len(i.Data) == 1 && AssociatedCommand(i.Data[0]) == AssociatedCommandCreate:
	case len(i.Data) == 1 && AssociatedCommand(i.Data[0]) == AssociatedCommandCreateIdempotent:
		idempotent = true
	default:
		return nil, solana.ErrIncorrectInstruction
	}

	// Older clients also pass the rent sysvar as a seventh account.
	if len(i.Accounts) != 6 && len(i.Accounts) != 7 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), 6)
	}

	if !bytes.Equal(m.Accounts[i.Accounts[4]], system.ProgramKey[:]) {
		return nil, errors.Errorf("system program key mismatch")
	}
	if !IsTokenProgram(m.Accounts[i.Accounts[5]]) {
		return nil, errors.Errorf("token program key mismatch")
	}
	if len(i.Accounts) == 7 && !bytes.Equal(m.Accounts[i.Accounts[6]], system.RentSysVar) {
		return nil, errors.Errorf("rent sysvar mismatch")
	}

	return &DecompiledCreateAssociatedAccount{
		Payer:        m.Accounts[i.Accounts[0]],
		Address:      m.Accounts[i.Accounts[1]],
		Owner:        m.Accounts[i.Accounts[2]],
		Mint:         m.Accounts[i.Accounts[3]],
		TokenProgram: m.Accounts[i.Accounts[5]],
		Idempotent:   idempotent,
	}, nil
}
