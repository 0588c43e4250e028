package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
)

// ProgramKey is the address of the original SPL token program.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// Token2022ProgramKey is the address of the token program with extensions.
// Its instruction and base state layouts are shared with ProgramKey.
var Token2022ProgramKey = solana.MustPublicKeyFromString("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

var (
	ErrIncorrectProgramID = errors.New("incorrect token program id")
	ErrInvalidAuthority   = errors.New("invalid authority")
)

// IsTokenProgram reports whether key is one of the supported token programs.
func IsTokenProgram(key ed25519.PublicKey) bool {
	return bytes.Equal(key, ProgramKey) || bytes.Equal(key, Token2022ProgramKey)
}

type Command byte

const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	CommandInitializeMultisig
	CommandTransfer
	CommandApprove
	CommandRevoke
	CommandSetAuthority
	CommandMintTo

	CommandUnknown = Command(math.MaxUint8)
)

// Custom error codes returned by the token program.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/error.rs
const (
	ErrorNotRentExempt solana.CustomError = iota
	ErrorInsufficientFunds
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	ErrorFixedSupply
	ErrorAlreadyInUse
	ErrorInvalidNumberOfProvidedSigners
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	ErrorInvalidState
	ErrorOverflow
	ErrorAuthorityTypeNotSupported
	ErrorMintCannotFreeze
	ErrorAccountFrozen
	ErrorMintDecimalsMismatch
)

// GetCommand returns the token command of the instruction at index.
func GetCommand(m solana.Message, index int) (Command, error) {
	if index >= len(m.Instructions) {
		return CommandUnknown, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !IsTokenProgram(m.Accounts[i.ProgramIndex]) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// InitializeMint initializes a mint account previously allocated with
// MintSize bytes and owned by program. A nil freezeAuthority leaves the mint
// without one.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L29-L40
func InitializeMint(program, mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//   1. `[]` Rent sysvar
	if !IsTokenProgram(program) {
		return solana.Instruction{}, ErrIncorrectProgramID
	}
	if len(mintAuthority) != ed25519.PublicKeySize {
		return solana.Instruction{}, errors.Wrap(ErrInvalidAuthority, "mint authority")
	}
	if len(freezeAuthority) != 0 && len(freezeAuthority) != ed25519.PublicKeySize {
		return solana.Instruction{}, errors.Wrap(ErrInvalidAuthority, "freeze authority")
	}

	data := make([]byte, 0, 2+ed25519.PublicKeySize+1+ed25519.PublicKeySize)
	data = append(data, byte(CommandInitializeMint), decimals)
	data = append(data, mintAuthority...)
	if len(freezeAuthority) > 0 {
		data = append(data, 1)
		data = append(data, freezeAuthority...)
	} else {
		data = append(data, 0)
	}

	return solana.NewInstruction(
		program,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	), nil
}

type DecompiledInitializeMint struct {
	Program         ed25519.PublicKey
	Mint            ed25519.PublicKey
	Decimals        byte
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
}

func DecompileInitializeMint(m solana.Message, index int) (*DecompiledInitializeMint, error) {
	i, err := tokenInstruction(m, index, CommandInitializeMint)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(system.RentSysVar, m.Accounts[i.Accounts[1]]) {
		return nil, errors.New("invalid rent sysvar")
	}

	const minSize = 2 + ed25519.PublicKeySize + 1
	if len(i.Data) < minSize {
		return nil, errors.Errorf("invalid data size: %d", len(i.Data))
	}

	decompiled := &DecompiledInitializeMint{
		Program:       m.Accounts[i.ProgramIndex],
		Mint:          m.Accounts[i.Accounts[0]],
		Decimals:      i.Data[1],
		MintAuthority: append(ed25519.PublicKey(nil), i.Data[2:2+ed25519.PublicKeySize]...),
	}

	switch i.Data[minSize-1] {
	case 0:
		if len(i.Data) != minSize {
			return nil, errors.Errorf("invalid data size: %d", len(i.Data))
		}
	case 1:
		if len(i.Data) != minSize+ed25519.PublicKeySize {
			return nil, errors.Errorf("invalid data size: %d", len(i.Data))
		}
		decompiled.FreezeAuthority = append(ed25519.PublicKey(nil), i.Data[minSize:]...)
	default:
		return nil, errors.Errorf("invalid freeze authority option: %d", i.Data[minSize-1])
	}

	return decompiled, nil
}

// InitializeAccount initializes a token account previously allocated with
// AccountSize bytes and owned by program.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L41-L55
func InitializeAccount(program, account, mint, owner ed25519.PublicKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]`  The account to initialize.
	//   1. `[]` The mint this account will be associated with.
	//   2. `[]` The new account's owner/multisignature.
	//   3. `[]` Rent sysvar
	if !IsTokenProgram(program) {
		return solana.Instruction{}, ErrIncorrectProgramID
	}

	return solana.NewInstruction(
		program,
		[]byte{byte(CommandInitializeAccount)},
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	), nil
}

type DecompiledInitializeAccount struct {
	Program ed25519.PublicKey
	Account ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
}

func DecompileInitializeAccount(m solana.Message, index int) (*DecompiledInitializeAccount, error) {
	i, err := tokenInstruction(m, index, CommandInitializeAccount)
	if err != nil {
		return nil, err
	}

	if len(i.Data) != 1 {
		return nil, errors.Errorf("invalid data size: %d", len(i.Data))
	}
	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !bytes.Equal(system.RentSysVar, m.Accounts[i.Accounts[3]]) {
		return nil, errors.New("invalid rent sysvar")
	}

	return &DecompiledInitializeAccount{
		Program: m.Accounts[i.ProgramIndex],
		Account: m.Accounts[i.Accounts[0]],
		Mint:    m.Accounts[i.Accounts[1]],
		Owner:   m.Accounts[i.Accounts[2]],
	}, nil
}

// MintTo mints new tokens to dest. With no multisigSigners, authority must
// sign. Otherwise authority is a multisig account and the provided signers
// sign on its behalf.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L141-L154
func MintTo(program, mint, dest, authority ed25519.PublicKey, amount uint64, multisigSigners ...ed25519.PublicKey) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	//
	//   * Multisignature authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[]` The mint's multisignature mint-tokens authority.
	//   3. ..3+M `[signer]` M signer accounts.
	if !IsTokenProgram(program) {
		return solana.Instruction{}, ErrIncorrectProgramID
	}

	data := make([]byte, 1+8)
	data[0] = byte(CommandMintTo)
	binary.LittleEndian.PutUint64(data[1:], amount)

	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(mint, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(authority, len(multisigSigners) == 0),
	}
	for _, signer := range multisigSigners {
		accounts = append(accounts, solana.NewReadonlyAccountMeta(signer, true))
	}

	return solana.NewInstruction(program, data, accounts...), nil
}

type DecompiledMintTo struct {
	Program   ed25519.PublicKey
	Mint      ed25519.PublicKey
	Dest      ed25519.PublicKey
	Authority ed25519.PublicKey
	Signers   []ed25519.PublicKey
	Amount    uint64
}

func DecompileMintTo(m solana.Message, index int) (*DecompiledMintTo, error) {
	i, err := tokenInstruction(m, index, CommandMintTo)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 9 {
		return nil, errors.Errorf("invalid data size: %d", len(i.Data))
	}

	decompiled := &DecompiledMintTo{
		Program:   m.Accounts[i.ProgramIndex],
		Mint:      m.Accounts[i.Accounts[0]],
		Dest:      m.Accounts[i.Accounts[1]],
		Authority: m.Accounts[i.Accounts[2]],
		Amount:    binary.LittleEndian.Uint64(i.Data[1:]),
	}
	for _, index := range i.Accounts[3:] {
		decompiled.Signers = append(decompiled.Signers, m.Accounts[index])
	}

	return decompiled, nil
}

func tokenInstruction(m solana.Message, index int, command Command) (solana.CompiledInstruction, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !IsTokenProgram(m.Accounts[i.ProgramIndex]) {
		return i, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 || Command(i.Data[0]) != command {
		return i, solana.ErrIncorrectInstruction
	}
	return i, nil
}
