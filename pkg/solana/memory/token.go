package memory

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/binary"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
	"github.com/code-payments/code-mint-fixture/pkg/solana/token"
)

// immutableOwnerExtension is the account type and TLV entry that follow the
// base layout of a Token-2022 account with an immutable owner.
var immutableOwnerExtension = (&token.Account{}).MarshalWithImmutableOwner()[token.AccountSize:]

// processToken executes the subset of token instructions needed to provision
// mints, for both token program ids.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/processor.rs
func processToken(b *Bank, ix *invocation) error {
	if len(ix.data) == 0 {
		return ix.custom(token.ErrorInvalidInstruction)
	}

	switch token.Command(ix.data[0]) {
	case token.CommandInitializeMint:
		return initializeMint(b, ix)
	case token.CommandInitializeAccount:
		if len(ix.data) != 1 {
			return ix.custom(token.ErrorInvalidInstruction)
		}
		if len(ix.accounts) < 4 {
			return ix.fail(solana.InstructionErrorNotEnoughAccountKeys)
		}
		if !bytes.Equal(ix.accounts[3].key, system.RentSysVar) {
			return ix.fail(solana.InstructionErrorInvalidArgument)
		}
		return initializeAccount(b, ix, ix.program, ix.accounts[0], ix.accounts[1], ix.accounts[2].key)
	case token.CommandMintTo:
		return mintTo(ix)
	default:
		return ix.custom(token.ErrorInvalidInstruction)
	}
}

func initializeMint(b *Bank, ix *invocation) error {
	if len(ix.data) < 35 {
		return ix.custom(token.ErrorInvalidInstruction)
	}
	if len(ix.accounts) < 2 {
		return ix.fail(solana.InstructionErrorNotEnoughAccountKeys)
	}

	r := binary.NewReader(ix.data[1:])
	decimals := r.Uint8()
	mintAuthority := r.Key32()

	var freezeAuthority ed25519.PublicKey
	switch r.Uint8() {
	case 0:
		if len(ix.data) != 35 {
			return ix.custom(token.ErrorInvalidInstruction)
		}
	case 1:
		if len(ix.data) != 35+ed25519.PublicKeySize {
			return ix.custom(token.ErrorInvalidInstruction)
		}
		freezeAuthority = r.Key32()
	default:
		return ix.custom(token.ErrorInvalidInstruction)
	}

	mintAccount := ix.accounts[0]
	if !bytes.Equal(ix.accounts[1].key, system.RentSysVar) {
		return ix.fail(solana.InstructionErrorInvalidArgument)
	}
	if !mintAccount.isOwnedBy(ix.program) {
		return ix.fail(solana.InstructionErrorIncorrectProgramID)
	}
	if len(mintAccount.data) != token.MintSize {
		return ix.fail(solana.InstructionErrorInvalidAccountData)
	}

	var mint token.Mint
	mint.Unmarshal(mintAccount.data)
	if mint.IsInitialized {
		return ix.custom(token.ErrorAlreadyInUse)
	}
	if !b.rent.IsExempt(mintAccount.lamports, uint64(len(mintAccount.data))) {
		return ix.custom(token.ErrorNotRentExempt)
	}

	mint = token.Mint{
		MintAuthority:   mintAuthority,
		Decimals:        decimals,
		IsInitialized:   true,
		FreezeAuthority: freezeAuthority,
	}
	mintAccount.data = mint.Marshal()
	return nil
}

func initializeAccount(b *Bank, ix *invocation, program ed25519.PublicKey, tokenAccount, mintAccount *accountRef, owner ed25519.PublicKey) error {
	if !tokenAccount.isOwnedBy(program) {
		return ix.fail(solana.InstructionErrorIncorrectProgramID)
	}

	switch len(tokenAccount.data) {
	case token.AccountSize:
	case token.ImmutableOwnerAccountSize:
		// The extension must have been initialized first.
		if !bytes.Equal(program, token.Token2022ProgramKey) || !bytes.Equal(tokenAccount.data[token.AccountSize:], immutableOwnerExtension) {
			return ix.fail(solana.InstructionErrorInvalidAccountData)
		}
	default:
		return ix.fail(solana.InstructionErrorInvalidAccountData)
	}

	var existing token.Account
	existing.Unmarshal(tokenAccount.data[:token.AccountSize])
	if existing.State != token.AccountStateUninitialized {
		return ix.custom(token.ErrorAlreadyInUse)
	}
	if !b.rent.IsExempt(tokenAccount.lamports, uint64(len(tokenAccount.data))) {
		return ix.custom(token.ErrorNotRentExempt)
	}

	if _, err := loadMint(ix, program, mintAccount); err != nil {
		return ix.custom(token.ErrorInvalidMint)
	}

	created := token.Account{
		Mint:  mintAccount.key,
		Owner: owner,
		State: token.AccountStateInitialized,
	}
	if len(tokenAccount.data) == token.ImmutableOwnerAccountSize {
		tokenAccount.data = created.MarshalWithImmutableOwner()
	} else {
		tokenAccount.data = created.Marshal()
	}
	return nil
}

func mintTo(ix *invocation) error {
	if len(ix.data) != 9 {
		return ix.custom(token.ErrorInvalidInstruction)
	}
	if len(ix.accounts) < 3 {
		return ix.fail(solana.InstructionErrorNotEnoughAccountKeys)
	}

	amount := binary.NewReader(ix.data[1:]).Uint64()
	mintAccount, dest, authority := ix.accounts[0], ix.accounts[1], ix.accounts[2]

	if !dest.isOwnedBy(ix.program) {
		return ix.fail(solana.InstructionErrorIncorrectProgramID)
	}
	var destState token.Account
	if !destState.Unmarshal(dest.data) || destState.State == token.AccountStateUninitialized {
		return ix.fail(solana.InstructionErrorUninitializedAccount)
	}
	if destState.State == token.AccountStateFrozen {
		return ix.custom(token.ErrorAccountFrozen)
	}
	if !bytes.Equal(destState.Mint, mintAccount.key) {
		return ix.custom(token.ErrorMintMismatch)
	}

	mint, err := loadMint(ix, ix.program, mintAccount)
	if err != nil {
		return err
	}
	if len(mint.MintAuthority) == 0 {
		return ix.custom(token.ErrorFixedSupply)
	}
	if !bytes.Equal(mint.MintAuthority, authority.key) {
		return ix.custom(token.ErrorOwnerMismatch)
	}
	// Multisig authorities are not supported.
	if !authority.signer {
		return ix.fail(solana.InstructionErrorMissingRequiredSignature)
	}

	if destState.Amount > math.MaxUint64-amount || mint.Supply > math.MaxUint64-amount {
		return ix.custom(token.ErrorOverflow)
	}
	destState.Amount += amount
	mint.Supply += amount

	writeAccountState(dest, &destState)
	writeMintState(mintAccount, mint)
	return nil
}

func loadMint(ix *invocation, program ed25519.PublicKey, mintAccount *accountRef) (*token.Mint, error) {
	if !mintAccount.isOwnedBy(program) {
		return nil, ix.fail(solana.InstructionErrorIncorrectProgramID)
	}

	var mint token.Mint
	if !mint.Unmarshal(mintAccount.data) || !mint.IsInitialized {
		return nil, ix.fail(solana.InstructionErrorUninitializedAccount)
	}
	return &mint, nil
}

// writeAccountState and writeMintState preserve any extension data that
// follows the base layout.
func writeAccountState(ref *accountRef, state *token.Account) {
	copy(ref.data, state.Marshal())
}

func writeMintState(ref *accountRef, state *token.Mint) {
	copy(ref.data, state.Marshal())
}
