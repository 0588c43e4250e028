package token

import (
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
)

func TestGetAssociatedAccount(t *testing.T) {
	// Values generated from taken from spl code.
	wallet, err := base58.Decode("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	require.NoError(t, err)
	mint, err := base58.Decode("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")
	require.NoError(t, err)
	addr, err := base58.Decode("H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ")
	require.NoError(t, err)

	actual, err := GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)
	assert.EqualValues(t, addr, actual)

	actual, err = GetAssociatedAccountForProgram(wallet, mint, ProgramKey)
	require.NoError(t, err)
	assert.EqualValues(t, addr, actual)

	// The token program is one of the seeds.
	token2022, err := GetAssociatedAccountForProgram(wallet, mint, Token2022ProgramKey)
	require.NoError(t, err)
	assert.NotEqual(t, actual, token2022)

	expected, err := solana.FindProgramAddress(AssociatedTokenAccountProgramKey, wallet, Token2022ProgramKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, token2022)
}

func TestCreateAssociatedAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	for _, tc := range []struct {
		program    []byte
		idempotent bool
	}{
		{ProgramKey, false},
		{Token2022ProgramKey, false},
		{Token2022ProgramKey, true},
	} {
		expectedAddr, err := GetAssociatedAccountForProgram(keys[1], keys[2], tc.program)
		require.NoError(t, err)

		create := CreateAssociatedTokenAccountForProgram
		expectedData := []byte{0}
		if tc.idempotent {
			create = CreateAssociatedTokenAccountIdempotent
			expectedData = []byte{1}
		}

		instruction, addr, err := create(keys[0], keys[1], keys[2], tc.program)
		require.NoError(t, err)
		assert.Equal(t, expectedAddr, addr)

		assert.EqualValues(t, AssociatedTokenAccountProgramKey, instruction.Program)
		assert.Equal(t, expectedData, instruction.Data)
		require.Len(t, instruction.Accounts, 6)
		assert.True(t, instruction.Accounts[0].IsSigner)
		assert.True(t, instruction.Accounts[0].IsWritable)
		assert.False(t, instruction.Accounts[1].IsSigner)
		assert.True(t, instruction.Accounts[1].IsWritable)
		for i := 2; i < len(instruction.Accounts); i++ {
			assert.False(t, instruction.Accounts[i].IsSigner)
			assert.False(t, instruction.Accounts[i].IsWritable)
		}

		assert.EqualValues(t, system.ProgramKey[:], instruction.Accounts[4].PublicKey)
		assert.EqualValues(t, tc.program, instruction.Accounts[5].PublicKey)

		decompiled, err := DecompileCreateAssociatedAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
		require.NoError(t, err)
		assert.Equal(t, keys[0], decompiled.Payer)
		assert.Equal(t, addr, decompiled.Address)
		assert.Equal(t, keys[1], decompiled.Owner)
		assert.Equal(t, keys[2], decompiled.Mint)
		assert.EqualValues(t, tc.program, decompiled.TokenProgram)
		assert.Equal(t, tc.idempotent, decompiled.Idempotent)
	}

	_, _, err := CreateAssociatedTokenAccountForProgram(keys[0], keys[1], keys[2], keys[0])
	assert.Equal(t, ErrIncorrectProgramID, err)
}

func TestDecompileCreateAssociatedAccount_Legacy(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction, _, err := CreateAssociatedTokenAccount(keys[0], keys[1], keys[2])
	require.NoError(t, err)

	// Original encoding: no data and a trailing rent sysvar.
	instruction.Data = nil
	instruction.Accounts = append(instruction.Accounts, solana.NewReadonlyAccountMeta(system.RentSysVar, false))

	decompiled, err := DecompileCreateAssociatedAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	require.NoError(t, err)
	assert.False(t, decompiled.Idempotent)
	assert.EqualValues(t, ProgramKey, decompiled.TokenProgram)

	instruction.Accounts[6].PublicKey = keys[2]
	_, err = DecompileCreateAssociatedAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Error(t, err)

	instruction.Accounts = instruction.Accounts[:5]
	_, err = DecompileCreateAssociatedAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Error(t, err)

	instruction.Data = []byte{2}
	_, err = DecompileCreateAssociatedAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[1]
	_, err = DecompileCreateAssociatedAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	_, err = DecompileCreateAssociatedAccount(solana.NewTransaction(keys[0], instruction).Message, 1)
	assert.Error(t, err)
}
