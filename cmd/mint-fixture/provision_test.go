package main

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/mintfixture"
	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/memory"
	"github.com/code-payments/code-mint-fixture/pkg/solana/token"
	"github.com/code-payments/code-mint-fixture/pkg/testutil"
)

func TestProvision(t *testing.T) {
	ctx := context.Background()

	bank := memory.NewBank()
	payer := testutil.GenerateSolanaKeypair(t)
	require.NoError(t, bank.Airdrop(payer.Public().(ed25519.PublicKey), solana.LamportsPerSol))

	fixture := mintfixture.New(mintfixture.NewBankBackend(bank), payer, bank.Rent())
	freeze := testutil.GenerateSolanaKeys(t, 1)[0]

	result, err := provision(ctx, fixture, bank.LatestBlockhash(), 9, freeze, 42)
	require.NoError(t, err)

	assert.Equal(t, base58.Encode(fixture.Payer()), result.Payer)
	assert.Equal(t, base58.Encode(token.Token2022ProgramKey), result.TokenProgram)
	assert.Equal(t, base58.Encode(freeze), result.FreezeAuthority)
	assert.EqualValues(t, 9, result.Decimals)
	assert.EqualValues(t, 42, result.Amount)

	tokens := token.NewClient(bank)

	mint, err := tokens.GetMint(ctx, solana.MustPublicKeyFromString(result.Mint), solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 42, mint.Supply)
	assert.EqualValues(t, freeze, mint.FreezeAuthority)

	account, err := tokens.GetAccount(ctx, solana.MustPublicKeyFromString(result.Ata), solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 42, account.Amount)
	assert.Equal(t, result.Mint, base58.Encode(account.Mint))
}

func TestProvision_ZeroAmount(t *testing.T) {
	ctx := context.Background()

	bank := memory.NewBank()
	payer := testutil.GenerateSolanaKeypair(t)
	require.NoError(t, bank.Airdrop(payer.Public().(ed25519.PublicKey), solana.LamportsPerSol))

	fixture := mintfixture.New(mintfixture.NewBankBackend(bank), payer, bank.Rent(), mintfixture.WithTokenProgram(token.ProgramKey))

	result, err := provision(ctx, fixture, bank.LatestBlockhash(), 0, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, result.FreezeAuthority)

	account, err := token.NewClient(bank).GetAccount(ctx, solana.MustPublicKeyFromString(result.Ata), solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Zero(t, account.Amount)
}

func TestProvision_Unfunded(t *testing.T) {
	bank := memory.NewBank()
	fixture := mintfixture.New(mintfixture.NewBankBackend(bank), testutil.GenerateSolanaKeypair(t), bank.Rent())

	_, err := provision(context.Background(), fixture, bank.LatestBlockhash(), 6, nil, 1)
	testutil.RequireTransactionError(t, err, solana.TransactionErrorAccountNotFound)
}
