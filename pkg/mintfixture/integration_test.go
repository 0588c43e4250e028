package mintfixture

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/solanatest"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
	"github.com/code-payments/code-mint-fixture/pkg/solana/token"
	"github.com/code-payments/code-mint-fixture/pkg/testutil"
)

func TestIntegration_Provision(t *testing.T) {
	client := solanatest.NewClient(t, solanatest.WithEnvConfigs())
	ctx := context.Background()

	rent, err := system.GetRent(ctx, client)
	require.NoError(t, err)

	tokens := token.NewClient(client)

	for _, program := range []ed25519.PublicKey{token.Token2022ProgramKey, token.ProgramKey} {
		t.Run(base58.Encode(program), func(t *testing.T) {
			payer := solanatest.FundedKeypair(t, client, solana.LamportsPerSol)
			fixture := New(NewRPCBackend(client, solana.CommitmentConfirmed), payer, rent, WithTokenProgram(program))

			bh, err := client.GetLatestBlockhash(ctx)
			require.NoError(t, err)

			mint, err := fixture.CreateAndInitializeMintWithoutFreeze(ctx, 6, bh)
			require.NoError(t, err)

			ata, err := fixture.CreateAndInitializeAta(ctx, mint, bh)
			require.NoError(t, err)

			expectedAta, err := token.GetAssociatedAccountForProgram(fixture.Payer(), mint, program)
			require.NoError(t, err)
			assert.EqualValues(t, expectedAta, ata)

			require.NoError(t, fixture.MintToAta(ctx, mint, ata, 1_000_000, bh))

			mintState, err := tokens.GetMint(ctx, mint, solana.CommitmentConfirmed)
			require.NoError(t, err)
			assert.EqualValues(t, 6, mintState.Decimals)
			assert.EqualValues(t, 1_000_000, mintState.Supply)
			assert.EqualValues(t, fixture.Payer(), mintState.MintAuthority)
			assert.Nil(t, mintState.FreezeAuthority)

			account, err := tokens.GetAccount(ctx, ata, solana.CommitmentConfirmed)
			require.NoError(t, err)
			assert.EqualValues(t, mint, account.Mint)
			assert.EqualValues(t, fixture.Payer(), account.Owner)

			balance, _, err := client.GetTokenAccountBalance(ctx, ata, solana.CommitmentConfirmed)
			require.NoError(t, err)
			assert.EqualValues(t, 1_000_000, balance)
		})
	}
}

func TestIntegration_StaleBlockhash(t *testing.T) {
	client := solanatest.NewClient(t, solanatest.WithEnvConfigs())
	ctx := context.Background()

	rent, err := system.GetRent(ctx, client)
	require.NoError(t, err)

	payer := solanatest.FundedKeypair(t, client, solana.LamportsPerSol)
	fixture := New(NewRPCBackend(client, solana.CommitmentConfirmed), payer, rent)

	var unknown solana.Blockhash
	copy(unknown[:], testutil.GenerateSolanaKeys(t, 1)[0])

	_, err = fixture.CreateAndInitializeMintWithoutFreeze(ctx, 6, unknown)
	requireFixtureError(t, err, ErrorSourceRPC)
	testutil.RequireTransactionError(t, err, solana.TransactionErrorBlockhashNotFound)
}
