package token

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
)

type staticAccounts map[string]solana.AccountInfo

func (s staticAccounts) GetAccountInfo(_ context.Context, account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	info, ok := s[string(account)]
	if !ok {
		return info, solana.ErrNoAccountInfo
	}
	return info, nil
}

func TestClient_GetMint(t *testing.T) {
	keys := generateKeys(t, 4)

	mint := Mint{MintAuthority: keys[3], Supply: 100, Decimals: 6, IsInitialized: true}
	accounts := staticAccounts{
		string(keys[0]): {Owner: Token2022ProgramKey, Data: mint.Marshal()},
		string(keys[1]): {Owner: keys[3], Data: mint.Marshal()},
		string(keys[2]): {Owner: ProgramKey, Data: (&Mint{}).Marshal()},
	}
	client := NewClient(accounts)

	actual, err := client.GetMint(context.Background(), keys[0], solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, mint, *actual)

	_, err = client.GetMint(context.Background(), keys[1], solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidMint, err)

	_, err = client.GetMint(context.Background(), keys[2], solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidMint, err)

	_, err = client.GetMint(context.Background(), keys[3], solana.CommitmentConfirmed)
	assert.Equal(t, ErrAccountNotFound, err)
}

func TestClient_GetAccount(t *testing.T) {
	keys := generateKeys(t, 5)

	account := Account{Mint: keys[3], Owner: keys[4], Amount: 42, State: AccountStateInitialized}
	accounts := staticAccounts{
		string(keys[0]): {Owner: Token2022ProgramKey, Data: account.MarshalWithImmutableOwner()},
		string(keys[1]): {Owner: ProgramKey, Data: account.Marshal()},
		string(keys[2]): {Owner: ProgramKey, Data: make([]byte, AccountSize)},
		string(keys[3]): {Owner: keys[4], Data: account.Marshal()},
	}
	client := NewClient(accounts)

	for _, key := range keys[:2] {
		actual, err := client.GetAccount(context.Background(), key, solana.CommitmentFinalized)
		require.NoError(t, err)
		assert.Equal(t, account, *actual)
	}

	_, err := client.GetAccount(context.Background(), keys[2], solana.CommitmentFinalized)
	assert.Equal(t, ErrInvalidTokenAccount, err)

	_, err = client.GetAccount(context.Background(), keys[3], solana.CommitmentFinalized)
	assert.Equal(t, ErrInvalidTokenAccount, err)

	_, err = client.GetAccount(context.Background(), keys[4], solana.CommitmentFinalized)
	assert.Equal(t, ErrAccountNotFound, err)
}
