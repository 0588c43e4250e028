package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// SignedTransaction builds a transaction paid for by the first signer and
// signs it with every signer.
func SignedTransaction(t *testing.T, bh solana.Blockhash, signers []ed25519.PrivateKey, instructions ...solana.Instruction) solana.Transaction {
	require.NotEmpty(t, signers)

	txn := solana.NewTransaction(signers[0].Public().(ed25519.PublicKey), instructions...)
	txn.SetBlockhash(bh)
	require.NoError(t, txn.Sign(signers...))
	return txn
}

// RequireCustomError asserts that err is a transaction error raised by the
// instruction at index with the given custom program error code.
func RequireCustomError(t *testing.T, err error, index int, code solana.CustomError) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.ErrorAs(t, err, &txErr)
	require.NotNil(t, txErr.InstructionError(), "unexpected transaction error: %v", err)
	require.Equal(t, index, txErr.InstructionError().Index)
	require.NotNil(t, txErr.CustomError(), "unexpected instruction error: %v", err)
	require.Equal(t, code, *txErr.CustomError())
}

// RequireInstructionError asserts that err is a transaction error raised by
// the instruction at index with the given error key.
func RequireInstructionError(t *testing.T, err error, index int, key solana.InstructionErrorKey) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.ErrorAs(t, err, &txErr)
	require.NotNil(t, txErr.InstructionError(), "unexpected transaction error: %v", err)
	require.Equal(t, index, txErr.InstructionError().Index)
	require.Equal(t, key, txErr.InstructionError().ErrorKey())
}

// RequireTransactionError asserts that err is a transaction error with the
// given key.
func RequireTransactionError(t *testing.T, err error, key solana.TransactionErrorKey) {
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.ErrorAs(t, err, &txErr)
	require.Equal(t, key, txErr.ErrorKey())
}
