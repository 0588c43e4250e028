package memo

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
)

func TestInstruction(t *testing.T) {
	i := Instruction("mint fixture")
	assert.Equal(t, ProgramKey, i.Program)
	assert.Empty(t, i.Accounts)
	assert.Equal(t, "mint fixture", string(i.Data))

	signer, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	i = Instruction("signed", signer)
	require.Len(t, i.Accounts, 1)
	assert.EqualValues(t, signer, i.Accounts[0].PublicKey)
	assert.True(t, i.Accounts[0].IsSigner)
	assert.False(t, i.Accounts[0].IsWritable)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]byte("héllo")))
	assert.NoError(t, Validate(nil))
	assert.Error(t, Validate([]byte{0xff, 0xfe}))
}

func TestDecompile(t *testing.T) {
	payer, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	txn := solana.NewTransaction(payer, Instruction("mint fixture", payer))

	i, err := DecompileMemo(txn.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, "mint fixture", string(i.Data))
	require.Len(t, i.Signers, 1)
	assert.EqualValues(t, payer, i.Signers[0])

	_, err = DecompileMemo(txn.Message, 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "instruction doesn't exist")

	txn.Message.Accounts[1], _, err = ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_, err = DecompileMemo(txn.Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}
