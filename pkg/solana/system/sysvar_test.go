package system

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
)

func TestWellKnownKeys(t *testing.T) {
	assert.Equal(t, "11111111111111111111111111111111", base58.Encode(ProgramKey[:]))
	assert.Equal(t, "SysvarRent111111111111111111111111111111111", base58.Encode(RentSysVar))
}

func TestRent_MinimumBalance(t *testing.T) {
	for _, tc := range []struct {
		size     uint64
		expected uint64
	}{
		{size: 0, expected: 890880},
		{size: 82, expected: 1461600},
		{size: 165, expected: 2039280},
	} {
		assert.Equal(t, tc.expected, DefaultRent.MinimumBalance(tc.size), tc.size)
		assert.True(t, DefaultRent.IsExempt(tc.expected, tc.size))
		assert.False(t, DefaultRent.IsExempt(tc.expected-1, tc.size))
	}

	doubled := Rent{LamportsPerByteYear: 6960, ExemptionThreshold: 2.0}
	assert.EqualValues(t, 2*1461600, doubled.MinimumBalance(82))
}

func TestRent_MarshalRoundTrip(t *testing.T) {
	data := DefaultRent.Marshal()
	require.Len(t, data, RentSize)

	// 3480 lamports, 2.0 as f64, 50%
	assert.Equal(t, []byte{0x98, 0x0d, 0, 0, 0, 0, 0, 0}, data[:8])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0x40}, data[8:16])
	assert.EqualValues(t, 50, data[16])

	var rent Rent
	require.NoError(t, rent.Unmarshal(data))
	assert.Equal(t, DefaultRent, rent)

	assert.Error(t, rent.Unmarshal(data[:16]))
}

type staticAccounts map[string]solana.AccountInfo

func (s staticAccounts) GetAccountInfo(_ context.Context, account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	info, ok := s[string(account)]
	if !ok {
		return info, solana.ErrNoAccountInfo
	}
	return info, nil
}

func TestGetRent(t *testing.T) {
	custom := Rent{LamportsPerByteYear: 1, ExemptionThreshold: 1.5, BurnPercent: 10}

	rent, err := GetRent(context.Background(), staticAccounts{
		string(RentSysVar): {Owner: SysvarOwner, Data: custom.Marshal(), Lamports: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, custom, rent)

	_, err = GetRent(context.Background(), staticAccounts{})
	assert.Error(t, err)

	_, err = GetRent(context.Background(), staticAccounts{
		string(RentSysVar): {Owner: RentSysVar, Data: custom.Marshal()},
	})
	assert.Error(t, err)
}
