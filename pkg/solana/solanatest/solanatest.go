// Package solanatest provides JSON-RPC clients for integration tests, either
// against an existing node or a solana-test-validator container.
package solanatest

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/testutil"
)

// NewClient returns a client for integration tests. An explicit RPC endpoint
// takes precedence. Otherwise a validator container is started when
// integration tests are enabled, and the test is skipped when they are not.
func NewClient(t *testing.T, configProvider ConfigProvider) solana.Client {
	t.Helper()

	ctx := context.Background()
	conf := configProvider()

	if endpoint := conf.rpcEndpoint.Get(ctx); len(endpoint) > 0 {
		return solana.New(endpoint)
	}

	if !conf.integration.Get(ctx) {
		t.Skipf("integration tests disabled, set %s or %s", IntegrationEnvName, RPCEndpointEnvName)
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	pool.MaxWait = conf.startupTimeout.Get(ctx)

	client, _, teardown, err := StartValidator(pool, conf.validatorImage.Get(ctx), conf.validatorTag.Get(ctx))
	t.Cleanup(teardown)
	require.NoError(t, err)

	return client
}

// FundedKeypair generates a keypair and airdrops lamports to it, returning once
// the balance is visible at confirmed commitment.
func FundedKeypair(t *testing.T, client solana.Client, lamports uint64) ed25519.PrivateKey {
	t.Helper()

	ctx := context.Background()
	key := testutil.GenerateSolanaKeypair(t)
	owner := key.Public().(ed25519.PublicKey)

	_, err := client.RequestAirdrop(ctx, owner, lamports, solana.CommitmentConfirmed)
	require.NoError(t, err)

	require.NoError(t, testutil.WaitFor(ctx, time.Minute, solana.PollRate, func(ctx context.Context) (bool, error) {
		balance, err := client.GetBalance(ctx, owner, solana.CommitmentConfirmed)
		if err == solana.ErrNoBalance {
			return false, nil
		} else if err != nil {
			return false, err
		}
		return balance >= lamports, nil
	}))

	return key
}
