package solanatest

import (
	"context"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
)

const (
	rpcPort = "8899/tcp"

	containerAutoKill = 10 * time.Minute
)

// StartValidator runs solana-test-validator in a throwaway container and
// waits until its RPC endpoint answers. The validator's genesis includes the
// token, Token-2022 and associated token account programs.
func StartValidator(pool *dockertest.Pool, image, tag string) (client solana.Client, endpoint string, teardown func(), err error) {
	teardown = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository:   image,
		Tag:          tag,
		Entrypoint:   []string{"solana-test-validator"},
		Cmd:          []string{"--ledger", "/tmp/test-ledger", "--rpc-port", "8899", "--bind-address", "0.0.0.0", "--quiet"},
		ExposedPorts: []string{rpcPort},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, "", teardown, errors.Wrap(err, "failed to start solana-test-validator")
	}

	// Expire() only fails for unknown containers
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"method": "StartValidator",
		"image":  fmt.Sprintf("%s:%s", image, tag),
	})

	teardown = func() {
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Error("failed to cleanup validator resource")
		}
	}

	endpoint = fmt.Sprintf("http://localhost:%s", resource.GetPort(rpcPort))
	client = solana.New(endpoint)

	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		// The first slots are produced before genesis programs are usable
		slot, err := client.GetSlot(ctx, solana.CommitmentConfirmed)
		if err != nil {
			return err
		}
		if slot < 2 {
			return errors.Errorf("validator at slot %d", slot)
		}
		return nil
	})
	if err != nil {
		return nil, "", teardown, errors.Wrap(err, "failed waiting for validator rpc")
	}

	log.WithField("endpoint", endpoint).Debug("validator started")
	return client, endpoint, teardown, nil
}
