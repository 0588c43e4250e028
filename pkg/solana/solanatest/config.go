package solanatest

import (
	"time"

	"github.com/code-payments/code-mint-fixture/pkg/config"
	"github.com/code-payments/code-mint-fixture/pkg/config/env"
)

const (
	envConfigPrefix = "MINT_FIXTURE_"

	IntegrationEnvName = envConfigPrefix + "INTEGRATION"
	defaultIntegration = false

	RPCEndpointEnvName = envConfigPrefix + "RPC_ENDPOINT"
	defaultRPCEndpoint = ""

	ValidatorImageEnvName = envConfigPrefix + "VALIDATOR_IMAGE"
	defaultValidatorImage = "solanalabs/solana"

	ValidatorTagEnvName = envConfigPrefix + "VALIDATOR_TAG"
	defaultValidatorTag = "v1.18.26"

	StartupTimeoutEnvName = envConfigPrefix + "VALIDATOR_STARTUP_TIMEOUT"
	defaultStartupTimeout = 2 * time.Minute
)

type conf struct {
	integration    config.Bool
	rpcEndpoint    config.String
	validatorImage config.String
	validatorTag   config.String
	startupTimeout config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			integration:    env.NewBoolConfig(IntegrationEnvName, defaultIntegration),
			rpcEndpoint:    env.NewStringConfig(RPCEndpointEnvName, defaultRPCEndpoint),
			validatorImage: env.NewStringConfig(ValidatorImageEnvName, defaultValidatorImage),
			validatorTag:   env.NewStringConfig(ValidatorTagEnvName, defaultValidatorTag),
			startupTimeout: env.NewDurationConfig(StartupTimeoutEnvName, defaultStartupTimeout),
		}
	}
}
