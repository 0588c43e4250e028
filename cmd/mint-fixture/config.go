package main

import (
	"crypto/ed25519"
	"os"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/code-payments/code-mint-fixture/pkg/metrics"
	ratelimit "github.com/code-payments/code-mint-fixture/pkg/rate"
	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/token"
)

const envPrefix = "MINT_FIXTURE"

// Config is the provisioning configuration, merged from flags, MINT_FIXTURE_
// environment variables and an optional config file, in that precedence.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	AppName            string `mapstructure:"app_name"`
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	Endpoint   string `mapstructure:"endpoint"`
	Commitment string `mapstructure:"commitment"`

	// RPCRate limits requests per second for each RPC method. Zero disables
	// the limit.
	RPCRate float64 `mapstructure:"rpc_rate"`

	// Keypair is a path to a keypair file, either a JSON array of the 64
	// private key bytes or a base58 encoded private key.
	Keypair string `mapstructure:"keypair"`

	// Airdrop is the number of lamports requested for the payer before
	// provisioning. Zero skips the airdrop.
	Airdrop uint64 `mapstructure:"airdrop"`

	// TokenProgram is "token-2022", "token", or a base58 program address.
	TokenProgram    string `mapstructure:"token_program"`
	Decimals        uint8  `mapstructure:"decimals"`
	Amount          uint64 `mapstructure:"amount"`
	FreezeAuthority string `mapstructure:"freeze_authority"`

	// ComputeUnitPrice is the priority fee in micro-lamports per compute unit.
	ComputeUnitPrice uint64 `mapstructure:"compute_unit_price"`
	Memo             string `mapstructure:"memo"`
}

var defaultConfig = Config{
	LogLevel: "info",

	AppName: "mint-fixture",

	Endpoint:   "http://localhost:8899",
	Commitment: "confirmed",

	TokenProgram: "token-2022",
	Decimals:     6,
}

func init() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("app_name")
	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}

func loadConfig(path string) (Config, error) {
	if len(path) > 0 {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "failed to load config")
		}
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	return config, nil
}

func (c Config) commitment() (solana.Commitment, error) {
	switch strings.ToLower(c.Commitment) {
	case "processed":
		return solana.CommitmentProcessed, nil
	case "confirmed":
		return solana.CommitmentConfirmed, nil
	case "finalized":
		return solana.CommitmentFinalized, nil
	default:
		return solana.Commitment{}, errors.Errorf("unknown commitment %q", c.Commitment)
	}
}

func (c Config) tokenProgram() (ed25519.PublicKey, error) {
	switch strings.ToLower(c.TokenProgram) {
	case "token-2022", "token2022":
		return token.Token2022ProgramKey, nil
	case "token", "spl-token":
		return token.ProgramKey, nil
	}

	program, err := solana.PublicKeyFromString(c.TokenProgram)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid token program %q", c.TokenProgram)
	}
	if !token.IsTokenProgram(program) {
		return nil, errors.Errorf("%s is not a token program", c.TokenProgram)
	}
	return program, nil
}

func (c Config) freezeAuthority() (ed25519.PublicKey, error) {
	if len(c.FreezeAuthority) == 0 {
		return nil, nil
	}

	key, err := solana.PublicKeyFromString(c.FreezeAuthority)
	if err != nil {
		return nil, errors.Wrap(err, "invalid freeze authority")
	}
	return key, nil
}

func (c Config) client() solana.Client {
	if c.RPCRate <= 0 {
		return solana.New(c.Endpoint)
	}
	return solana.NewWithLimiter(c.Endpoint, ratelimit.NewLocalRateLimiter(rate.Limit(c.RPCRate)))
}

// newMetricsProvider returns nil when no license key is configured.
func newMetricsProvider(c Config) (*newrelic.Application, error) {
	if len(c.NewRelicLicenseKey) == 0 {
		return nil, nil
	}

	return newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(c.AppName),
		newrelic.ConfigLicense(c.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
}

func configureLogger(c Config, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", c.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}
