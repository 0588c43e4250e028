package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"time"

	"github.com/mr-tron/base58/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/code-mint-fixture/pkg/metrics"
	"github.com/code-payments/code-mint-fixture/pkg/mintfixture"
	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
)

const metricsShutdownTimeout = 10 * time.Second

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create a mint and the payer's associated token account, then mint tokens into it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		return runProvision(cmd.Context(), config)
	},
}

func init() {
	provisionCmd.Flags().String("keypair", "", "payer keypair file, the payer is also mint authority and token account owner")
	provisionCmd.Flags().Uint64("airdrop", 0, "lamports to airdrop to the payer first")
	provisionCmd.Flags().String("token-program", defaultConfig.TokenProgram, "token program: token-2022, token, or a program address")
	provisionCmd.Flags().Uint8("decimals", defaultConfig.Decimals, "mint decimals")
	provisionCmd.Flags().Uint64("amount", 0, "raw token units to mint to the payer's associated token account")
	provisionCmd.Flags().String("freeze-authority", "", "optional freeze authority address")
	provisionCmd.Flags().Uint64("compute-unit-price", 0, "priority fee in micro-lamports per compute unit")
	provisionCmd.Flags().String("memo", "", "memo attached to every transaction")

	for flag, key := range map[string]string{
		"keypair":            "keypair",
		"airdrop":            "airdrop",
		"token-program":      "token_program",
		"decimals":           "decimals",
		"amount":             "amount",
		"freeze-authority":   "freeze_authority",
		"compute-unit-price": "compute_unit_price",
		"memo":               "memo",
	} {
		_ = viper.BindPFlag(key, provisionCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(provisionCmd)
}

// provisionResult is written to stdout as JSON.
type provisionResult struct {
	Payer           string `json:"payer"`
	TokenProgram    string `json:"token_program"`
	Mint            string `json:"mint"`
	Ata             string `json:"ata"`
	Decimals        uint8  `json:"decimals"`
	Amount          uint64 `json:"amount"`
	FreezeAuthority string `json:"freeze_authority,omitempty"`
}

func runProvision(ctx context.Context, config Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	metricsProvider, err := newMetricsProvider(config)
	if err != nil {
		return errors.Wrap(err, "error connecting to new relic")
	}
	configureLogger(config, metricsProvider)

	if metricsProvider != nil {
		defer metricsProvider.Shutdown(metricsShutdownTimeout)

		txn := metricsProvider.StartTransaction("provision")
		defer txn.End()

		ctx = newrelic.NewContext(metrics.NewContext(ctx, metricsProvider), txn)
	}

	if len(config.Keypair) == 0 {
		return errors.New("a payer keypair is required")
	}
	payer, err := loadKeypair(config.Keypair)
	if err != nil {
		return err
	}

	commitment, err := config.commitment()
	if err != nil {
		return err
	}
	tokenProgram, err := config.tokenProgram()
	if err != nil {
		return err
	}
	freezeAuthority, err := config.freezeAuthority()
	if err != nil {
		return err
	}

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"method":   "runProvision",
		"endpoint": config.Endpoint,
		"payer":    base58.Encode(payer.Public().(ed25519.PublicKey)),
	})

	client := config.client()

	if config.Airdrop > 0 {
		if err := airdrop(ctx, client, payer.Public().(ed25519.PublicKey), config.Airdrop, commitment); err != nil {
			return err
		}
		log.WithField("lamports", config.Airdrop).Info("payer funded")
	}

	rent, err := system.GetRent(ctx, client)
	if err != nil {
		return errors.Wrap(err, "failed to get rent")
	}

	fixture := mintfixture.New(
		mintfixture.NewRPCBackend(client, commitment),
		payer,
		rent,
		mintfixture.WithTokenProgram(tokenProgram),
		mintfixture.WithComputeUnitPrice(config.ComputeUnitPrice),
		mintfixture.WithMemo(config.Memo),
	)

	bh, err := client.GetLatestBlockhash(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get latest blockhash")
	}

	result, err := provision(ctx, fixture, bh, config.Decimals, freezeAuthority, config.Amount)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"mint": result.Mint,
		"ata":  result.Ata,
	}).Info("mint provisioned")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// provision runs the full flow with a single blockhash. Minting is skipped
// for a zero amount.
func provision(ctx context.Context, fixture *mintfixture.Fixture, bh solana.Blockhash, decimals uint8, freezeAuthority ed25519.PublicKey, amount uint64) (*provisionResult, error) {
	mint, err := fixture.CreateAndInitializeMint(ctx, decimals, freezeAuthority, bh)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mint")
	}

	ata, err := fixture.CreateAndInitializeAta(ctx, mint, bh)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create associated token account")
	}

	if amount > 0 {
		if err := fixture.MintToAta(ctx, mint, ata, amount, bh); err != nil {
			return nil, errors.Wrap(err, "failed to mint tokens")
		}
	}

	result := &provisionResult{
		Payer:        base58.Encode(fixture.Payer()),
		TokenProgram: base58.Encode(fixture.TokenProgram()),
		Mint:         base58.Encode(mint),
		Ata:          base58.Encode(ata),
		Decimals:     decimals,
		Amount:       amount,
	}
	if freezeAuthority != nil {
		result.FreezeAuthority = base58.Encode(freezeAuthority)
	}

	metrics.RecordEvent(ctx, "MintFixtureProvisioned", map[string]interface{}{
		"mint":          result.Mint,
		"token_program": result.TokenProgram,
		"decimals":      decimals,
		"amount":        amount,
	})

	return result, nil
}

func airdrop(ctx context.Context, client solana.Client, account ed25519.PublicKey, lamports uint64, commitment solana.Commitment) error {
	sig, err := client.RequestAirdrop(ctx, account, lamports, commitment)
	if err != nil {
		return errors.Wrap(err, "failed to request airdrop")
	}

	if _, err := client.GetSignatureStatus(ctx, sig, commitment); err != nil {
		return errors.Wrapf(err, "airdrop %s not confirmed", sig)
	}
	return nil
}
