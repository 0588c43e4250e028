// Package mintfixture provisions token mints for integration tests: it
// creates and initializes a mint, creates the payer's associated token
// account and mints tokens into it, against either a JSON-RPC node or an
// in-process memory.Bank.
package mintfixture

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-mint-fixture/pkg/metrics"
	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/computebudget"
	"github.com/code-payments/code-mint-fixture/pkg/solana/memo"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
	"github.com/code-payments/code-mint-fixture/pkg/solana/token"
)

const (
	metricsStructName = "mintfixture.fixture"
)

// Fixture builds, signs and submits the provisioning transactions. The fee
// payer is the mint authority and the owner of the associated token account.
//
// A Fixture holds no mutable state and is safe for concurrent use, as long as
// concurrent operations do not depend on each other's results.
type Fixture struct {
	log *logrus.Entry

	backend      Backend
	payer        ed25519.PrivateKey
	payerKey     ed25519.PublicKey
	rent         system.Rent
	tokenProgram ed25519.PublicKey

	computeUnitPrice uint64
	memo             string
}

type Option func(f *Fixture)

// WithTokenProgram selects the token program that owns created mints and
// token accounts. The default is token.Token2022ProgramKey.
func WithTokenProgram(program ed25519.PublicKey) Option {
	return func(f *Fixture) {
		f.tokenProgram = program
	}
}

// WithComputeUnitPrice prefixes every transaction with a compute unit price,
// in micro-lamports, for clusters that prioritize by fee.
func WithComputeUnitPrice(microLamports uint64) Option {
	return func(f *Fixture) {
		f.computeUnitPrice = microLamports
	}
}

// WithMemo appends a memo signed by the payer to every transaction, which
// labels fixture activity on shared clusters.
func WithMemo(memo string) Option {
	return func(f *Fixture) {
		f.memo = memo
	}
}

// New returns a Fixture that pays for and signs every transaction with payer.
// The rent table sizes the lamports funding new mints. New performs no I/O.
func New(backend Backend, payer ed25519.PrivateKey, rent system.Rent, opts ...Option) *Fixture {
	payerKey := payer.Public().(ed25519.PublicKey)

	f := &Fixture{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":  "mintfixture/fixture",
			"payer": base58.Encode(payerKey),
		}),
		backend:      backend,
		payer:        payer,
		payerKey:     payerKey,
		rent:         rent,
		tokenProgram: token.Token2022ProgramKey,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Payer returns the fee payer's public key.
func (f *Fixture) Payer() ed25519.PublicKey {
	return f.payerKey
}

// TokenProgram returns the token program used for new mints.
func (f *Fixture) TokenProgram() ed25519.PublicKey {
	return f.tokenProgram
}

// CreateAndInitializeMint creates a new mint with the payer as mint authority.
// The account creation and initialization are submitted as a single
// transaction, so a failure leaves no partially created mint behind. A nil
// freezeAuthority creates a mint without one.
func (f *Fixture) CreateAndInitializeMint(ctx context.Context, decimals uint8, freezeAuthority ed25519.PublicKey, bh solana.Blockhash) (ed25519.PublicKey, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateAndInitializeMint")
	defer tracer.End()

	mintKey, mint, err := ed25519.GenerateKey(nil)
	if err != nil {
		tracer.OnError(err)
		return nil, wrapError(ErrorSourceProgram, err)
	}

	log := f.log.WithFields(logrus.Fields{
		"method":   "CreateAndInitializeMint",
		"mint":     base58.Encode(mintKey),
		"decimals": decimals,
	})
	tracer.AddAttribute("mint", base58.Encode(mintKey))

	initialize, err := token.InitializeMint(f.tokenProgram, mintKey, f.payerKey, freezeAuthority, decimals)
	if err != nil {
		log.WithError(err).Warn("failure building mint initialization")
		tracer.OnError(err)
		return nil, wrapError(ErrorSourceProgram, err)
	}

	err = f.processTransaction(
		ctx,
		log,
		bh,
		[]ed25519.PrivateKey{mint},
		system.CreateAccount(
			f.payerKey,
			mintKey,
			f.tokenProgram,
			f.rent.MinimumBalance(token.MintSize),
			token.MintSize,
		),
		initialize,
	)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	return mintKey, nil
}

// CreateAndInitializeMintWithoutFreeze creates a new mint with no freeze
// authority.
func (f *Fixture) CreateAndInitializeMintWithoutFreeze(ctx context.Context, decimals uint8, bh solana.Blockhash) (ed25519.PublicKey, error) {
	return f.CreateAndInitializeMint(ctx, decimals, nil, bh)
}

// CreateAndInitializeAta creates the payer's associated token account for
// mint and returns its address. The address only depends on the payer, mint
// and token program.
func (f *Fixture) CreateAndInitializeAta(ctx context.Context, mint ed25519.PublicKey, bh solana.Blockhash) (ed25519.PublicKey, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateAndInitializeAta")
	defer tracer.End()

	log := f.log.WithFields(logrus.Fields{
		"method": "CreateAndInitializeAta",
		"mint":   base58.Encode(mint),
	})

	create, ata, err := token.CreateAssociatedTokenAccountForProgram(f.payerKey, f.payerKey, mint, f.tokenProgram)
	if err != nil {
		log.WithError(err).Warn("failure building associated account creation")
		tracer.OnError(err)
		return nil, wrapError(ErrorSourceProgram, err)
	}

	log = log.WithField("ata", base58.Encode(ata))
	tracer.AddAttribute("ata", base58.Encode(ata))

	if err := f.processTransaction(ctx, log, bh, nil, create); err != nil {
		tracer.OnError(err)
		return nil, err
	}

	return ata, nil
}

// MintToAta mints amount raw token units into ata. The payer must be the
// mint authority. Decimal scaling is up to the caller.
func (f *Fixture) MintToAta(ctx context.Context, mint, ata ed25519.PublicKey, amount uint64, bh solana.Blockhash) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "MintToAta")
	defer tracer.End()

	log := f.log.WithFields(logrus.Fields{
		"method": "MintToAta",
		"mint":   base58.Encode(mint),
		"ata":    base58.Encode(ata),
		"amount": amount,
	})

	mintTo, err := token.MintTo(f.tokenProgram, mint, ata, f.payerKey, amount)
	if err != nil {
		log.WithError(err).Warn("failure building mint to")
		tracer.OnError(err)
		return wrapError(ErrorSourceProgram, err)
	}

	if err := f.processTransaction(ctx, log, bh, nil, mintTo); err != nil {
		tracer.OnError(err)
		return err
	}

	metrics.RecordCount(ctx, "MintFixture.MintedAmount", amount)
	return nil
}

// processTransaction signs instructions with the payer and any additional
// signers, then submits them through the backend. Configured compute budget
// and memo instructions surround the operation's own instructions.
func (f *Fixture) processTransaction(ctx context.Context, log *logrus.Entry, bh solana.Blockhash, signers []ed25519.PrivateKey, instructions ...solana.Instruction) error {
	if f.computeUnitPrice > 0 {
		instructions = append([]solana.Instruction{computebudget.SetComputeUnitPrice(f.computeUnitPrice)}, instructions...)
	}
	if len(f.memo) > 0 {
		instructions = append(instructions, memo.Instruction(f.memo, f.payerKey))
	}

	txn := solana.NewTransaction(f.payerKey, instructions...)
	txn.SetBlockhash(bh)

	if err := txn.Sign(append([]ed25519.PrivateKey{f.payer}, signers...)...); err != nil {
		log.WithError(err).Warn("failure signing transaction")
		return wrapError(ErrorSourceProgram, err)
	}

	log = log.WithField("signature", txn.Signature().String())

	sig, err := f.backend.SubmitAndConfirm(ctx, txn)
	if err != nil {
		log.WithError(err).Debug("transaction failed")
		return wrapError(f.backend.Source(), err)
	}

	log.WithField("signature", sig.String()).Debug("transaction confirmed")
	return nil
}
