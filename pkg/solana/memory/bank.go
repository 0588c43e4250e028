package memory

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/computebudget"
	"github.com/code-payments/code-mint-fixture/pkg/solana/memo"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
	"github.com/code-payments/code-mint-fixture/pkg/solana/token"
)

const (
	// MaxProcessingAge is the number of slots a blockhash remains usable for
	// new transactions.
	MaxProcessingAge = 150

	// DefaultLamportsPerSignature is the fee charged for each transaction
	// signature.
	DefaultLamportsPerSignature = 5000
)

var (
	nativeLoaderKey = solana.MustPublicKeyFromString("NativeLoader1111111111111111111111111111111")
	bpfLoaderKey    = solana.MustPublicKeyFromString("BPFLoader2111111111111111111111111111111111")
)

type recentBlockhash struct {
	hash solana.Blockhash
	slot uint64
}

// Bank is an in-process ledger that executes the system, token, associated
// token account, memo and compute budget programs. Transactions are processed one at a
// time and are final once ProcessTransaction returns.
type Bank struct {
	log *logrus.Entry

	rent                 system.Rent
	lamportsPerSignature uint64

	mu          sync.Mutex
	slot        uint64
	accounts    map[string]*account
	blockhashes []recentBlockhash
	processed   map[solana.Signature]error
	programs    map[string]processor
}

type Option func(b *Bank)

// WithRent overrides the rent configuration published in the rent sysvar.
func WithRent(rent system.Rent) Option {
	return func(b *Bank) {
		b.rent = rent
	}
}

// WithLamportsPerSignature overrides the per signature transaction fee.
func WithLamportsPerSignature(lamports uint64) Option {
	return func(b *Bank) {
		b.lamportsPerSignature = lamports
	}
}

// NewBank returns a bank at slot zero with the builtin programs and the rent
// sysvar loaded.
func NewBank(opts ...Option) *Bank {
	b := &Bank{
		log:                  logrus.StandardLogger().WithField("type", "solana/memory"),
		rent:                 system.DefaultRent,
		lamportsPerSignature: DefaultLamportsPerSignature,
		accounts:             make(map[string]*account),
		processed:            make(map[solana.Signature]error),
	}
	for _, o := range opts {
		o(b)
	}

	b.programs = map[string]processor{
		string(system.ProgramKey[:]):                   processSystem,
		string(token.ProgramKey):                       processToken,
		string(token.Token2022ProgramKey):              processToken,
		string(token.AssociatedTokenAccountProgramKey): processAssociatedTokenAccount,
		string(memo.ProgramKey):                        processMemo,
		string(computebudget.ProgramKey):               processComputeBudget,
	}

	for _, program := range []ed25519.PublicKey{system.ProgramKey[:], computebudget.ProgramKey} {
		b.accounts[string(program)] = &account{lamports: 1, owner: nativeLoaderKey, executable: true}
	}
	for _, program := range []ed25519.PublicKey{token.ProgramKey, token.Token2022ProgramKey, token.AssociatedTokenAccountProgramKey, memo.ProgramKey} {
		b.accounts[string(program)] = &account{lamports: b.rent.MinimumBalance(0), owner: bpfLoaderKey, executable: true}
	}
	b.accounts[string(system.RentSysVar)] = &account{
		lamports: b.rent.MinimumBalance(system.RentSize),
		data:     b.rent.Marshal(),
		owner:    system.SysvarOwner,
	}

	genesis := sha256.Sum256([]byte("memory bank genesis"))
	b.blockhashes = []recentBlockhash{{hash: genesis}}

	return b
}

// Rent returns the bank's rent configuration.
func (b *Bank) Rent() system.Rent {
	return b.rent
}

// LamportsPerSignature returns the per signature transaction fee.
func (b *Bank) LamportsPerSignature() uint64 {
	return b.lamportsPerSignature
}

// Slot returns the current slot.
func (b *Bank) Slot() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.slot
}

// LatestBlockhash returns the blockhash of the current slot.
func (b *Bank) LatestBlockhash() solana.Blockhash {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.blockhashes[len(b.blockhashes)-1].hash
}

// AdvanceSlots moves the bank forward by n slots, producing a new blockhash
// for each. Blockhashes older than MaxProcessingAge are forgotten.
func (b *Bank) AdvanceSlots(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := uint64(0); i < n; i++ {
		b.slot++

		var seed [sha256.Size + 8]byte
		copy(seed[:], b.blockhashes[len(b.blockhashes)-1].hash[:])
		binary.LittleEndian.PutUint64(seed[sha256.Size:], b.slot)

		b.blockhashes = append(b.blockhashes, recentBlockhash{
			hash: sha256.Sum256(seed[:]),
			slot: b.slot,
		})
	}

	for len(b.blockhashes) > 0 && b.slot-b.blockhashes[0].slot > MaxProcessingAge {
		b.blockhashes = b.blockhashes[1:]
	}
}

// Airdrop credits lamports to key, creating a system account if needed.
func (b *Bank) Airdrop(key ed25519.PublicKey, lamports uint64) error {
	if len(key) != ed25519.PublicKeySize {
		return solana.ErrInvalidPublicKey
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[string(key)]
	if !ok {
		a = newSystemAccount()
		b.accounts[string(key)] = a
	}
	if a.lamports > math.MaxUint64-lamports {
		return errors.New("airdrop overflows account balance")
	}
	a.lamports += lamports

	b.log.WithFields(logrus.Fields{
		"method":   "Airdrop",
		"account":  base58.Encode(key),
		"lamports": lamports,
	}).Debug("airdropped lamports")

	return nil
}

// GetAccountInfo implements solana.AccountInfoGetter. Every processed
// transaction is final, so the commitment is ignored.
func (b *Bank) GetAccountInfo(ctx context.Context, key ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	if err := ctx.Err(); err != nil {
		return solana.AccountInfo{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[string(key)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return a.info(), nil
}

// GetBalance returns the lamports held by key, which is zero for accounts
// that do not exist.
func (b *Bank) GetBalance(key ed25519.PublicKey) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a, ok := b.accounts[string(key)]; ok {
		return a.lamports
	}
	return 0
}

// GetTransactionStatus reports whether sig was processed, along with the
// error the transaction failed with, if any.
func (b *Bank) GetTransactionStatus(sig solana.Signature) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err, ok := b.processed[sig]
	return ok, err
}

// ProcessTransaction validates and executes txn.
//
// Transactions rejected before execution leave no trace. Once the fee is
// charged the transaction is recorded, and a failing instruction rolls back
// every change except the fee.
func (b *Bank) ProcessTransaction(ctx context.Context, txn solana.Transaction) (solana.Signature, error) {
	sig := txn.Signature()
	if err := ctx.Err(); err != nil {
		return sig, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	log := b.log.WithFields(logrus.Fields{
		"method":    "ProcessTransaction",
		"signature": sig.String(),
		"slot":      b.slot,
	})

	fee, err := b.checkTransaction(txn)
	if err != nil {
		log.WithError(err).Debug("transaction rejected")
		return sig, err
	}

	b.chargeFee(txn, fee)

	loaded := b.loadAccounts(txn.Message)
	err = b.execute(txn.Message, loaded)
	if err == nil {
		b.commit(txn.Message, loaded)
		log.Debug("transaction processed")
	} else {
		log.WithError(err).Debug("transaction failed")
	}

	b.processed[sig] = err
	return sig, err
}

// checkTransaction performs every check that precedes fee collection and
// returns the fee to charge.
func (b *Bank) checkTransaction(txn solana.Transaction) (uint64, error) {
	if err := sanitize(txn); err != nil {
		return 0, err
	}

	if !b.isRecentBlockhash(txn.Message.RecentBlockhash) {
		return 0, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}

	if _, ok := b.processed[txn.Signature()]; ok {
		return 0, solana.NewTransactionError(solana.TransactionErrorAlreadyProcessed)
	}

	if err := verifySignatures(txn); err != nil {
		return 0, err
	}

	budget, err := computebudget.ParseBudget(txn.Message)
	if err != nil {
		return 0, err
	}

	fee := b.lamportsPerSignature * uint64(len(txn.Signatures))
	if priority := budget.PrioritizationFee(); priority > math.MaxUint64-fee {
		fee = math.MaxUint64
	} else {
		fee += priority
	}

	payer, ok := b.accounts[string(txn.Message.Accounts[0])]
	if !ok || payer.lamports == 0 {
		return 0, solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}
	if !payer.isSystemAccount() {
		return 0, solana.NewTransactionError(solana.TransactionErrorInvalidAccountForFee)
	}
	if payer.lamports < fee {
		return 0, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}

	for _, ix := range txn.Message.Instructions {
		program, ok := b.accounts[string(txn.Message.Accounts[ix.ProgramIndex])]
		if !ok || !program.executable {
			return 0, solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
		}
	}

	return fee, nil
}

func (b *Bank) chargeFee(txn solana.Transaction, fee uint64) {
	key := string(txn.Message.Accounts[0])

	payer := b.accounts[key]
	payer.lamports -= fee
	if payer.lamports == 0 {
		delete(b.accounts, key)
	}
}

func (b *Bank) isRecentBlockhash(bh solana.Blockhash) bool {
	for _, recent := range b.blockhashes {
		if recent.hash == bh {
			return b.slot-recent.slot <= MaxProcessingAge
		}
	}
	return false
}

// loadAccounts copies every account referenced by m. Missing accounts load as
// empty system accounts.
func (b *Bank) loadAccounts(m solana.Message) []*account {
	loaded := make([]*account, len(m.Accounts))
	for i, key := range m.Accounts {
		if a, ok := b.accounts[string(key)]; ok {
			loaded[i] = a.clone()
		} else {
			loaded[i] = newSystemAccount()
		}
	}
	return loaded
}

func (b *Bank) commit(m solana.Message, loaded []*account) {
	for i, key := range m.Accounts {
		if !m.IsWritable(i) {
			continue
		}

		if loaded[i].lamports == 0 {
			delete(b.accounts, string(key))
		} else {
			b.accounts[string(key)] = loaded[i]
		}
	}
}
