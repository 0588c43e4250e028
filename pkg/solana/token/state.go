package token

import (
	"crypto/ed25519"

	"github.com/code-payments/code-mint-fixture/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

const (
	// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L86
	MintSize = 82

	// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
	AccountSize = 165

	// ImmutableOwnerAccountSize is the size of a Token-2022 account carrying
	// the ImmutableOwner extension, which the associated token account
	// program always adds: the base layout, an account type byte and an
	// empty TLV entry.
	ImmutableOwnerAccountSize = AccountSize + 1 + 4
)

// Token-2022 marks extended state with an account type byte immediately after
// the base account layout.
const (
	accountTypeMint    byte = 1
	accountTypeAccount byte = 2

	extensionImmutableOwner uint16 = 7
)

// Mint is the state of a token mint.
type Mint struct {
	// Optional authority used to mint new tokens. Once unset, the supply is
	// fixed.
	MintAuthority ed25519.PublicKey
	// Total supply of tokens.
	Supply uint64
	// Number of base 10 digits to the right of the decimal place.
	Decimals byte
	IsInitialized bool
	// Optional authority to freeze token accounts.
	FreezeAuthority ed25519.PublicKey
}

func (m *Mint) Marshal() []byte {
	w := binary.NewWriter(MintSize)
	w.PutOptionalKey32(m.MintAuthority)
	w.PutUint64(m.Supply)
	w.PutUint8(m.Decimals)
	w.PutBool(m.IsInitialized)
	w.PutOptionalKey32(m.FreezeAuthority)
	return w.Bytes()
}

// Unmarshal decodes the base mint layout, also accepting Token-2022 mints with
// extensions.
func (m *Mint) Unmarshal(b []byte) bool {
	if !hasBaseLayout(b, MintSize, accountTypeMint) {
		return false
	}

	r := binary.NewReader(b)
	m.MintAuthority = r.OptionalKey32()
	m.Supply = r.Uint64()
	m.Decimals = r.Uint8()
	m.IsInitialized = r.Bool()
	m.FreezeAuthority = r.OptionalKey32()
	return true
}

type Account struct {
	// The mint associated with this account
	Mint ed25519.PublicKey
	// The owner of this account.
	Owner ed25519.PublicKey
	// The amount of tokens this account holds.
	Amount uint64
	// If set, then the 'DelegatedAmount' represents the amount
	// authorized by the delegate.
	Delegate ed25519.PublicKey
	/// The account's state
	State AccountState
	// If set, this is a native token, and the value logs the rent-exempt reserve.
	IsNative *uint64
	// The amount delegated
	DelegatedAmount uint64
	// Optional authority to close the account.
	CloseAuthority ed25519.PublicKey
}

func (a *Account) Marshal() []byte {
	w := binary.NewWriter(AccountSize)
	w.PutKey32(a.Mint)
	w.PutKey32(a.Owner)
	w.PutUint64(a.Amount)
	w.PutOptionalKey32(a.Delegate)
	w.PutUint8(byte(a.State))
	w.PutOptionalUint64(a.IsNative)
	w.PutUint64(a.DelegatedAmount)
	w.PutOptionalKey32(a.CloseAuthority)
	return w.Bytes()
}

// MarshalWithImmutableOwner encodes the account in the Token-2022 layout used
// for associated token accounts.
func (a *Account) MarshalWithImmutableOwner() []byte {
	b := make([]byte, ImmutableOwnerAccountSize)
	copy(b, a.Marshal())

	b[AccountSize] = accountTypeAccount
	b[AccountSize+1] = byte(extensionImmutableOwner)
	b[AccountSize+2] = byte(extensionImmutableOwner >> 8)
	return b
}

// Unmarshal decodes the base account layout, also accepting Token-2022
// accounts with extensions.
func (a *Account) Unmarshal(b []byte) bool {
	if !hasBaseLayout(b, AccountSize, accountTypeAccount) {
		return false
	}

	r := binary.NewReader(b)
	a.Mint = r.Key32()
	a.Owner = r.Key32()
	a.Amount = r.Uint64()
	a.Delegate = r.OptionalKey32()
	a.State = AccountState(r.Uint8())
	a.IsNative = r.OptionalUint64()
	a.DelegatedAmount = r.Uint64()
	a.CloseAuthority = r.OptionalKey32()
	return true
}

// AccountSizeForProgram returns the size the associated token account program
// allocates for a token account owned by program.
func AccountSizeForProgram(program ed25519.PublicKey) uint64 {
	if Token2022ProgramKey.Equal(program) {
		return ImmutableOwnerAccountSize
	}
	return AccountSize
}

func hasBaseLayout(b []byte, size int, accountType byte) bool {
	switch {
	case len(b) == size:
		return true
	case len(b) > AccountSize:
		return b[AccountSize] == accountType
	default:
		return false
	}
}
