package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

type Signature [ed25519.SignatureSize]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

type Blockhash [sha256.Size]byte

func (b Blockhash) String() string {
	return base58.Encode(b[:])
}

// BlockhashFromString decodes a base58 blockhash as returned by the RPC API.
func BlockhashFromString(s string) (Blockhash, error) {
	var bh Blockhash

	decoded, err := base58.Decode(s)
	if err != nil {
		return bh, errors.Wrap(err, "invalid base58 blockhash")
	}
	if len(decoded) != len(bh) {
		return bh, errors.Errorf("invalid blockhash size: %d", len(decoded))
	}

	copy(bh[:], decoded)
	return bh, nil
}

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// Message is a legacy transaction message.
type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// accountRank orders message accounts: the fee payer, then writable signers,
// readonly signers, writable accounts, readonly accounts and finally accounts
// that are only ever invoked as programs.
type accountRank int

const (
	rankPayer accountRank = iota
	rankWritableSigner
	rankReadonlySigner
	rankWritable
	rankReadonly
	rankProgram
)

type compiledAccount struct {
	AccountMeta
	isPayer   bool
	isProgram bool
}

func (a compiledAccount) rank() accountRank {
	switch {
	case a.isPayer:
		return rankPayer
	case a.IsSigner && a.IsWritable:
		return rankWritableSigner
	case a.IsSigner:
		return rankReadonlySigner
	case a.IsWritable:
		return rankWritable
	case a.isProgram:
		return rankProgram
	default:
		return rankReadonly
	}
}

// NewTransaction compiles the instructions into an unsigned legacy transaction
// paid for by payer.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	accounts := []compiledAccount{
		{
			AccountMeta: NewAccountMeta(payer, true),
			isPayer:     true,
		},
	}
	for _, ix := range instructions {
		for _, meta := range ix.Accounts {
			accounts = mergeAccount(accounts, compiledAccount{AccountMeta: meta})
		}
		accounts = mergeAccount(accounts, compiledAccount{
			AccountMeta: NewReadonlyAccountMeta(ix.Program, false),
			isProgram:   true,
		})
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		ri, rj := accounts[i].rank(), accounts[j].rank()
		if ri != rj {
			return ri < rj
		}
		return bytes.Compare(accounts[i].PublicKey, accounts[j].PublicKey) < 0
	})

	var m Message
	for _, account := range accounts {
		m.Accounts = append(m.Accounts, account.PublicKey)

		switch {
		case account.IsSigner:
			m.Header.NumSignatures++
			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		case !account.IsWritable:
			m.Header.NumReadOnly++
		}
	}

	for _, ix := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, normalizeKey(ix.Program))),
			Data:         ix.Data,
		}
		for _, meta := range ix.Accounts {
			compiled.Accounts = append(compiled.Accounts, byte(indexOf(m.Accounts, normalizeKey(meta.PublicKey))))
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// mergeAccount adds account to the set, promoting the permissions of an
// existing entry with the same key instead of duplicating it.
func mergeAccount(accounts []compiledAccount, account compiledAccount) []compiledAccount {
	account.PublicKey = normalizeKey(account.PublicKey)

	for i := range accounts {
		if !bytes.Equal(accounts[i].PublicKey, account.PublicKey) {
			continue
		}

		accounts[i].IsSigner = accounts[i].IsSigner || account.IsSigner
		accounts[i].IsWritable = accounts[i].IsWritable || account.IsWritable
		accounts[i].isProgram = accounts[i].isProgram || account.isProgram
		return accounts
	}

	return append(accounts, account)
}

// normalizeKey maps an unset key onto the all zero key.
func normalizeKey(key ed25519.PublicKey) ed25519.PublicKey {
	if len(key) == 0 {
		return make(ed25519.PublicKey, ed25519.PublicKeySize)
	}
	return key
}

// IsSigner reports whether the account at index i must sign the message.
func (m Message) IsSigner(i int) bool {
	return i < int(m.Header.NumSignatures)
}

// IsWritable reports whether the account at index i is writable.
func (m Message) IsWritable(i int) bool {
	if i < int(m.Header.NumSignatures) {
		return i < int(m.Header.NumSignatures-m.Header.NumReadonlySigned)
	}
	return i < len(m.Accounts)-int(m.Header.NumReadOnly)
}

// Signature returns the first signature, which identifies the transaction.
func (t *Transaction) Signature() Signature {
	if len(t.Signatures) == 0 {
		return Signature{}
	}
	return t.Signatures[0]
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign signs the message with each provided key. Every key must belong to one
// of the message's required signers.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	message := t.Message.Marshal()

	for _, signer := range signers {
		pub := signer.Public().(ed25519.PublicKey)

		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(signer, message))
	}

	return nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		fmt.Fprintf(&sb, "  %d: %s\n", i, s)
	}
	sb.WriteString("Message:\n")
	sb.WriteString("  Header:\n")
	fmt.Fprintf(&sb, "    NumSignatures: %d\n", t.Message.Header.NumSignatures)
	fmt.Fprintf(&sb, "    NumReadonlySigned: %d\n", t.Message.Header.NumReadonlySigned)
	fmt.Fprintf(&sb, "    NumReadOnly: %d\n", t.Message.Header.NumReadOnly)
	sb.WriteString("  Accounts:\n")
	for i, a := range t.Message.Accounts {
		fmt.Fprintf(&sb, "    %d: %s\n", i, base58.Encode(a))
	}
	fmt.Fprintf(&sb, "  RecentBlockhash: %s\n", t.Message.RecentBlockhash)
	sb.WriteString("  Instructions:\n")
	for i, ix := range t.Message.Instructions {
		fmt.Fprintf(&sb, "    %d:\n", i)
		fmt.Fprintf(&sb, "      ProgramIndex: %d\n", ix.ProgramIndex)
		fmt.Fprintf(&sb, "      Accounts: %v\n", ix.Accounts)
		fmt.Fprintf(&sb, "      Data: %v\n", ix.Data)
	}
	return sb.String()
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}
	return -1
}
