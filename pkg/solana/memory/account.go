package memory

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/system"
)

type account struct {
	lamports   uint64
	data       []byte
	owner      ed25519.PublicKey
	executable bool
}

func newSystemAccount() *account {
	return &account{owner: system.ProgramKey[:]}
}

func (a *account) clone() *account {
	return &account{
		lamports:   a.lamports,
		data:       append([]byte(nil), a.data...),
		owner:      append(ed25519.PublicKey(nil), a.owner...),
		executable: a.executable,
	}
}

func (a *account) info() solana.AccountInfo {
	return solana.AccountInfo{
		Data:       append([]byte(nil), a.data...),
		Owner:      append(ed25519.PublicKey(nil), a.owner...),
		Lamports:   a.lamports,
		Executable: a.executable,
	}
}

func (a *account) isSystemAccount() bool {
	return len(a.data) == 0 && bytes.Equal(a.owner, system.ProgramKey[:])
}

func (a *account) isOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.owner, program)
}
