package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/code-mint-fixture/pkg/solana/shortvec"
)

var ErrUnsupportedVersion = errors.New("versioned messages not supported")

// Marshal returns the wire format of the transaction.
func (t Transaction) Marshal() []byte {
	b, err := shortvec.AppendLen(nil, len(t.Signatures))
	if err != nil {
		panic(err)
	}
	for _, s := range t.Signatures {
		b = append(b, s[:]...)
	}
	return append(b, t.Message.Marshal()...)
}

func (t *Transaction) Unmarshal(b []byte) error {
	r := bytes.NewReader(b)

	sigLen, err := shortvec.DecodeLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := range t.Signatures {
		if _, err = io.ReadFull(r, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return t.Message.unmarshal(r)
}

// Marshal returns the bytes covered by the transaction signatures.
func (m Message) Marshal() []byte {
	b := []byte{
		m.Header.NumSignatures,
		m.Header.NumReadonlySigned,
		m.Header.NumReadOnly,
	}

	b = mustAppendLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		b = append(b, a...)
	}

	b = append(b, m.RecentBlockhash[:]...)

	b = mustAppendLen(b, len(m.Instructions))
	for _, ix := range m.Instructions {
		b = append(b, ix.ProgramIndex)

		b = mustAppendLen(b, len(ix.Accounts))
		b = append(b, ix.Accounts...)

		b = mustAppendLen(b, len(ix.Data))
		b = append(b, ix.Data...)
	}

	return b
}

func (m *Message) Unmarshal(b []byte) error {
	return m.unmarshal(bytes.NewReader(b))
}

func (m *Message) unmarshal(r *bytes.Reader) (err error) {
	prefix, err := r.ReadByte()
	if err != nil {
		return errors.Wrap(err, "failed to read num signatures")
	}
	if prefix&0x80 != 0 {
		return ErrUnsupportedVersion
	}
	m.Header.NumSignatures = prefix

	if m.Header.NumReadonlySigned, err = r.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly signatures")
	}
	if m.Header.NumReadOnly, err = r.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly")
	}

	accountLen, err := shortvec.DecodeLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := range m.Accounts {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		if _, err = io.ReadFull(r, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	if _, err = io.ReadFull(r, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent blockhash")
	}

	instructionLen, err := shortvec.DecodeLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := range m.Instructions {
		ix := &m.Instructions[i]

		if ix.ProgramIndex, err = r.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}
		if int(ix.ProgramIndex) >= accountLen {
			return errors.Errorf("program index out of range: %d:%d", i, ix.ProgramIndex)
		}

		n, err := shortvec.DecodeLen(r)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] account len", i)
		}
		ix.Accounts = make([]byte, n)
		if _, err = io.ReadFull(r, ix.Accounts); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}
		for _, index := range ix.Accounts {
			if int(index) >= accountLen {
				return errors.Errorf("account index out of range: %d:%d", i, index)
			}
		}

		n, err = shortvec.DecodeLen(r)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data len", i)
		}
		ix.Data = make([]byte, n)
		if _, err = io.ReadFull(r, ix.Data); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}
	}

	return nil
}

func mustAppendLen(b []byte, n int) []byte {
	b, err := shortvec.AppendLen(b, n)
	if err != nil {
		panic(err)
	}
	return b
}
