package mintfixture

import (
	"context"

	"github.com/pkg/errors"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/memory"
)

// Backend submits signed transactions to a ledger and waits until they are
// final enough to build on.
type Backend interface {
	// SubmitAndConfirm returns once txn executed successfully, or with the
	// error that prevented it.
	SubmitAndConfirm(ctx context.Context, txn solana.Transaction) (solana.Signature, error)

	// Source labels the errors returned by SubmitAndConfirm.
	Source() ErrorSource
}

// RPCBackend submits transactions to a JSON-RPC node.
type RPCBackend struct {
	client     solana.Client
	commitment solana.Commitment
}

// NewRPCBackend returns a backend that waits for each transaction to reach
// commitment.
func NewRPCBackend(client solana.Client, commitment solana.Commitment) *RPCBackend {
	return &RPCBackend{
		client:     client,
		commitment: commitment,
	}
}

// SubmitAndConfirm implements Backend.SubmitAndConfirm.
func (b *RPCBackend) SubmitAndConfirm(ctx context.Context, txn solana.Transaction) (solana.Signature, error) {
	sig, err := b.client.SubmitTransaction(ctx, txn, b.commitment)
	if err != nil {
		return sig, err
	}

	status, err := b.client.GetSignatureStatus(ctx, sig, b.commitment)
	if err != nil {
		return sig, err
	}
	if status.ErrorResult != nil {
		return sig, status.ErrorResult
	}
	if !status.Reached(b.commitment) {
		return sig, errors.Errorf("transaction %s did not reach %s commitment", sig, b.commitment.Commitment)
	}
	return sig, nil
}

// Source implements Backend.Source.
func (b *RPCBackend) Source() ErrorSource {
	return ErrorSourceRPC
}

// BankBackend processes transactions in an in-process memory.Bank, where
// every processed transaction is immediately final.
type BankBackend struct {
	bank *memory.Bank
}

// NewBankBackend returns a backend that processes transactions directly in
// bank. Failures are reported with ErrorSourceBank.
func NewBankBackend(bank *memory.Bank) *BankBackend {
	return &BankBackend{
		bank: bank,
	}
}

// SubmitAndConfirm implements Backend.SubmitAndConfirm.
func (b *BankBackend) SubmitAndConfirm(ctx context.Context, txn solana.Transaction) (solana.Signature, error) {
	return b.bank.ProcessTransaction(ctx, txn)
}

// Source implements Backend.Source.
func (b *BankBackend) Source() ErrorSource {
	return ErrorSourceBank
}
