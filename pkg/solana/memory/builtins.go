package memory

import (
	"github.com/code-payments/code-mint-fixture/pkg/solana"
	"github.com/code-payments/code-mint-fixture/pkg/solana/memo"
)

// processMemo accepts any utf-8 memo whose accounts all signed.
func processMemo(_ *Bank, ix *invocation) error {
	for _, ref := range ix.accounts {
		if !ref.signer {
			return ix.fail(solana.InstructionErrorMissingRequiredSignature)
		}
	}

	if err := memo.Validate(ix.data); err != nil {
		return ix.fail(solana.InstructionErrorInvalidInstructionData)
	}

	return nil
}

// processComputeBudget is a no-op. Compute budget instructions are validated
// and priced before execution.
func processComputeBudget(_ *Bank, _ *invocation) error {
	return nil
}
