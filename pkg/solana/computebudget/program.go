package computebudget

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

const (
	// DefaultInstructionUnitLimit is the compute unit limit granted to each
	// instruction when the transaction does not set one.
	DefaultInstructionUnitLimit = 200_000

	// MaxUnitLimit is the maximum compute unit limit of a transaction.
	MaxUnitLimit = 1_400_000

	microLamportsPerLamport = 1_000_000
)

type Command byte

const (
	CommandRequestUnits Command = iota
	CommandRequestHeapFrame
	CommandSetComputeUnitLimit
	CommandSetComputeUnitPrice
)

func SetComputeUnitLimit(units uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = byte(CommandSetComputeUnitLimit)
	binary.LittleEndian.PutUint32(data[1:], units)

	return solana.NewInstruction(ProgramKey, data)
}

// SetComputeUnitPrice sets the price in micro-lamports paid per requested
// compute unit, on top of the signature fee.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = byte(CommandSetComputeUnitPrice)
	binary.LittleEndian.PutUint64(data[1:], microLamports)

	return solana.NewInstruction(ProgramKey, data)
}

// Budget is the compute budget requested by a transaction.
type Budget struct {
	UnitLimit uint32
	UnitPrice uint64
}

// PrioritizationFee is the fee in lamports for the requested units, rounded up.
func (b Budget) PrioritizationFee() uint64 {
	hi, lo := bits.Mul64(b.UnitPrice, uint64(b.UnitLimit))
	if hi >= microLamportsPerLamport {
		return math.MaxUint64
	}

	fee, rem := bits.Div64(hi, lo, microLamportsPerLamport)
	if rem > 0 {
		fee++
	}
	return fee
}

// ParseBudget reads the compute budget requested by m. Malformed compute budget
// instructions fail with InvalidInstructionData and repeated ones with
// DuplicateInstruction, as the runtime does before charging fees.
func ParseBudget(m solana.Message) (Budget, error) {
	var (
		budget             Budget
		hasLimit, hasPrice bool
		otherInstructions  uint32
	)

	for i, ix := range m.Instructions {
		if int(ix.ProgramIndex) >= len(m.Accounts) || !bytes.Equal(m.Accounts[ix.ProgramIndex], ProgramKey) {
			otherInstructions++
			continue
		}

		invalid := solana.TransactionErrorFromInstructionError(solana.NewInstructionError(i, solana.InstructionErrorInvalidInstructionData))
		if len(ix.Data) == 0 {
			return Budget{}, invalid
		}

		switch Command(ix.Data[0]) {
		case CommandSetComputeUnitLimit:
			if len(ix.Data) != 5 {
				return Budget{}, invalid
			}
			if hasLimit {
				return Budget{}, solana.NewDuplicateInstructionError(i)
			}
			hasLimit = true
			budget.UnitLimit = binary.LittleEndian.Uint32(ix.Data[1:])
		case CommandSetComputeUnitPrice:
			if len(ix.Data) != 9 {
				return Budget{}, invalid
			}
			if hasPrice {
				return Budget{}, solana.NewDuplicateInstructionError(i)
			}
			hasPrice = true
			budget.UnitPrice = binary.LittleEndian.Uint64(ix.Data[1:])
		default:
			return Budget{}, invalid
		}
	}

	if !hasLimit {
		budget.UnitLimit = DefaultInstructionUnitLimit * otherInstructions
	}
	if budget.UnitLimit > MaxUnitLimit {
		budget.UnitLimit = MaxUnitLimit
	}
	return budget, nil
}

// DecompileSetComputeUnitLimit returns the unit limit set by the instruction
// at index.
func DecompileSetComputeUnitLimit(m solana.Message, index int) (uint32, error) {
	data, err := decompile(m, index, CommandSetComputeUnitLimit, 5)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data[1:]), nil
}

// DecompileSetComputeUnitPrice returns the unit price set by the instruction
// at index.
func DecompileSetComputeUnitPrice(m solana.Message, index int) (uint64, error) {
	data, err := decompile(m, index, CommandSetComputeUnitPrice, 9)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data[1:]), nil
}

func decompile(m solana.Message, index int, command Command, size int) ([]byte, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) != size || Command(i.Data[0]) != command {
		return nil, solana.ErrIncorrectInstruction
	}
	return i.Data, nil
}
