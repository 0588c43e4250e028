package system

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
)

// RentSysVar points to the system variable "Rent"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar = solana.MustPublicKeyFromString("SysvarRent111111111111111111111111111111111")

// SysvarOwner owns every sysvar account.
var SysvarOwner = solana.MustPublicKeyFromString("Sysvar1111111111111111111111111111111111111")

const (
	// RentSize is the size of the serialized Rent sysvar.
	RentSize = 8 + 8 + 1

	// accountStorageOverhead is charged on top of the data length of every
	// account.
	accountStorageOverhead = 128
)

// Rent is the ledger's rent configuration, used to compute the balance an
// account needs to be exempt from rent collection.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  float64
	BurnPercent         uint8
}

// DefaultRent matches the configuration of every public cluster.
var DefaultRent = Rent{
	LamportsPerByteYear: 3480,
	ExemptionThreshold:  2.0,
	BurnPercent:         50,
}

// MinimumBalance returns the lamports required for an account holding size
// bytes of data to be rent exempt.
func (r Rent) MinimumBalance(size uint64) uint64 {
	bytes := accountStorageOverhead + size
	return uint64(float64(bytes*r.LamportsPerByteYear) * r.ExemptionThreshold)
}

// IsExempt reports whether lamports covers the exemption minimum for size.
func (r Rent) IsExempt(lamports, size uint64) bool {
	return lamports >= r.MinimumBalance(size)
}

func (r Rent) Marshal() []byte {
	b := make([]byte, RentSize)
	binary.LittleEndian.PutUint64(b, r.LamportsPerByteYear)
	binary.LittleEndian.PutUint64(b[8:], math.Float64bits(r.ExemptionThreshold))
	b[16] = r.BurnPercent
	return b
}

func (r *Rent) Unmarshal(data []byte) error {
	if len(data) != RentSize {
		return errors.Errorf("invalid rent sysvar size: %d", len(data))
	}

	r.LamportsPerByteYear = binary.LittleEndian.Uint64(data)
	r.ExemptionThreshold = math.Float64frombits(binary.LittleEndian.Uint64(data[8:]))
	r.BurnPercent = data[16]
	return nil
}

// GetRent reads the Rent sysvar from the ledger.
func GetRent(ctx context.Context, getter solana.AccountInfoGetter) (Rent, error) {
	var rent Rent

	info, err := getter.GetAccountInfo(ctx, RentSysVar, solana.CommitmentConfirmed)
	if err != nil {
		return rent, errors.Wrap(err, "failed to get rent sysvar")
	}
	if !SysvarOwner.Equal(info.Owner) {
		return rent, errors.New("rent sysvar has unexpected owner")
	}

	if err := rent.Unmarshal(info.Data); err != nil {
		return rent, err
	}
	return rent, nil
}
