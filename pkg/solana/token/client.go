package token

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-mint-fixture/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that a Solana account exists at the
	// given address, but it is either not initialized, or not configured correctly.
	ErrInvalidTokenAccount = errors.New("invalid token account")
	// ErrInvalidMint indicates that a Solana account exists at the given
	// address, but it is not an initialized mint.
	ErrInvalidMint = errors.New("invalid mint")
)

// Client reads token state through any account source, such as an RPC
// client or an in-process bank.
type Client struct {
	getter solana.AccountInfoGetter
}

// NewClient creates a new Client.
func NewClient(getter solana.AccountInfoGetter) *Client {
	return &Client{
		getter: getter,
	}
}

// GetMint returns the mint state at the specified address.
func (c *Client) GetMint(ctx context.Context, mint ed25519.PublicKey, commitment solana.Commitment) (*Mint, error) {
	accountInfo, err := c.getAccountInfo(ctx, mint, commitment)
	if err != nil {
		return nil, err
	}

	var m Mint
	if !IsTokenProgram(accountInfo.Owner) || !m.Unmarshal(accountInfo.Data) || !m.IsInitialized {
		return nil, ErrInvalidMint
	}
	return &m, nil
}

// GetAccount returns the token account info for the specified account.
//
// If the account is not initialized, or is not owned by a token program,
// then ErrInvalidTokenAccount is returned.
func (c *Client) GetAccount(ctx context.Context, accountID ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	accountInfo, err := c.getAccountInfo(ctx, accountID, commitment)
	if err != nil {
		return nil, err
	}

	if !IsTokenProgram(accountInfo.Owner) {
		return nil, ErrInvalidTokenAccount
	}

	var account Account
	if !account.Unmarshal(accountInfo.Data) || account.State == AccountStateUninitialized {
		return nil, ErrInvalidTokenAccount
	}

	return &account, nil
}

func (c *Client) getAccountInfo(ctx context.Context, key ed25519.PublicKey, commitment solana.Commitment) (solana.AccountInfo, error) {
	accountInfo, err := c.getter.GetAccountInfo(ctx, key, commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return solana.AccountInfo{}, ErrAccountNotFound
	} else if err != nil {
		return solana.AccountInfo{}, errors.Wrap(err, "failed to get account info")
	}
	return accountInfo, nil
}
