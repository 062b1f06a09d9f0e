// Package token is an in-memory fungible token. Mint and Burn are restricted
// to the owner, transfers on behalf of others need an allowance.
package token

import (
	"context"
	"sync"

	"github.com/DomeLiquid/dsc/core"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	ErrNotOwner              = errors.New("token: caller is not the owner")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrZeroAmount            = errors.New("token: amount must be more than zero")
)

type Token struct {
	Symbol   string
	Decimals uint8

	owner uuid.UUID

	mu          sync.Mutex
	totalSupply *uint256.Int
	balances    map[uuid.UUID]*uint256.Int
	allowances  map[uuid.UUID]map[uuid.UUID]*uint256.Int
}

var _ core.DebtToken = (*Token)(nil)

func New(symbol string, decimals uint8, owner uuid.UUID) *Token {
	return &Token{
		Symbol:      symbol,
		Decimals:    decimals,
		owner:       owner,
		totalSupply: new(uint256.Int),
		balances:    map[uuid.UUID]*uint256.Int{},
		allowances:  map[uuid.UUID]map[uuid.UUID]*uint256.Int{},
	}
}

func (t *Token) Owner() uuid.UUID {
	return t.owner
}

func (t *Token) balance(holder uuid.UUID) *uint256.Int {
	if b, ok := t.balances[holder]; ok {
		return b
	}
	return new(uint256.Int)
}

func (t *Token) BalanceOf(_ context.Context, holder uuid.UUID) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance(holder).Clone(), nil
}

func (t *Token) TotalSupply() *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalSupply.Clone()
}

func (t *Token) Allowance(holder, spender uuid.UUID) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.allowances[holder][spender]; ok {
		return a.Clone()
	}
	return new(uint256.Int)
}

func (t *Token) Approve(_ context.Context, holder, spender uuid.UUID, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[holder] == nil {
		t.allowances[holder] = map[uuid.UUID]*uint256.Int{}
	}
	t.allowances[holder][spender] = amount.Clone()
	return nil
}

func (t *Token) Mint(_ context.Context, minter, to uuid.UUID, amount *uint256.Int) (bool, error) {
	if amount == nil || amount.IsZero() {
		return false, ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if minter != t.owner {
		return false, ErrNotOwner
	}
	supply, overflow := new(uint256.Int).AddOverflow(t.totalSupply, amount)
	if overflow {
		return false, core.ErrMathOverflow
	}
	t.totalSupply = supply
	t.balances[to] = new(uint256.Int).Add(t.balance(to), amount)
	return true, nil
}

// Burn destroys amount from the owner's own balance.
func (t *Token) Burn(_ context.Context, holder uuid.UUID, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if holder != t.owner {
		return ErrNotOwner
	}
	balance := t.balance(holder)
	if amount.Gt(balance) {
		return ErrInsufficientBalance
	}
	t.balances[holder] = new(uint256.Int).Sub(balance, amount)
	t.totalSupply = new(uint256.Int).Sub(t.totalSupply, amount)
	return nil
}

func (t *Token) Transfer(_ context.Context, from, to uuid.UUID, amount *uint256.Int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfer(from, to, amount)
}

func (t *Token) TransferFrom(_ context.Context, spender, from, to uuid.UUID, amount *uint256.Int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount == nil || amount.IsZero() {
		return false, ErrZeroAmount
	}
	if spender != from {
		allowance, ok := t.allowances[from][spender]
		if !ok || amount.Gt(allowance) {
			return false, ErrInsufficientAllowance
		}
		if ok, err := t.transfer(from, to, amount); !ok {
			return false, err
		}
		t.allowances[from][spender] = new(uint256.Int).Sub(allowance, amount)
		return true, nil
	}
	return t.transfer(from, to, amount)
}

func (t *Token) transfer(from, to uuid.UUID, amount *uint256.Int) (bool, error) {
	if amount == nil || amount.IsZero() {
		return false, ErrZeroAmount
	}
	balance := t.balance(from)
	if amount.Gt(balance) {
		return false, ErrInsufficientBalance
	}
	t.balances[from] = new(uint256.Int).Sub(balance, amount)
	t.balances[to] = new(uint256.Int).Add(t.balance(to), amount)
	return true, nil
}
