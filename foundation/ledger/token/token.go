// Package token implements the in-memory ledger for a fungible token.
// The engine keeps balances, allowances and total supply, and carries
// the signed authorization flows that let a holder approve or move
// funds without submitting the call themselves. All arithmetic is
// unsigned with explicit overflow checks and every operation validates
// completely before it mutates anything, so a failed call leaves no
// partial state behind.
package token

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ethereum/go-ethereum/common"
)

// Set of errors for ledger operations.
var (
	ErrZeroAmount            = errors.New("amount must be greater than zero")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrOverflow              = errors.New("balance arithmetic overflow")
	ErrBadNonce              = errors.New("nonce does not match the current counter")
	ErrAuthUsed              = errors.New("authorization already used")
	ErrAuthTooEarly          = errors.New("authorization is not yet valid")
	ErrAuthExpired           = errors.New("authorization is expired")
)

// EventHandler defines a function that is called when events occur in
// the processing of ledger operations.
type EventHandler func(v string, args ...any)

// Transferable represents the capability to hold and move balances.
// Components that only need to move funds depend on this interface
// instead of the full ledger.
type Transferable interface {
	BalanceOf(account AccountID) uint64
	Transfer(from, to AccountID, amount uint64) error
	TransferFrom(spender, from, to AccountID, amount uint64) error
}

// =============================================================================

// Config represents the configuration required to construct a ledger.
type Config struct {
	Name      string
	Symbol    string
	Domain    signature.Domain
	Balances  map[string]uint64
	Now       func() time.Time
	EvHandler EventHandler
}

// Ledger manages the balances, allowances and authorization state for
// one token.
type Ledger struct {
	mu sync.RWMutex

	name   string
	symbol string
	domain signature.Domain

	balances    map[AccountID]uint64
	allowances  map[AccountID]map[AccountID]uint64
	totalSupply uint64

	permitNonces map[AccountID]uint64
	usedAuths    map[AccountID]map[common.Hash]bool

	now       func() time.Time
	evHandler EventHandler
}

// New constructs a ledger and applies the genesis balance information.
func New(cfg Config) (*Ledger, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	l := Ledger{
		name:         cfg.Name,
		symbol:       cfg.Symbol,
		domain:       cfg.Domain,
		balances:     make(map[AccountID]uint64),
		allowances:   make(map[AccountID]map[AccountID]uint64),
		permitNonces: make(map[AccountID]uint64),
		usedAuths:    make(map[AccountID]map[common.Hash]bool),
		now:          now,
		evHandler:    ev,
	}

	// Update the ledger with account balance information from genesis.
	for accountStr, balance := range cfg.Balances {
		accountID, err := ToAccountID(accountStr)
		if err != nil {
			return nil, fmt.Errorf("genesis account %q: %w", accountStr, err)
		}

		total, err := safeAdd(l.totalSupply, balance)
		if err != nil {
			return nil, fmt.Errorf("genesis balances: %w", err)
		}

		l.balances[accountID] = balance
		l.totalSupply = total
	}

	return &l, nil
}

// =============================================================================

// Name returns the token name.
func (l *Ledger) Name() string {
	return l.name
}

// Symbol returns the token symbol.
func (l *Ledger) Symbol() string {
	return l.symbol
}

// Domain returns the signing domain typed payloads for this ledger are
// scoped to.
func (l *Ledger) Domain() signature.Domain {
	return l.domain
}

// TotalSupply returns the total number of tokens in circulation.
func (l *Ledger) TotalSupply() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.totalSupply
}

// BalanceOf returns the balance held by the specified account.
func (l *Ledger) BalanceOf(account AccountID) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[account]
}

// Allowance returns how much of the owner's balance the spender may
// still move.
func (l *Ledger) Allowance(owner, spender AccountID) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.allowances[owner][spender]
}

// Nonce returns the current permit counter for the specified owner. A
// permit is only valid for this exact value at the time it is checked.
func (l *Ledger) Nonce(owner AccountID) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.permitNonces[owner]
}

// AuthorizationUsed reports whether the authorizer has consumed or
// cancelled the specified nonce.
func (l *Ledger) AuthorizationUsed(authorizer AccountID, nonce common.Hash) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.usedAuths[authorizer][nonce]
}

// CopyBalances makes a copy of the current balances in the ledger.
func (l *Ledger) CopyBalances() map[AccountID]uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balances := make(map[AccountID]uint64, len(l.balances))
	for accountID, balance := range l.balances {
		balances[accountID] = balance
	}

	return balances
}

// =============================================================================

// Transfer moves the amount from one account to the other.
func (l *Ledger) Transfer(from, to AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.move(from, to, amount)
}

// Approve sets how much of the owner's balance the spender may move on
// their behalf. The value replaces any previous allowance.
func (l *Ledger) Approve(owner, spender AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.setAllowance(owner, spender, amount)

	return nil
}

// TransferFrom moves the amount from one account to another on the
// authority of a previously granted allowance, which is reduced by the
// amount moved.
func (l *Ledger) TransferFrom(spender, from, to AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowances[from][spender]
	if allowed < amount {
		return ErrInsufficientAllowance
	}

	if err := l.move(from, to, amount); err != nil {
		return err
	}

	l.allowances[from][spender] = allowed - amount

	return nil
}

// Mint creates new tokens in the specified account.
func (l *Ledger) Mint(to AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount == 0 {
		return ErrZeroAmount
	}

	total, err := safeAdd(l.totalSupply, amount)
	if err != nil {
		return err
	}

	balance, err := safeAdd(l.balances[to], amount)
	if err != nil {
		return err
	}

	l.totalSupply = total
	l.balances[to] = balance

	return nil
}

// Burn destroys tokens held by the specified account.
func (l *Ledger) Burn(from AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount == 0 {
		return ErrZeroAmount
	}

	balance := l.balances[from]
	if balance < amount {
		return ErrInsufficientFunds
	}

	l.balances[from] = balance - amount
	l.totalSupply -= amount

	return nil
}

// =============================================================================

// move performs the balance accounting for a transfer. The caller must
// hold the lock. All checks run before the first write.
func (l *Ledger) move(from, to AccountID, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}

	if from == to {
		return errors.New("transfer to self")
	}

	fromBalance := l.balances[from]
	if fromBalance < amount {
		return ErrInsufficientFunds
	}

	toBalance, err := safeAdd(l.balances[to], amount)
	if err != nil {
		return err
	}

	l.balances[from] = fromBalance - amount
	l.balances[to] = toBalance

	return nil
}

// setAllowance records the spender's allowance. The caller must hold
// the lock.
func (l *Ledger) setAllowance(owner, spender AccountID, amount uint64) {
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[AccountID]uint64)
	}
	l.allowances[owner][spender] = amount
}

// safeAdd reports the sum of two amounts with an explicit overflow
// check.
func safeAdd(a, b uint64) (uint64, error) {
	if b > math.MaxUint64-a {
		return 0, ErrOverflow
	}

	return a + b, nil
}
