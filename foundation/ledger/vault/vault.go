// Package vault implements a deposit vault whose fee policy is a
// versioned strategy. The logic lives in the strategy table and the
// balances live in the vault, so migrating to a new version swaps the
// logic while the state stays in place.
package vault

import (
	"errors"
	"sync"

	"github.com/ardanlabs/ledger/foundation/ledger/token"
)

// Set of errors for vault operations.
var (
	ErrUnknownVersion  = errors.New("strategy version does not exist")
	ErrZeroAmount      = errors.New("amount must be greater than zero")
	ErrInsufficientBal = errors.New("insufficient vault balance")
	ErrZeroAfterFee    = errors.New("deposit is consumed entirely by the fee")
)

// EventHandler defines a function that is called when events occur in
// the processing of vault operations.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to construct a vault.
type Config struct {
	Account   token.AccountID
	Collector token.AccountID
	Version   string
	Token     token.Transferable
	EvHandler EventHandler
}

// Vault manages deposited balances under the active fee strategy.
type Vault struct {
	mu sync.Mutex

	account   token.AccountID
	collector token.AccountID
	token     token.Transferable

	balances map[token.AccountID]uint64
	total    uint64
	strategy Strategy

	evHandler EventHandler
}

// New constructs a vault running the specified strategy version.
func New(cfg Config) (*Vault, error) {
	if cfg.Token == nil {
		return nil, errors.New("vault requires a token ledger")
	}

	strategy, err := Retrieve(cfg.Version)
	if err != nil {
		return nil, err
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	v := Vault{
		account:   cfg.Account,
		collector: cfg.Collector,
		token:     cfg.Token,
		balances:  make(map[token.AccountID]uint64),
		strategy:  strategy,
		evHandler: ev,
	}

	return &v, nil
}

// =============================================================================

// Version returns the version of the active strategy.
func (v *Vault) Version() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.strategy.Version()
}

// BalanceOf returns the vault balance credited to the specified account.
func (v *Vault) BalanceOf(account token.AccountID) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.balances[account]
}

// Total returns the total credited across all accounts.
func (v *Vault) Total() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.total
}

// Deposit moves the amount into the vault account and credits the
// depositor net of the active strategy's fee, which goes to the
// collector.
func (v *Vault) Deposit(depositor token.AccountID, amount uint64) (credited uint64, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if amount == 0 {
		return 0, ErrZeroAmount
	}

	fee := v.strategy.FeeOn(amount)
	if fee >= amount {
		return 0, ErrZeroAfterFee
	}
	credited = amount - fee

	if err := v.token.Transfer(depositor, v.account, credited); err != nil {
		return 0, err
	}
	if fee > 0 {
		if err := v.token.Transfer(depositor, v.collector, fee); err != nil {

			// Unwind the first leg so a failed deposit leaves no
			// partial effects behind.
			if err2 := v.token.Transfer(v.account, depositor, credited); err2 != nil {
				return 0, err2
			}
			return 0, err
		}
	}

	v.balances[depositor] += credited
	v.total += credited

	v.evHandler("vault: deposit: depositor[%s] amount[%d] fee[%d] strategy[%s]", depositor, amount, fee, v.strategy.Version())

	return credited, nil
}

// Withdraw moves previously credited funds back to the depositor.
func (v *Vault) Withdraw(depositor token.AccountID, amount uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if amount == 0 {
		return ErrZeroAmount
	}
	if v.balances[depositor] < amount {
		return ErrInsufficientBal
	}

	if err := v.token.Transfer(v.account, depositor, amount); err != nil {
		return err
	}

	v.balances[depositor] -= amount
	v.total -= amount

	v.evHandler("vault: withdraw: depositor[%s] amount[%d]", depositor, amount)

	return nil
}

// Migrate swaps the active strategy for the specified version. The
// credited balances are untouched: state and logic are separate on
// purpose.
func (v *Vault) Migrate(toVersion string) error {
	strategy, err := Retrieve(toVersion)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	from := v.strategy.Version()
	v.strategy = strategy

	v.evHandler("vault: migrate: from[%s] to[%s]", from, toVersion)

	return nil
}
