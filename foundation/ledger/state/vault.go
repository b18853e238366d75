package state

import (
	"errors"

	"github.com/ardanlabs/ledger/foundation/ledger/token"
)

// ErrNoVault is returned when the genesis document did not configure a
// vault.
var ErrNoVault = errors.New("no vault is configured")

// VaultDeposit credits the depositor net of the active strategy's fee.
func (s *State) VaultDeposit(depositor token.AccountID, amount uint64) (credited uint64, err error) {
	if s.vault == nil {
		return 0, ErrNoVault
	}

	credited, err = s.vault.Deposit(depositor, amount)
	if err != nil {
		return 0, err
	}

	s.record("vault_deposit", depositor, credited, map[string]string{
		"strategy": s.vault.Version(),
	})

	return credited, nil
}

// VaultWithdraw moves previously credited funds back to the depositor.
func (s *State) VaultWithdraw(depositor token.AccountID, amount uint64) error {
	if s.vault == nil {
		return ErrNoVault
	}

	if err := s.vault.Withdraw(depositor, amount); err != nil {
		return err
	}

	s.record("vault_withdraw", depositor, amount, nil)

	return nil
}

// VaultMigrate swaps the vault's fee strategy while its balances stay
// in place.
func (s *State) VaultMigrate(toVersion string) error {
	if s.vault == nil {
		return ErrNoVault
	}

	if err := s.vault.Migrate(toVersion); err != nil {
		return err
	}

	s.record("vault_migrate", "", 0, map[string]string{
		"to": toVersion,
	})

	return nil
}

// VaultVersion returns the version of the active strategy.
func (s *State) VaultVersion() (string, error) {
	if s.vault == nil {
		return "", ErrNoVault
	}

	return s.vault.Version(), nil
}

// VaultBalance returns the vault balance credited to the account.
func (s *State) VaultBalance(account token.AccountID) (uint64, error) {
	if s.vault == nil {
		return 0, ErrNoVault
	}

	return s.vault.BalanceOf(account), nil
}
