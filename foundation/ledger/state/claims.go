package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/ledger/merkle"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/common"
)

// Set of errors for unconfigured components.
var (
	ErrNoPayroll = errors.New("no payroll is configured")
	ErrNoAirdrop = errors.New("no airdrop is configured")
)

// SubmitPayrollClaim pays a signed pay stub to the employee.
func (s *State) SubmitPayrollClaim(employee token.AccountID, period uint64, amount uint64, sig []byte) error {
	if s.payroll == nil {
		return ErrNoPayroll
	}

	if err := s.payroll.Claim(employee, period, amount, sig); err != nil {
		return err
	}

	s.record("payroll_claim", employee, amount, map[string]string{
		"period": fmt.Sprintf("%d", period),
	})

	return nil
}

// PayrollClaimed reports whether the employee was paid for the period.
func (s *State) PayrollClaimed(employee token.AccountID, period uint64) (bool, error) {
	if s.payroll == nil {
		return false, ErrNoPayroll
	}

	return s.payroll.Claimed(employee, period), nil
}

// PayrollEmployer returns the account whose signature authorizes pay
// stubs.
func (s *State) PayrollEmployer() (token.AccountID, error) {
	if s.payroll == nil {
		return "", ErrNoPayroll
	}

	return s.payroll.Employer(), nil
}

// =============================================================================

// SubmitAirdropClaim pays a committed award against its merkle proof.
func (s *State) SubmitAirdropClaim(account token.AccountID, amount uint64, proof []common.Hash) error {
	if s.distributor == nil {
		return ErrNoAirdrop
	}

	if err := s.distributor.Claim(account, amount, proof); err != nil {
		return err
	}

	s.record("airdrop_claim", account, amount, nil)

	return nil
}

// AirdropProof returns the proof the specified account needs to claim
// its award.
func (s *State) AirdropProof(account token.AccountID) (amount uint64, proof []common.Hash, err error) {
	if s.airdrop == nil {
		return 0, nil, ErrNoAirdrop
	}

	amount, exists := s.awards[account]
	if !exists {
		return 0, nil, merkle.ErrUnknownLeaf
	}

	leaf := merkle.Award{Account: account, Amount: amount}.Leaf()
	proof, err = s.airdrop.Prove(leaf)
	if err != nil {
		return 0, nil, err
	}

	return amount, proof, nil
}

// AirdropRoot returns the root the distributor pays against.
func (s *State) AirdropRoot() (common.Hash, error) {
	if s.distributor == nil {
		return common.Hash{}, ErrNoAirdrop
	}

	return s.distributor.Root(), nil
}
