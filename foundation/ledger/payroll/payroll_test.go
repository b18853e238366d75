package payroll_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/ledger/payroll"
	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	fund     = token.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
	employee = token.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
)

const employerHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

var testDomain = signature.Domain{
	Name:              "Ardan Payroll",
	Version:           "1",
	ChainID:           1,
	VerifyingContract: common.HexToAddress("0x0000000000000000000000000000000000000001"),
}

// =============================================================================

func Test_Claim(t *testing.T) {
	t.Log("Given the need to pay a signed pay stub exactly once.")
	{
		t.Logf("\tTest 0:\tWhen claiming period 202505 for 1100 tokens.")
		{
			privateKey, err := crypto.HexToECDSA(employerHexKey)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to parse the employer key: %v", failed, err)
			}
			employer := token.PublicKeyToAccountID(privateKey.PublicKey)

			ledger, err := token.New(token.Config{
				Name:     "Ardan Token",
				Symbol:   "ARD",
				Domain:   testDomain,
				Balances: map[string]uint64{string(fund): 10_000},
			})
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to construct the ledger: %v", failed, err)
			}

			pr, err := payroll.New(payroll.Config{
				Employer: employer,
				Fund:     fund,
				Domain:   testDomain,
				Token:    ledger,
			})
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to construct the payroll: %v", failed, err)
			}

			const period = 202505
			const amount = 1100

			sig, err := signature.Sign(pr.Digest(employee, period, amount), privateKey)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to sign the pay stub: %v", failed, err)
			}

			if err := pr.Claim(employee, period, amount, sig); err != nil {
				t.Fatalf("\t\t%s\tShould be able to claim the pay stub: %v", failed, err)
			}
			t.Logf("\t\t%s\tShould be able to claim the pay stub.", success)

			if bal := ledger.BalanceOf(employee); bal != amount {
				t.Fatalf("\t\t%s\tShould credit the employee with %d: got %d", failed, amount, bal)
			}
			t.Logf("\t\t%s\tShould credit the employee with %d.", success, amount)

			if !pr.Claimed(employee, period) {
				t.Fatalf("\t\t%s\tShould report the period as claimed.", failed)
			}
			t.Logf("\t\t%s\tShould report the period as claimed.", success)

			// The latch is permanent, so the same stub can never pay twice.
			if err := pr.Claim(employee, period, amount, sig); !errors.Is(err, payroll.ErrPeriodClaimed) {
				t.Fatalf("\t\t%s\tShould get ErrPeriodClaimed on resubmission: got %v", failed, err)
			}
			t.Logf("\t\t%s\tShould get ErrPeriodClaimed on resubmission.", success)
		}

		t.Logf("\tTest 1:\tWhen the stub is not signed by the employer.")
		{
			privateKey, err := crypto.HexToECDSA(employerHexKey)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to parse the employer key: %v", failed, err)
			}

			ledger, err := token.New(token.Config{
				Name:     "Ardan Token",
				Symbol:   "ARD",
				Domain:   testDomain,
				Balances: map[string]uint64{string(fund): 10_000},
			})
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to construct the ledger: %v", failed, err)
			}

			// Bind the payroll to a different employer than the key that
			// will sign.
			pr, err := payroll.New(payroll.Config{
				Employer: fund,
				Fund:     fund,
				Domain:   testDomain,
				Token:    ledger,
			})
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to construct the payroll: %v", failed, err)
			}

			sig, err := signature.Sign(pr.Digest(employee, 202505, 1100), privateKey)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to sign the pay stub: %v", failed, err)
			}

			if err := pr.Claim(employee, 202505, 1100, sig); !errors.Is(err, signature.ErrWrongSigner) {
				t.Fatalf("\t\t%s\tShould get ErrWrongSigner: got %v", failed, err)
			}
			t.Logf("\t\t%s\tShould get ErrWrongSigner.", success)

			if pr.Claimed(employee, 202505) {
				t.Fatalf("\t\t%s\tShould leave the period unclaimed after a failed claim.", failed)
			}
			t.Logf("\t\t%s\tShould leave the period unclaimed after a failed claim.", success)
		}

		t.Logf("\tTest 2:\tWhen the payload is mutated after signing.")
		{
			privateKey, err := crypto.HexToECDSA(employerHexKey)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to parse the employer key: %v", failed, err)
			}
			employer := token.PublicKeyToAccountID(privateKey.PublicKey)

			ledger, err := token.New(token.Config{
				Name:     "Ardan Token",
				Symbol:   "ARD",
				Domain:   testDomain,
				Balances: map[string]uint64{string(fund): 10_000},
			})
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to construct the ledger: %v", failed, err)
			}

			pr, err := payroll.New(payroll.Config{
				Employer: employer,
				Fund:     fund,
				Domain:   testDomain,
				Token:    ledger,
			})
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to construct the payroll: %v", failed, err)
			}

			sig, err := signature.Sign(pr.Digest(employee, 202505, 1100), privateKey)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to sign the pay stub: %v", failed, err)
			}

			// Claiming a different amount under the same signature must
			// recover a different signer.
			if err := pr.Claim(employee, 202505, 1101, sig); !errors.Is(err, signature.ErrWrongSigner) {
				t.Fatalf("\t\t%s\tShould get ErrWrongSigner for a mutated amount: got %v", failed, err)
			}
			t.Logf("\t\t%s\tShould get ErrWrongSigner for a mutated amount.", success)
		}
	}
}
