package vault_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ardanlabs/ledger/foundation/ledger/vault"
	"github.com/ethereum/go-ethereum/common"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	depositor = token.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	vaultAcct = token.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	collector = token.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
)

func newVault(t *testing.T, version string) (*vault.Vault, *token.Ledger) {
	t.Helper()

	ledger, err := token.New(token.Config{
		Name:   "Ardan Token",
		Symbol: "ARD",
		Domain: signature.Domain{
			Name:              "Ardan Token",
			Version:           "1",
			ChainID:           1,
			VerifyingContract: common.HexToAddress("0x0000000000000000000000000000000000000001"),
		},
		Balances: map[string]uint64{string(depositor): 1_000_000},
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the ledger: %v", failed, err)
	}

	v, err := vault.New(vault.Config{
		Account:   vaultAcct,
		Collector: collector,
		Version:   version,
		Token:     ledger,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the vault: %v", failed, err)
	}

	return v, ledger
}

// =============================================================================

func Test_Strategies(t *testing.T) {
	t.Log("Given the need to run deposits under a versioned fee strategy.")
	{
		t.Logf("\tTest 0:\tWhen depositing 10000 under v1.")
		{
			v, ledger := newVault(t, vault.VersionV1)

			credited, err := v.Deposit(depositor, 10_000)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to deposit: %v", failed, err)
			}

			if credited != 10_000 {
				t.Fatalf("\t\t%s\tShould credit the full amount under v1: got %d", failed, credited)
			}
			t.Logf("\t\t%s\tShould credit the full amount under v1.", success)

			if bal := ledger.BalanceOf(collector); bal != 0 {
				t.Fatalf("\t\t%s\tShould pay no fee under v1: got %d", failed, bal)
			}
			t.Logf("\t\t%s\tShould pay no fee under v1.", success)
		}

		t.Logf("\tTest 1:\tWhen depositing 10000 under v2.")
		{
			v, ledger := newVault(t, vault.VersionV2)

			credited, err := v.Deposit(depositor, 10_000)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to deposit: %v", failed, err)
			}

			// 30 bps of 10000 is 30.
			if credited != 9_970 {
				t.Fatalf("\t\t%s\tShould credit 9970 under v2: got %d", failed, credited)
			}
			t.Logf("\t\t%s\tShould credit 9970 under v2.", success)

			if bal := ledger.BalanceOf(collector); bal != 30 {
				t.Fatalf("\t\t%s\tShould pay a 30 token fee to the collector: got %d", failed, bal)
			}
			t.Logf("\t\t%s\tShould pay a 30 token fee to the collector.", success)
		}

		t.Logf("\tTest 2:\tWhen migrating from v1 to v2 with funds in place.")
		{
			v, _ := newVault(t, vault.VersionV1)

			if _, err := v.Deposit(depositor, 10_000); err != nil {
				t.Fatalf("\t\t%s\tShould be able to deposit: %v", failed, err)
			}

			if err := v.Migrate(vault.VersionV2); err != nil {
				t.Fatalf("\t\t%s\tShould be able to migrate: %v", failed, err)
			}
			t.Logf("\t\t%s\tShould be able to migrate.", success)

			if got := v.Version(); got != vault.VersionV2 {
				t.Fatalf("\t\t%s\tShould report version v2: got %s", failed, got)
			}
			t.Logf("\t\t%s\tShould report version v2.", success)

			// Migration swaps logic only. The credited balance stays.
			if bal := v.BalanceOf(depositor); bal != 10_000 {
				t.Fatalf("\t\t%s\tShould keep the credited balance across migration: got %d", failed, bal)
			}
			t.Logf("\t\t%s\tShould keep the credited balance across migration.", success)

			if err := v.Withdraw(depositor, 10_000); err != nil {
				t.Fatalf("\t\t%s\tShould be able to withdraw after migration: %v", failed, err)
			}
			t.Logf("\t\t%s\tShould be able to withdraw after migration.", success)
		}

		t.Logf("\tTest 3:\tWhen using an unknown version.")
		{
			v, _ := newVault(t, vault.VersionV1)

			if err := v.Migrate("v99"); !errors.Is(err, vault.ErrUnknownVersion) {
				t.Fatalf("\t\t%s\tShould get ErrUnknownVersion: got %v", failed, err)
			}
			t.Logf("\t\t%s\tShould get ErrUnknownVersion.", success)
		}

		t.Logf("\tTest 4:\tWhen withdrawing more than credited.")
		{
			v, _ := newVault(t, vault.VersionV1)

			if _, err := v.Deposit(depositor, 100); err != nil {
				t.Fatalf("\t\t%s\tShould be able to deposit: %v", failed, err)
			}

			if err := v.Withdraw(depositor, 101); !errors.Is(err, vault.ErrInsufficientBal) {
				t.Fatalf("\t\t%s\tShould get ErrInsufficientBal: got %v", failed, err)
			}
			t.Logf("\t\t%s\tShould get ErrInsufficientBal.", success)
		}
	}
}
