package token_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/common"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	alice = token.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	bob   = token.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	carol = token.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
)

func testDomain() signature.Domain {
	return signature.Domain{
		Name:              "Ardan Token",
		Version:           "1",
		ChainID:           1,
		VerifyingContract: common.HexToAddress("0x0000000000000000000000000000000000000001"),
	}
}

func newLedger(t *testing.T, balances map[string]uint64) *token.Ledger {
	t.Helper()

	l, err := token.New(token.Config{
		Name:     "Ardan Token",
		Symbol:   "ARD",
		Domain:   testDomain(),
		Balances: balances,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the ledger: %v", failed, err)
	}

	return l
}

// =============================================================================

func Test_Transfers(t *testing.T) {
	type table struct {
		name     string
		balances map[string]uint64
		from     token.AccountID
		to       token.AccountID
		amount   uint64
		err      error
		final    map[token.AccountID]uint64
	}

	tt := []table{
		{
			name:     "basic",
			balances: map[string]uint64{string(alice): 1000, string(bob): 0},
			from:     alice,
			to:       bob,
			amount:   400,
			final:    map[token.AccountID]uint64{alice: 600, bob: 400},
		},
		{
			name:     "insufficient",
			balances: map[string]uint64{string(alice): 100},
			from:     alice,
			to:       bob,
			amount:   101,
			err:      token.ErrInsufficientFunds,
			final:    map[token.AccountID]uint64{alice: 100, bob: 0},
		},
		{
			name:     "zeroamount",
			balances: map[string]uint64{string(alice): 100},
			from:     alice,
			to:       bob,
			amount:   0,
			err:      token.ErrZeroAmount,
			final:    map[token.AccountID]uint64{alice: 100, bob: 0},
		},
	}

	t.Log("Given the need to move funds between accounts.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s transfer.", testID, tst.name)
			{
				f := func(t *testing.T) {
					l := newLedger(t, tst.balances)

					err := l.Transfer(tst.from, tst.to, tst.amount)
					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould get error %v: got %v", failed, testID, tst.err, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected transfer result.", success, testID)

					for account, exp := range tst.final {
						if got := l.BalanceOf(account); got != exp {
							t.Errorf("\t%s\tTest %d:\tShould have balance %d for %s, got %d.", failed, testID, exp, account, got)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould have the expected final balances.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Allowances(t *testing.T) {
	t.Log("Given the need to move funds on a previously granted allowance.")
	{
		t.Logf("\tTest 0:\tWhen approving and spending an allowance.")
		{
			l := newLedger(t, map[string]uint64{string(alice): 1000})

			if err := l.Approve(alice, bob, 300); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to approve a spender: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to approve a spender.", success)

			if err := l.TransferFrom(bob, alice, carol, 200); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to spend within the allowance: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to spend within the allowance.", success)

			if got := l.Allowance(alice, bob); got != 100 {
				t.Fatalf("\t%s\tTest 0:\tShould have the allowance reduced to 100, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould have the allowance reduced by the amount moved.", success)

			if err := l.TransferFrom(bob, alice, carol, 101); !errors.Is(err, token.ErrInsufficientAllowance) {
				t.Fatalf("\t%s\tTest 0:\tShould reject spending beyond the allowance: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject spending beyond the allowance.", success)

			if got := l.BalanceOf(carol); got != 200 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the recipient with 200, got %d.", failed, got)
			}
			if got := l.BalanceOf(alice); got != 800 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the owner with 800, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould leave balances consistent after a rejected spend.", success)
		}
	}
}

func Test_MintBurn(t *testing.T) {
	t.Log("Given the need to create and destroy supply.")
	{
		t.Logf("\tTest 0:\tWhen minting and burning against one account.")
		{
			l := newLedger(t, map[string]uint64{string(alice): 500})

			if err := l.Mint(bob, 250); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mint new tokens: %v", failed, err)
			}
			if got := l.TotalSupply(); got != 750 {
				t.Fatalf("\t%s\tTest 0:\tShould have total supply 750, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould grow the total supply on mint.", success)

			if err := l.Burn(bob, 100); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to burn tokens: %v", failed, err)
			}
			if got := l.TotalSupply(); got != 650 {
				t.Fatalf("\t%s\tTest 0:\tShould have total supply 650, got %d.", failed, got)
			}
			if got := l.BalanceOf(bob); got != 150 {
				t.Fatalf("\t%s\tTest 0:\tShould have balance 150, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould shrink the total supply on burn.", success)

			if err := l.Burn(bob, 151); !errors.Is(err, token.ErrInsufficientFunds) {
				t.Fatalf("\t%s\tTest 0:\tShould reject burning more than the balance: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject burning more than the balance.", success)
		}
	}
}

func Test_OverflowChecks(t *testing.T) {
	t.Log("Given the need to fail loudly on unsigned overflow.")
	{
		t.Logf("\tTest 0:\tWhen balances approach the top of the range.")
		{
			l := newLedger(t, map[string]uint64{string(alice): math.MaxUint64})

			if err := l.Mint(bob, 1); !errors.Is(err, token.ErrOverflow) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a mint that overflows total supply: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a mint that overflows total supply.", success)

			if got := l.TotalSupply(); got != math.MaxUint64 {
				t.Fatalf("\t%s\tTest 0:\tShould leave supply untouched after a rejected mint.", failed)
			}
			if got := l.BalanceOf(bob); got != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the target balance untouched after a rejected mint.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave no partial effects after a rejected mint.", success)
		}

		t.Logf("\tTest 1:\tWhen genesis balances overflow in aggregate.")
		{
			_, err := token.New(token.Config{
				Name:   "Ardan Token",
				Symbol: "ARD",
				Domain: testDomain(),
				Balances: map[string]uint64{
					string(alice): math.MaxUint64,
					string(bob):   1,
				},
			})
			if !errors.Is(err, token.ErrOverflow) {
				t.Fatalf("\t%s\tTest 1:\tShould reject genesis balances that overflow: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject genesis balances that overflow.", success)
		}
	}
}

func Test_AccountIDs(t *testing.T) {
	type table struct {
		name  string
		hex   string
		valid bool
	}

	tt := []table{
		{name: "checksummed", hex: "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", valid: true},
		{name: "lowercase", hex: "0xdd6b972ffcc631a62cae1bb9d80b7ff429c8eba4", valid: true},
		{name: "noprefix", hex: "dd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", valid: true},
		{name: "short", hex: "0xdd6B97", valid: false},
		{name: "nothex", hex: "0xzz6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", valid: false},
		{name: "empty", hex: "", valid: false},
	}

	t.Log("Given the need to validate and canonicalize account ids.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s id.", testID, tst.name)
			{
				f := func(t *testing.T) {
					accountID, err := token.ToAccountID(tst.hex)
					if tst.valid && err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould accept the id: %v", failed, testID, err)
					}
					if !tst.valid && err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould reject the id.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected validation result.", success, testID)

					if tst.valid && accountID != alice {
						t.Fatalf("\t%s\tTest %d:\tShould canonicalize to the checksummed form, got %s.", failed, testID, accountID)
					}
				}

				t.Run(tst.name, f)
			}
		}
	}
}
