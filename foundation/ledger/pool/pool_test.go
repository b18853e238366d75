package pool_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ardanlabs/ledger/foundation/ledger/pool"
	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	trader   = token.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	provider = token.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	poolAcct = token.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
)

// newPool constructs a pool over two fresh token ledgers where the
// provider and trader both start with funds in each asset.
func newPool(t *testing.T, funds uint64) (*pool.Pool, *token.Ledger, *token.Ledger) {
	t.Helper()

	newLedger := func(symbol string) *token.Ledger {
		l, err := token.New(token.Config{
			Name:   "Ardan " + symbol,
			Symbol: symbol,
			Domain: signature.Domain{
				Name:              "Ardan " + symbol,
				Version:           "1",
				ChainID:           1,
				VerifyingContract: common.HexToAddress("0x0000000000000000000000000000000000000001"),
			},
			Balances: map[string]uint64{
				string(trader):   funds,
				string(provider): funds,
			},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the %s ledger: %v", failed, symbol, err)
		}

		return l
	}

	asset0 := newLedger("ARD0")
	asset1 := newLedger("ARD1")

	p, err := pool.New(pool.Config{
		Account: poolAcct,
		Asset0:  asset0,
		Asset1:  asset1,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the pool: %v", failed, err)
	}

	return p, asset0, asset1
}

// =============================================================================

func Test_FirstDeposit(t *testing.T) {
	t.Log("Given the need to issue shares for the first deposit into an empty pool.")
	{
		t.Logf("\tTest 0:\tWhen depositing 1000 and 500.")
		{
			p, asset0, asset1 := newPool(t, 1_000_000)

			shares, err := p.AddLiquidity(provider, 1000, 500)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to add liquidity: %v", failed, err)
			}
			t.Logf("\t\t%s\tShould be able to add liquidity.", success)

			// floor(sqrt(1000 * 500)) = floor(sqrt(500000)) = 707
			if shares != 707 {
				t.Fatalf("\t\t%s\tShould issue 707 shares: got %d", failed, shares)
			}
			t.Logf("\t\t%s\tShould issue 707 shares.", success)

			r0, r1 := p.Reserves()
			if r0 != 1000 || r1 != 500 {
				t.Fatalf("\t\t%s\tShould hold reserves (1000, 500): got (%d, %d)", failed, r0, r1)
			}
			t.Logf("\t\t%s\tShould hold reserves (1000, 500).", success)

			if bal := asset0.BalanceOf(poolAcct); bal != 1000 {
				t.Fatalf("\t\t%s\tShould hold 1000 of asset0 in the pool account: got %d", failed, bal)
			}
			if bal := asset1.BalanceOf(poolAcct); bal != 500 {
				t.Fatalf("\t\t%s\tShould hold 500 of asset1 in the pool account: got %d", failed, bal)
			}
			t.Logf("\t\t%s\tShould hold the deposit in the pool account.", success)
		}
	}
}

func Test_SwapScenario(t *testing.T) {
	t.Log("Given the need to price swaps along the constant product curve.")
	{
		t.Logf("\tTest 0:\tWhen swapping 100 of asset0 against reserves (1000, 500).")
		{
			p, _, _ := newPool(t, 1_000_000)

			if _, err := p.AddLiquidity(provider, 1000, 500); err != nil {
				t.Fatalf("\t\t%s\tShould be able to add liquidity: %v", failed, err)
			}

			// effectiveIn = 100 * 997 / 1000 = 99 (truncated)
			// out = 500 * 99 / (1000 + 99) = 45 (truncated)
			out, err := p.Swap(trader, "ARD0", 100)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to swap: %v", failed, err)
			}
			t.Logf("\t\t%s\tShould be able to swap.", success)

			if out != 45 {
				t.Fatalf("\t\t%s\tShould receive 45 of asset1: got %d", failed, out)
			}
			t.Logf("\t\t%s\tShould receive 45 of asset1.", success)

			r0, r1 := p.Reserves()
			if r0 != 1100 || r1 != 455 {
				t.Fatalf("\t\t%s\tShould hold reserves (1100, 455): got (%d, %d)", failed, r0, r1)
			}
			t.Logf("\t\t%s\tShould hold reserves (1100, 455).", success)
		}

		t.Logf("\tTest 1:\tWhen swapping in the other direction.")
		{
			p, _, _ := newPool(t, 1_000_000)

			if _, err := p.AddLiquidity(provider, 1000, 500); err != nil {
				t.Fatalf("\t\t%s\tShould be able to add liquidity: %v", failed, err)
			}

			// effectiveIn = 50 * 997 / 1000 = 49
			// out = 1000 * 49 / (500 + 49) = 89
			out, err := p.Swap(trader, "ARD1", 50)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to swap: %v", failed, err)
			}

			if out != 89 {
				t.Fatalf("\t\t%s\tShould receive 89 of asset0: got %d", failed, out)
			}
			t.Logf("\t\t%s\tShould receive 89 of asset0.", success)
		}
	}
}

func Test_RemoveLiquidity(t *testing.T) {
	t.Log("Given the need to pay out reserves pro-rata when shares are burned.")
	{
		t.Logf("\tTest 0:\tWhen withdrawing all outstanding shares after a swap.")
		{
			p, asset0, asset1 := newPool(t, 1_000_000)

			shares, err := p.AddLiquidity(provider, 1000, 500)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to add liquidity: %v", failed, err)
			}

			if _, err := p.Swap(trader, "ARD0", 100); err != nil {
				t.Fatalf("\t\t%s\tShould be able to swap: %v", failed, err)
			}

			amount0, amount1, err := p.RemoveLiquidity(provider, shares)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to remove liquidity: %v", failed, err)
			}
			t.Logf("\t\t%s\tShould be able to remove liquidity.", success)

			// All shares burn, so the payout is the full actual balances
			// including the captured fee.
			if amount0 != 1100 || amount1 != 455 {
				t.Fatalf("\t\t%s\tShould pay out (1100, 455): got (%d, %d)", failed, amount0, amount1)
			}
			t.Logf("\t\t%s\tShould pay out (1100, 455).", success)

			if total := p.TotalShares(); total != 0 {
				t.Fatalf("\t\t%s\tShould leave zero total supply: got %d", failed, total)
			}
			t.Logf("\t\t%s\tShould leave zero total supply.", success)

			if bal := asset0.BalanceOf(poolAcct); bal != 0 {
				t.Fatalf("\t\t%s\tShould drain the pool account of asset0: got %d", failed, bal)
			}
			if bal := asset1.BalanceOf(poolAcct); bal != 0 {
				t.Fatalf("\t\t%s\tShould drain the pool account of asset1: got %d", failed, bal)
			}
			t.Logf("\t\t%s\tShould drain the pool account.", success)
		}
	}
}

func Test_PoolErrors(t *testing.T) {
	type table struct {
		name string
		fn   func(p *pool.Pool) error
		err  error
	}

	tt := []table{
		{
			name: "unknownasset",
			fn: func(p *pool.Pool) error {
				_, err := p.Swap(trader, "BOGUS", 100)
				return err
			},
			err: pool.ErrUnknownAsset,
		},
		{
			name: "zeroswap",
			fn: func(p *pool.Pool) error {
				_, err := p.Swap(trader, "ARD0", 0)
				return err
			},
			err: pool.ErrZeroAmount,
		},
		{
			name: "zerodeposit",
			fn: func(p *pool.Pool) error {
				_, err := p.AddLiquidity(provider, 0, 500)
				return err
			},
			err: pool.ErrZeroAmount,
		},
		{
			name: "wrongratio",
			fn: func(p *pool.Pool) error {
				_, err := p.AddLiquidity(provider, 1000, 501)
				return err
			},
			err: pool.ErrWrongRatio,
		},
		{
			name: "zerowithdraw",
			fn: func(p *pool.Pool) error {
				_, _, err := p.RemoveLiquidity(provider, 0)
				return err
			},
			err: pool.ErrZeroAmount,
		},
		{
			name: "toomanyshares",
			fn: func(p *pool.Pool) error {
				_, _, err := p.RemoveLiquidity(provider, 708)
				return err
			},
			err: pool.ErrInsufficientShares,
		},
		{
			name: "zerooutputswap",
			fn: func(p *pool.Pool) error {

				// One unit scales to zero effective input, so the curve
				// yields nothing.
				_, err := p.Swap(trader, "ARD0", 1)
				return err
			},
			err: pool.ErrZeroOutput,
		},
	}

	t.Log("Given the need to reject invalid pool operations with distinct errors.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s case.", testID, tst.name)
			{
				p, _, _ := newPool(t, 1_000_000)

				if _, err := p.AddLiquidity(provider, 1000, 500); err != nil {
					t.Fatalf("\t\t%s\tShould be able to seed the pool: %v", failed, err)
				}

				err := tst.fn(p)
				if !errors.Is(err, tst.err) {
					t.Fatalf("\t\t%s\tShould get error %v: got %v", failed, tst.err, err)
				}
				t.Logf("\t\t%s\tShould get error %v.", success, tst.err)
			}
		}
	}
}

func Test_SecondDeposit(t *testing.T) {
	t.Log("Given the need to issue proportional shares for ratio-matched deposits.")
	{
		t.Logf("\tTest 0:\tWhen doubling the pool at the exact ratio.")
		{
			p, _, _ := newPool(t, 1_000_000)

			first, err := p.AddLiquidity(provider, 1000, 500)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to seed the pool: %v", failed, err)
			}

			second, err := p.AddLiquidity(trader, 2000, 1000)
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to add at the reserve ratio: %v", failed, err)
			}
			t.Logf("\t\t%s\tShould be able to add at the reserve ratio.", success)

			// 2000 * 707 / 1000 == 1000 * 707 / 500 == 1414
			if second != 2*first {
				t.Fatalf("\t\t%s\tShould issue exactly double the shares: got %d, want %d", failed, second, 2*first)
			}
			t.Logf("\t\t%s\tShould issue exactly double the shares.", success)
		}
	}
}

// =============================================================================

// FuzzSwapProduct checks the fee retention invariant: every accepted
// swap must leave the reserve product at or above 99.7% of what it was.
func FuzzSwapProduct(f *testing.F) {
	seeds := []uint64{1, 10, 334, 1000, 50_000, 99_000, 500_000, 1_000_000}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, amountIn uint64) {

		// Keep the trade within the trader's funds.
		const reserve = 1_000_000
		if amountIn == 0 || amountIn > reserve {
			return
		}

		p, _, _ := newPool(t, 10_000_000)

		_, err := p.AddLiquidity(provider, reserve, reserve/2)
		require.NoError(t, err)

		r0, r1 := p.Reserves()
		before := new(big.Int).Mul(new(big.Int).SetUint64(r0), new(big.Int).SetUint64(r1))

		out, err := p.Swap(trader, "ARD0", amountIn)
		if errors.Is(err, pool.ErrZeroOutput) {
			return
		}
		require.NoError(t, err)
		require.Positive(t, out)

		r0, r1 = p.Reserves()
		after := new(big.Int).Mul(new(big.Int).SetUint64(r0), new(big.Int).SetUint64(r1))

		// after * 1000 >= before * 997
		lhs := new(big.Int).Mul(after, big.NewInt(1000))
		rhs := new(big.Int).Mul(before, big.NewInt(997))
		require.True(t, lhs.Cmp(rhs) >= 0, "product fell below the fee retention floor: before %s after %s", before, after)

		// The output side can never be drained.
		require.Less(t, out, reserve/2+uint64(1))
	})
}

// =============================================================================

// faultyAsset wraps an asset and rejects transfers out of one account
// once armed, standing in for a ledger that fails mid operation.
type faultyAsset struct {
	pool.Asset
	armed    bool
	failFrom token.AccountID
}

func (a *faultyAsset) Transfer(from, to token.AccountID, amount uint64) error {
	if a.armed && from == a.failFrom {
		return errors.New("ledger unavailable")
	}
	return a.Asset.Transfer(from, to, amount)
}

func Test_SwapUnwind(t *testing.T) {
	t.Log("Given the need to leave no partial effects when a swap fails mid flight.")
	{
		t.Logf("\tTest 0:\tWhen the output leg of a swap fails after the input leg settled.")
		{
			newLedgerFor := func(symbol string) *token.Ledger {
				l, err := token.New(token.Config{
					Name:   "Ardan " + symbol,
					Symbol: symbol,
					Domain: signature.Domain{
						Name:              "Ardan " + symbol,
						Version:           "1",
						ChainID:           1,
						VerifyingContract: common.HexToAddress("0x0000000000000000000000000000000000000001"),
					},
					Balances: map[string]uint64{
						string(trader):   1_000_000,
						string(provider): 1_000_000,
					},
				})
				if err != nil {
					t.Fatalf("\t\t%s\tShould be able to construct the %s ledger: %v", failed, symbol, err)
				}
				return l
			}

			asset0 := newLedgerFor("ARD0")
			asset1 := newLedgerFor("ARD1")
			faulty := &faultyAsset{Asset: asset1, failFrom: poolAcct}

			p, err := pool.New(pool.Config{
				Account: poolAcct,
				Asset0:  asset0,
				Asset1:  faulty,
			})
			if err != nil {
				t.Fatalf("\t\t%s\tShould be able to construct the pool: %v", failed, err)
			}

			if _, err := p.AddLiquidity(provider, 1000, 500); err != nil {
				t.Fatalf("\t\t%s\tShould be able to add liquidity: %v", failed, err)
			}

			faulty.armed = true

			if _, err := p.Swap(trader, "ARD0", 100); err == nil {
				t.Fatalf("\t\t%s\tShould fail the swap when the output leg fails.", failed)
			}
			t.Logf("\t\t%s\tShould fail the swap when the output leg fails.", success)

			if bal := asset0.BalanceOf(trader); bal != 1_000_000 {
				t.Fatalf("\t\t%s\tShould return the input funds to the trader: got %d", failed, bal)
			}
			t.Logf("\t\t%s\tShould return the input funds to the trader.", success)

			if bal := asset0.BalanceOf(poolAcct); bal != 1000 {
				t.Fatalf("\t\t%s\tShould leave the pool holding only its reserves: got %d", failed, bal)
			}
			t.Logf("\t\t%s\tShould leave the pool holding only its reserves.", success)

			r0, r1 := p.Reserves()
			if r0 != 1000 || r1 != 500 {
				t.Fatalf("\t\t%s\tShould leave the reserves at (1000, 500): got (%d, %d)", failed, r0, r1)
			}
			t.Logf("\t\t%s\tShould leave the reserves at (1000, 500).", success)
		}
	}
}
