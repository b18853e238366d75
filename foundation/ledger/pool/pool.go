// Package pool implements a constant product market maker over two
// assets held in a token ledger. The pool prices swaps along the curve
// reserve0 * reserve1 = k, keeps a 0.3% fee inside the reserves, and
// issues fungible shares that represent proportional ownership of both
// reserves. Reserves are always re-read from the actual token balances
// after a transfer, so the pool self-corrects against any funds moved
// to it directly.
package pool

import (
	"errors"
	"math"
	"math/big"
	"sync"

	"github.com/ardanlabs/ledger/foundation/ledger/token"
)

// Fee applied to every swap. The effective input is scaled by
// feeMul/feeDen before the curve division. The order of operations is a
// behavioral contract: scale first and truncate, then divide and
// truncate. Changing the order changes rounding at the margin.
var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
)

// Set of errors for pool operations.
var (
	ErrUnknownAsset       = errors.New("asset is not in the pool")
	ErrZeroAmount         = errors.New("amount must be greater than zero")
	ErrWrongRatio         = errors.New("amounts do not match the reserve ratio")
	ErrZeroOutput         = errors.New("operation would produce a zero output")
	ErrZeroShares         = errors.New("deposit would issue zero shares")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrOverflow           = errors.New("pool arithmetic overflow")
)

// EventHandler defines a function that is called when events occur in
// the processing of pool operations.
type EventHandler func(v string, args ...any)

// =============================================================================

// Asset represents the behavior the pool needs from each token ledger
// that holds one of its reserves.
type Asset interface {
	Symbol() string
	BalanceOf(account token.AccountID) uint64
	Transfer(from, to token.AccountID, amount uint64) error
}

// Config represents the configuration required to construct a pool.
type Config struct {
	Account   token.AccountID
	Asset0    Asset
	Asset1    Asset
	EvHandler EventHandler
}

// Pool manages the reserves and share accounting for one two-asset
// market.
type Pool struct {
	mu sync.Mutex

	account token.AccountID
	asset0  Asset
	asset1  Asset

	reserve0    uint64
	reserve1    uint64
	shares      map[token.AccountID]uint64
	totalShares uint64

	evHandler EventHandler
}

// New constructs a pool with empty reserves over the two specified
// token ledgers. The pool holds its reserves in its own account on each
// ledger.
func New(cfg Config) (*Pool, error) {
	if cfg.Asset0 == nil || cfg.Asset1 == nil {
		return nil, errors.New("pool requires two token ledgers")
	}
	if cfg.Asset0.Symbol() == cfg.Asset1.Symbol() {
		return nil, errors.New("pool assets must differ")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	p := Pool{
		account:   cfg.Account,
		asset0:    cfg.Asset0,
		asset1:    cfg.Asset1,
		shares:    make(map[token.AccountID]uint64),
		evHandler: ev,
	}

	return &p, nil
}

// =============================================================================

// Account returns the account the pool holds its reserves in.
func (p *Pool) Account() token.AccountID {
	return p.account
}

// Assets returns the symbols of the two pool assets.
func (p *Pool) Assets() (string, string) {
	return p.asset0.Symbol(), p.asset1.Symbol()
}

// Reserves returns the current reserve balances.
func (p *Pool) Reserves() (reserve0 uint64, reserve1 uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.reserve0, p.reserve1
}

// SharesOf returns the share balance held by the specified provider.
func (p *Pool) SharesOf(provider token.AccountID) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.shares[provider]
}

// TotalShares returns the total number of shares issued.
func (p *Pool) TotalShares() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.totalShares
}

// =============================================================================

// Swap trades amountIn of the specified asset for the other pool asset
// along the constant product curve. The 0.3% fee is taken out of the
// input before the curve math, so it stays inside the reserves and
// accrues to the share holders.
func (p *Pool) Swap(trader token.AccountID, assetSymbol string, amountIn uint64) (amountOut uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amountIn == 0 {
		return 0, ErrZeroAmount
	}

	var assetIn, assetOut Asset
	var reserveIn, reserveOut uint64

	switch assetSymbol {
	case p.asset0.Symbol():
		assetIn, assetOut = p.asset0, p.asset1
		reserveIn, reserveOut = p.reserve0, p.reserve1
	case p.asset1.Symbol():
		assetIn, assetOut = p.asset1, p.asset0
		reserveIn, reserveOut = p.reserve1, p.reserve0
	default:
		return 0, ErrUnknownAsset
	}

	// effectiveIn = amountIn * 997 / 1000, truncated.
	effectiveIn := new(big.Int).SetUint64(amountIn)
	effectiveIn.Mul(effectiveIn, feeMul)
	effectiveIn.Quo(effectiveIn, feeDen)

	// amountOut = reserveOut * effectiveIn / (reserveIn + effectiveIn),
	// truncated.
	num := new(big.Int).SetUint64(reserveOut)
	num.Mul(num, effectiveIn)
	den := new(big.Int).SetUint64(reserveIn)
	den.Add(den, effectiveIn)
	if den.Sign() == 0 {
		return 0, ErrZeroOutput
	}
	out := num.Quo(num, den)

	amountOut, err = toUint64(out)
	if err != nil {
		return 0, err
	}
	if amountOut == 0 {
		return 0, ErrZeroOutput
	}

	// Move the input in and the output out, then trust the actual
	// balances over our own bookkeeping.
	if err := assetIn.Transfer(trader, p.account, amountIn); err != nil {
		return 0, err
	}
	if err := assetOut.Transfer(p.account, trader, amountOut); err != nil {

		// Unwind the input leg so a failed swap leaves no partial
		// effects behind.
		if err2 := assetIn.Transfer(p.account, trader, amountIn); err2 != nil {
			return 0, err2
		}
		return 0, err
	}

	p.syncReserves()

	p.evHandler("pool: swap: trader[%s] in[%d %s] out[%d %s]", trader, amountIn, assetIn.Symbol(), amountOut, assetOut.Symbol())

	return amountOut, nil
}

// AddLiquidity deposits both assets and issues shares. The first
// deposit into an empty pool sets the price and is issued the integer
// square root of the amount product. Later deposits must match the
// reserve ratio exactly, checked by cross multiplication so no division
// rounding can sneak a bad ratio through.
func (p *Pool) AddLiquidity(provider token.AccountID, amount0, amount1 uint64) (sharesIssued uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount0 == 0 || amount1 == 0 {
		return 0, ErrZeroAmount
	}

	switch {
	case p.totalShares == 0:

		// shares = isqrt(amount0 * amount1)
		product := new(big.Int).Mul(new(big.Int).SetUint64(amount0), new(big.Int).SetUint64(amount1))
		sharesIssued, err = toUint64(isqrt(product))
		if err != nil {
			return 0, err
		}

	default:

		// reserve0*amount1 == reserve1*amount0
		left := new(big.Int).Mul(new(big.Int).SetUint64(p.reserve0), new(big.Int).SetUint64(amount1))
		right := new(big.Int).Mul(new(big.Int).SetUint64(p.reserve1), new(big.Int).SetUint64(amount0))
		if left.Cmp(right) != 0 {
			return 0, ErrWrongRatio
		}

		// shares = min(amount0*total/reserve0, amount1*total/reserve1)
		s0, err := mulDiv(amount0, p.totalShares, p.reserve0)
		if err != nil {
			return 0, err
		}
		s1, err := mulDiv(amount1, p.totalShares, p.reserve1)
		if err != nil {
			return 0, err
		}

		sharesIssued = s0
		if s1 < s0 {
			sharesIssued = s1
		}
	}

	if sharesIssued == 0 {
		return 0, ErrZeroShares
	}

	total, err := safeAdd(p.totalShares, sharesIssued)
	if err != nil {
		return 0, err
	}
	balance, err := safeAdd(p.shares[provider], sharesIssued)
	if err != nil {
		return 0, err
	}

	if err := p.asset0.Transfer(provider, p.account, amount0); err != nil {
		return 0, err
	}
	if err := p.asset1.Transfer(provider, p.account, amount1); err != nil {

		// Unwind the first leg so a failed deposit leaves no partial
		// effects behind.
		if err2 := p.asset0.Transfer(p.account, provider, amount0); err2 != nil {
			return 0, err2
		}
		return 0, err
	}

	p.totalShares = total
	p.shares[provider] = balance

	p.syncReserves()

	p.evHandler("pool: add liquidity: provider[%s] amounts[%d/%d] shares[%d]", provider, amount0, amount1, sharesIssued)

	return sharesIssued, nil
}

// RemoveLiquidity burns the provider's shares and pays out both assets
// pro-rata against the pool's actual token balances, so accrued fees
// are included in the payout.
func (p *Pool) RemoveLiquidity(provider token.AccountID, shareAmount uint64) (amount0 uint64, amount1 uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if shareAmount == 0 {
		return 0, 0, ErrZeroAmount
	}
	if p.shares[provider] < shareAmount {
		return 0, 0, ErrInsufficientShares
	}

	balance0 := p.asset0.BalanceOf(p.account)
	balance1 := p.asset1.BalanceOf(p.account)

	amount0, err = mulDiv(balance0, shareAmount, p.totalShares)
	if err != nil {
		return 0, 0, err
	}
	amount1, err = mulDiv(balance1, shareAmount, p.totalShares)
	if err != nil {
		return 0, 0, err
	}

	if amount0 == 0 || amount1 == 0 {
		return 0, 0, ErrZeroOutput
	}

	if err := p.asset0.Transfer(p.account, provider, amount0); err != nil {
		return 0, 0, err
	}
	if err := p.asset1.Transfer(p.account, provider, amount1); err != nil {
		if err2 := p.asset0.Transfer(provider, p.account, amount0); err2 != nil {
			return 0, 0, err2
		}
		return 0, 0, err
	}

	p.shares[provider] -= shareAmount
	p.totalShares -= shareAmount

	p.syncReserves()

	p.evHandler("pool: remove liquidity: provider[%s] shares[%d] amounts[%d/%d]", provider, shareAmount, amount0, amount1)

	return amount0, amount1, nil
}

// =============================================================================

// syncReserves updates the cached reserves to the actual token balances
// held by the pool account. The caller must hold the lock.
func (p *Pool) syncReserves() {
	p.reserve0 = p.asset0.BalanceOf(p.account)
	p.reserve1 = p.asset1.BalanceOf(p.account)
}

// mulDiv reports a * b / c with full precision in the intermediate
// product and truncation toward zero on the division.
func mulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrZeroOutput
	}

	r := new(big.Int).SetUint64(a)
	r.Mul(r, new(big.Int).SetUint64(b))
	r.Quo(r, new(big.Int).SetUint64(c))

	return toUint64(r)
}

// isqrt returns the integer square root of n using Babylonian
// iteration. It converges for all non-negative inputs, returning 0 for
// n < 1 and 1 for n in [1,3].
func isqrt(n *big.Int) *big.Int {
	if n.Sign() <= 0 {
		return big.NewInt(0)
	}
	if n.Cmp(big.NewInt(4)) < 0 {
		return big.NewInt(1)
	}

	// Start from n/2 + 1 and iterate x = (x + n/x) / 2 until the
	// estimate stops shrinking.
	two := big.NewInt(2)
	x := new(big.Int).Quo(n, two)
	x.Add(x, big.NewInt(1))

	y := new(big.Int)
	for {
		y.Quo(n, x)
		y.Add(y, x)
		y.Quo(y, two)

		if y.Cmp(x) >= 0 {
			return x
		}
		x.Set(y)
	}
}

// toUint64 converts a big value back to uint64 with an explicit
// overflow check.
func toUint64(v *big.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ErrOverflow
	}

	return v.Uint64(), nil
}

// safeAdd reports the sum of two amounts with an explicit overflow
// check.
func safeAdd(a, b uint64) (uint64, error) {
	if b > math.MaxUint64-a {
		return 0, ErrOverflow
	}

	return a + b, nil
}
