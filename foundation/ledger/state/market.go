package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/ledger/token"
)

// ErrNoPool is returned when the genesis document did not configure a
// market maker.
var ErrNoPool = errors.New("no pool is configured")

// Swap trades amountIn of the specified asset against the pool.
func (s *State) Swap(trader token.AccountID, assetSymbol string, amountIn uint64) (amountOut uint64, err error) {
	if s.pool == nil {
		return 0, ErrNoPool
	}

	amountOut, err = s.pool.Swap(trader, assetSymbol, amountIn)
	if err != nil {
		return 0, err
	}

	s.record("swap", trader, amountIn, map[string]string{
		"asset_in":   assetSymbol,
		"amount_out": fmt.Sprintf("%d", amountOut),
	})

	return amountOut, nil
}

// AddLiquidity deposits both assets into the pool for shares.
func (s *State) AddLiquidity(provider token.AccountID, amount0, amount1 uint64) (shares uint64, err error) {
	if s.pool == nil {
		return 0, ErrNoPool
	}

	shares, err = s.pool.AddLiquidity(provider, amount0, amount1)
	if err != nil {
		return 0, err
	}

	s.record("add_liquidity", provider, shares, map[string]string{
		"amount0": fmt.Sprintf("%d", amount0),
		"amount1": fmt.Sprintf("%d", amount1),
	})

	return shares, nil
}

// RemoveLiquidity burns pool shares for both assets.
func (s *State) RemoveLiquidity(provider token.AccountID, shares uint64) (amount0, amount1 uint64, err error) {
	if s.pool == nil {
		return 0, 0, ErrNoPool
	}

	amount0, amount1, err = s.pool.RemoveLiquidity(provider, shares)
	if err != nil {
		return 0, 0, err
	}

	s.record("remove_liquidity", provider, shares, map[string]string{
		"amount0": fmt.Sprintf("%d", amount0),
		"amount1": fmt.Sprintf("%d", amount1),
	})

	return amount0, amount1, nil
}

// Reserves returns the current pool reserves.
func (s *State) Reserves() (reserve0, reserve1 uint64, err error) {
	if s.pool == nil {
		return 0, 0, ErrNoPool
	}

	reserve0, reserve1 = s.pool.Reserves()
	return reserve0, reserve1, nil
}

// PoolShares returns the share balance and total supply for the
// specified provider.
func (s *State) PoolShares(provider token.AccountID) (shares, total uint64, err error) {
	if s.pool == nil {
		return 0, 0, ErrNoPool
	}

	return s.pool.SharesOf(provider), s.pool.TotalShares(), nil
}
