// Package state is the core API for the ledger node and wires the
// token ledgers, payroll, market maker, airdrop distributor and vault
// to one genesis document. Every externally visible operation is atomic
// per call: each component validates completely before it mutates and
// serializes access to its own state, so a failed call leaves nothing
// behind and no interleaving is observable within one invocation.
package state

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/genesis"
	"github.com/ardanlabs/ledger/foundation/ledger/merkle"
	"github.com/ardanlabs/ledger/foundation/ledger/payroll"
	"github.com/ardanlabs/ledger/foundation/ledger/pool"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ardanlabs/ledger/foundation/ledger/vault"
)

// ErrUnknownToken is returned when an operation names a token symbol
// the genesis document never declared.
var ErrUnknownToken = errors.New("token does not exist")

// EventHandler defines a function that is called when events occur in
// the processing of ledger operations.
type EventHandler func(v string, args ...any)

// Record represents one committed operation handed to the archive.
type Record struct {
	Seq     uint64            `json:"seq"`
	Kind    string            `json:"kind"`
	Account token.AccountID   `json:"account"`
	Amount  uint64            `json:"amount"`
	Meta    map[string]string `json:"meta,omitempty"`
	At      time.Time         `json:"at"`
}

// ArchiveFn receives a record for every committed operation. The
// function must not block the caller for long; slow sinks belong
// behind a buffer.
type ArchiveFn func(rec Record)

// =============================================================================

// Config represents the configuration required to start the ledger
// node.
type Config struct {
	Genesis   genesis.Genesis
	Now       func() time.Time
	Archive   ArchiveFn
	EvHandler EventHandler
}

// State manages the ledger components.
type State struct {
	genesis   genesis.Genesis
	now       func() time.Time
	archive   ArchiveFn
	evHandler EventHandler
	seq       atomic.Uint64

	tokens      map[string]*token.Ledger
	payroll     *payroll.Payroll
	pool        *pool.Pool
	distributor *merkle.Distributor
	airdrop     *merkle.Tree
	awards      map[token.AccountID]uint64
	vault       *vault.Vault
}

// New constructs the full set of ledger components from the genesis
// document.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Build a safe archive function for use.
	ar := func(rec Record) {
		if cfg.Archive != nil {
			cfg.Archive(rec)
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	g := cfg.Genesis

	s := State{
		genesis:   g,
		now:       now,
		archive:   ar,
		evHandler: ev,
		tokens:    make(map[string]*token.Ledger),
	}

	// Construct one ledger per genesis token. Each ledger is scoped to
	// its own signing domain so an authorization for one token can
	// never replay against another.
	for _, tkn := range g.Tokens {
		l, err := token.New(token.Config{
			Name:      tkn.Name,
			Symbol:    tkn.Symbol,
			Domain:    g.Domain(tkn.Name),
			Balances:  tkn.Balances,
			Now:       now,
			EvHandler: token.EventHandler(ev),
		})
		if err != nil {
			return nil, fmt.Errorf("token %q: %w", tkn.Symbol, err)
		}
		s.tokens[tkn.Symbol] = l
	}

	if len(g.Tokens) == 0 {
		return nil, errors.New("genesis declares no tokens")
	}

	// The first genesis token settles payroll, vault and airdrop
	// operations.
	settle := s.tokens[g.Tokens[0].Symbol]

	if g.Payroll.Employer != "" {
		employer, err := token.ToAccountID(g.Payroll.Employer)
		if err != nil {
			return nil, fmt.Errorf("payroll employer: %w", err)
		}
		fund, err := token.ToAccountID(g.Payroll.Fund)
		if err != nil {
			return nil, fmt.Errorf("payroll fund: %w", err)
		}

		s.payroll, err = payroll.New(payroll.Config{
			Employer:  employer,
			Fund:      fund,
			Domain:    g.Domain("Payroll"),
			Token:     settle,
			EvHandler: payroll.EventHandler(ev),
		})
		if err != nil {
			return nil, fmt.Errorf("payroll: %w", err)
		}
	}

	if g.Pool.Account != "" {
		asset0, exists := s.tokens[g.Pool.Asset0]
		if !exists {
			return nil, fmt.Errorf("pool asset0 %q: %w", g.Pool.Asset0, ErrUnknownToken)
		}
		asset1, exists := s.tokens[g.Pool.Asset1]
		if !exists {
			return nil, fmt.Errorf("pool asset1 %q: %w", g.Pool.Asset1, ErrUnknownToken)
		}
		account, err := token.ToAccountID(g.Pool.Account)
		if err != nil {
			return nil, fmt.Errorf("pool account: %w", err)
		}

		s.pool, err = pool.New(pool.Config{
			Account:   account,
			Asset0:    asset0,
			Asset1:    asset1,
			EvHandler: pool.EventHandler(ev),
		})
		if err != nil {
			return nil, fmt.Errorf("pool: %w", err)
		}
	}

	if len(g.Airdrop.Awards) > 0 {
		awards := make([]merkle.Award, 0, len(g.Airdrop.Awards))
		s.awards = make(map[token.AccountID]uint64, len(g.Airdrop.Awards))
		for accountStr, amount := range g.Airdrop.Awards {
			accountID, err := token.ToAccountID(accountStr)
			if err != nil {
				return nil, fmt.Errorf("airdrop award %q: %w", accountStr, err)
			}
			awards = append(awards, merkle.Award{Account: accountID, Amount: amount})
			s.awards[accountID] = amount
		}

		tree, err := merkle.NewTree(awards)
		if err != nil {
			return nil, fmt.Errorf("airdrop tree: %w", err)
		}

		fund, err := token.ToAccountID(g.Airdrop.Fund)
		if err != nil {
			return nil, fmt.Errorf("airdrop fund: %w", err)
		}

		s.airdrop = tree
		s.distributor, err = merkle.NewDistributor(merkle.Config{
			Root:      tree.Root(),
			Fund:      fund,
			Token:     settle,
			EvHandler: merkle.EventHandler(ev),
		})
		if err != nil {
			return nil, fmt.Errorf("airdrop: %w", err)
		}
	}

	if g.Vault.Account != "" {
		account, err := token.ToAccountID(g.Vault.Account)
		if err != nil {
			return nil, fmt.Errorf("vault account: %w", err)
		}
		collector, err := token.ToAccountID(g.Vault.Collector)
		if err != nil {
			return nil, fmt.Errorf("vault collector: %w", err)
		}

		s.vault, err = vault.New(vault.Config{
			Account:   account,
			Collector: collector,
			Version:   g.Vault.Version,
			Token:     settle,
			EvHandler: vault.EventHandler(ev),
		})
		if err != nil {
			return nil, fmt.Errorf("vault: %w", err)
		}
	}

	return &s, nil
}

// =============================================================================

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Token returns the ledger for the specified symbol.
func (s *State) Token(symbol string) (*token.Ledger, error) {
	l, exists := s.tokens[symbol]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownToken, symbol)
	}

	return l, nil
}

// Symbols returns the set of token symbols the node manages.
func (s *State) Symbols() []string {
	symbols := make([]string, 0, len(s.tokens))
	for _, tkn := range s.genesis.Tokens {
		symbols = append(symbols, tkn.Symbol)
	}

	return symbols
}

// record assigns a sequence number and hands the record to the archive.
func (s *State) record(kind string, account token.AccountID, amount uint64, meta map[string]string) {
	s.archive(Record{
		Seq:     s.seq.Add(1),
		Kind:    kind,
		Account: account,
		Amount:  amount,
		Meta:    meta,
		At:      s.now().UTC(),
	})
}

