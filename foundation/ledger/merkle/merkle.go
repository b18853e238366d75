// Package merkle implements a one-shot airdrop distributor. The
// distribution is committed to as the root of a merkle tree built over
// (account, amount) leaves. Pair hashing is commutative: the two
// children are sorted before hashing, so a proof does not need to carry
// left/right position bits. Each account can claim at most once.
package merkle

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Set of errors for distributor operations.
var (
	ErrBadProof       = errors.New("proof does not resolve to the root")
	ErrAlreadyClaimed = errors.New("account already claimed")
	ErrUnknownLeaf    = errors.New("leaf is not in the tree")
)

// EventHandler defines a function that is called when events occur in
// the processing of claims.
type EventHandler func(v string, args ...any)

// =============================================================================

// Award represents one (account, amount) entry in a distribution.
type Award struct {
	Account token.AccountID
	Amount  uint64
}

// Leaf returns the hash this award contributes to the tree. The amount
// is encoded as a 32 byte big endian word behind the raw address bytes.
func (a Award) Leaf() common.Hash {
	var amount [32]byte
	binary.BigEndian.PutUint64(amount[24:], a.Amount)

	return common.BytesToHash(crypto.Keccak256(a.Account.Address().Bytes(), amount[:]))
}

// =============================================================================

// Tree holds the full set of levels for a distribution so proofs can be
// generated for any leaf.
type Tree struct {
	levels [][]common.Hash
}

// NewTree builds a merkle tree over the specified awards. At least one
// award is required.
func NewTree(awards []Award) (*Tree, error) {
	if len(awards) == 0 {
		return nil, errors.New("tree requires at least one award")
	}

	leaves := make([]common.Hash, len(awards))
	for i, award := range awards {
		leaves[i] = award.Leaf()
	}

	levels := [][]common.Hash{leaves}
	for level := leaves; len(level) > 1; {
		var next []common.Hash
		for i := 0; i < len(level); i += 2 {

			// An odd node at the end of a level is promoted unchanged.
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{levels: levels}, nil
}

// Root returns the root hash the distribution is committed to.
func (t *Tree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Prove returns the sibling path from the specified leaf to the root.
func (t *Tree) Prove(leaf common.Hash) ([]common.Hash, error) {
	idx := -1
	for i, l := range t.levels[0] {
		if l == leaf {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrUnknownLeaf
	}

	var proof []common.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}

	return proof, nil
}

// Verify walks the proof from the leaf and reports whether it resolves
// to the root.
func Verify(root common.Hash, leaf common.Hash, proof []common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}

	return computed == root
}

// hashPair hashes two nodes in sorted order so a verifier never needs
// to know which side each node was on.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}

	return common.BytesToHash(crypto.Keccak256(a.Bytes(), b.Bytes()))
}

// =============================================================================

// Config represents the configuration required to construct a
// distributor.
type Config struct {
	Root      common.Hash
	Fund      token.AccountID
	Token     token.Transferable
	EvHandler EventHandler
}

// Distributor pays awards committed to by a merkle root, each account
// at most once.
type Distributor struct {
	mu sync.Mutex

	root    common.Hash
	fund    token.AccountID
	token   token.Transferable
	claimed map[token.AccountID]bool

	evHandler EventHandler
}

// NewDistributor constructs a distributor for the specified root paying
// from the specified fund account.
func NewDistributor(cfg Config) (*Distributor, error) {
	if cfg.Token == nil {
		return nil, errors.New("distributor requires a token ledger")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	d := Distributor{
		root:      cfg.Root,
		fund:      cfg.Fund,
		token:     cfg.Token,
		claimed:   make(map[token.AccountID]bool),
		evHandler: ev,
	}

	return &d, nil
}

// Root returns the root the distributor pays against.
func (d *Distributor) Root() common.Hash {
	return d.root
}

// Claimed reports whether the specified account has already claimed.
func (d *Distributor) Claimed(account token.AccountID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.claimed[account]
}

// Claim verifies the proof for the (account, amount) award and pays it
// from the fund. The claim latch is permanent.
func (d *Distributor) Claim(account token.AccountID, amount uint64, proof []common.Hash) error {
	leaf := Award{Account: account, Amount: amount}.Leaf()
	if !Verify(d.root, leaf, proof) {
		return ErrBadProof
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.claimed[account] {
		return ErrAlreadyClaimed
	}

	if err := d.token.Transfer(d.fund, account, amount); err != nil {
		return err
	}

	d.claimed[account] = true

	d.evHandler("merkle: claim: account[%s] amount[%d]", account, amount)

	return nil
}
