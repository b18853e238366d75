package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/common"
)

// SubmitTransferAuthorization executes a signed transfer authorization
// against the specified token. Any relayer may submit; the signature
// ties the move to the holder.
func (s *State) SubmitTransferAuthorization(symbol string, from, to token.AccountID, value uint64, validAfter, validBefore uint64, nonce common.Hash, sig []byte) error {
	l, err := s.Token(symbol)
	if err != nil {
		return err
	}

	if err := l.TransferWithAuthorization(from, to, value, validAfter, validBefore, nonce, sig); err != nil {
		return err
	}

	s.record("transfer_authorization", from, value, map[string]string{
		"symbol": symbol,
		"to":     string(to),
		"nonce":  nonce.Hex(),
	})

	return nil
}

// SubmitPermit executes a signed allowance against the specified token.
func (s *State) SubmitPermit(symbol string, owner, spender token.AccountID, value uint64, nonce uint64, sig []byte) error {
	l, err := s.Token(symbol)
	if err != nil {
		return err
	}

	if err := l.Permit(owner, spender, value, nonce, sig); err != nil {
		return err
	}

	s.record("permit", owner, value, map[string]string{
		"symbol":  symbol,
		"spender": string(spender),
		"nonce":   fmt.Sprintf("%d", nonce),
	})

	return nil
}

// SubmitCancelAuthorization burns an unused transfer nonce on the
// authorizer's signature.
func (s *State) SubmitCancelAuthorization(symbol string, authorizer token.AccountID, nonce common.Hash, sig []byte) error {
	l, err := s.Token(symbol)
	if err != nil {
		return err
	}

	if err := l.CancelAuthorization(authorizer, nonce, sig); err != nil {
		return err
	}

	s.record("cancel_authorization", authorizer, 0, map[string]string{
		"symbol": symbol,
		"nonce":  nonce.Hex(),
	})

	return nil
}
