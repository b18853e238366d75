package token

import (
	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ethereum/go-ethereum/common"
)

// Canonical type signatures for the signed authorization payloads. The
// fingerprint of each schema is folded into every struct hash, so any
// change to the field order or types invalidates all signatures made
// under the old layout.
const (
	permitSchema = "Permit(address owner,address spender,uint256 value,uint256 nonce)"
	xferSchema   = "TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"
	cancelSchema = "CancelAuthorization(address authorizer,bytes32 nonce)"
)

// Fingerprints of the authorization schemas.
var (
	PermitTypeHash = signature.TypeHash(permitSchema)
	XferTypeHash   = signature.TypeHash(xferSchema)
	CancelTypeHash = signature.TypeHash(cancelSchema)
)

// =============================================================================

// PermitDigest returns the digest an owner signs to approve a spender
// for the given value at the given nonce under the specified domain.
func PermitDigest(domain signature.Domain, owner, spender AccountID, value uint64, nonce uint64) common.Hash {
	structHash := signature.StructHash(
		PermitTypeHash,
		signature.AddressWord(owner.Address()),
		signature.AddressWord(spender.Address()),
		signature.Uint64Word(value),
		signature.Uint64Word(nonce),
	)

	return signature.Digest(signature.DomainSeparator(domain), structHash)
}

// XferDigest returns the digest a holder signs to authorize a transfer
// of their funds inside the given time window.
func XferDigest(domain signature.Domain, from, to AccountID, value uint64, validAfter, validBefore uint64, nonce common.Hash) common.Hash {
	structHash := signature.StructHash(
		XferTypeHash,
		signature.AddressWord(from.Address()),
		signature.AddressWord(to.Address()),
		signature.Uint64Word(value),
		signature.Uint64Word(validAfter),
		signature.Uint64Word(validBefore),
		signature.HashWord(nonce),
	)

	return signature.Digest(signature.DomainSeparator(domain), structHash)
}

// CancelDigest returns the digest an authorizer signs to burn one of
// their unused transfer nonces.
func CancelDigest(domain signature.Domain, authorizer AccountID, nonce common.Hash) common.Hash {
	structHash := signature.StructHash(
		CancelTypeHash,
		signature.AddressWord(authorizer.Address()),
		signature.HashWord(nonce),
	)

	return signature.Digest(signature.DomainSeparator(domain), structHash)
}

// =============================================================================

// Permit sets the spender's allowance on the authority of the owner's
// signature instead of a call from the owner. The owner keeps a single
// counter: the submitted nonce must equal the counter at the moment of
// verification, and each verified permit advances it, so a permit can
// never be applied twice.
func (l *Ledger) Permit(owner, spender AccountID, value uint64, nonce uint64, sig []byte) error {
	digest := PermitDigest(l.domain, owner, spender, value, nonce)
	if err := signature.Verify(digest, sig, owner.Address()); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if nonce != l.permitNonces[owner] {
		return ErrBadNonce
	}

	l.permitNonces[owner] = nonce + 1
	l.setAllowance(owner, spender, value)

	l.evHandler("token: %s: permit: owner[%s] spender[%s] value[%d] nonce[%d]", l.symbol, owner, spender, value, nonce)

	return nil
}

// TransferWithAuthorization moves funds on the authority of the
// holder's signature. The payload carries a caller-chosen nonce that
// can be consumed once and a validity window checked against the
// ledger clock. Both window boundaries are inclusive.
func (l *Ledger) TransferWithAuthorization(from, to AccountID, value uint64, validAfter, validBefore uint64, nonce common.Hash, sig []byte) error {
	now := uint64(l.now().Unix())
	if now < validAfter {
		return ErrAuthTooEarly
	}
	if now > validBefore {
		return ErrAuthExpired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.usedAuths[from][nonce] {
		return ErrAuthUsed
	}

	digest := XferDigest(l.domain, from, to, value, validAfter, validBefore, nonce)
	if err := signature.Verify(digest, sig, from.Address()); err != nil {
		return err
	}

	if err := l.move(from, to, value); err != nil {
		return err
	}

	l.markAuthUsed(from, nonce)

	l.evHandler("token: %s: transfer authorization: from[%s] to[%s] value[%d]", l.symbol, from, to, value)

	return nil
}

// CancelAuthorization burns an unused transfer nonce on the authority
// of the authorizer's signature, so a signed transfer that is still in
// flight can never land.
func (l *Ledger) CancelAuthorization(authorizer AccountID, nonce common.Hash, sig []byte) error {
	digest := CancelDigest(l.domain, authorizer, nonce)
	if err := signature.Verify(digest, sig, authorizer.Address()); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.usedAuths[authorizer][nonce] {
		return ErrAuthUsed
	}

	l.markAuthUsed(authorizer, nonce)

	l.evHandler("token: %s: cancel authorization: authorizer[%s]", l.symbol, authorizer)

	return nil
}

// markAuthUsed latches the nonce as consumed. The caller must hold the
// lock. There is no transition back to unused.
func (l *Ledger) markAuthUsed(authorizer AccountID, nonce common.Hash) {
	if l.usedAuths[authorizer] == nil {
		l.usedAuths[authorizer] = make(map[common.Hash]bool)
	}
	l.usedAuths[authorizer][nonce] = true
}
