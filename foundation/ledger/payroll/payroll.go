// Package payroll implements period-latched pay stub claims. An
// employer signs a pay stub off node and any relayer can submit it.
// Each (employee, period) pair pays out at most once: the claim latch
// is permanent and there is no transition back to unclaimed.
package payroll

import (
	"errors"
	"sync"

	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/common"
)

// payStubSchema is the canonical type signature a pay stub is hashed
// under. Changing the field order or types invalidates every stub the
// employer has ever signed.
const payStubSchema = "PayStub(address employee,uint256 period,uint256 amount)"

// PayStubTypeHash is the fingerprint of the pay stub schema.
var PayStubTypeHash = signature.TypeHash(payStubSchema)

// ErrPeriodClaimed is returned when a pay stub for an already paid
// (employee, period) pair is submitted again.
var ErrPeriodClaimed = errors.New("period already claimed")

// EventHandler defines a function that is called when events occur in
// the processing of payroll operations.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to construct a payroll.
type Config struct {
	Employer  token.AccountID
	Fund      token.AccountID
	Domain    signature.Domain
	Token     token.Transferable
	EvHandler EventHandler
}

// Payroll manages the claim latches for signed pay stubs and moves
// funds from the payroll fund account to employees.
type Payroll struct {
	mu sync.Mutex

	employer token.AccountID
	fund     token.AccountID
	domain   signature.Domain
	token    token.Transferable

	claimed map[token.AccountID]map[uint64]bool

	evHandler EventHandler
}

// New constructs a payroll bound to the specified employer and fund
// account.
func New(cfg Config) (*Payroll, error) {
	if cfg.Token == nil {
		return nil, errors.New("payroll requires a token ledger")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	p := Payroll{
		employer:  cfg.Employer,
		fund:      cfg.Fund,
		domain:    cfg.Domain,
		token:     cfg.Token,
		claimed:   make(map[token.AccountID]map[uint64]bool),
		evHandler: ev,
	}

	return &p, nil
}

// =============================================================================

// Employer returns the account whose signature authorizes pay stubs.
func (p *Payroll) Employer() token.AccountID {
	return p.employer
}

// Claimed reports whether the specified employee has already been paid
// for the specified period.
func (p *Payroll) Claimed(employee token.AccountID, period uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.claimed[employee][period]
}

// StubDigest returns the digest an employer signs for a pay stub under
// the specified domain. The wallet uses this to produce stubs offline.
func StubDigest(domain signature.Domain, employee token.AccountID, period uint64, amount uint64) common.Hash {
	structHash := signature.StructHash(
		PayStubTypeHash,
		signature.AddressWord(employee.Address()),
		signature.Uint64Word(period),
		signature.Uint64Word(amount),
	)

	return signature.Digest(signature.DomainSeparator(domain), structHash)
}

// Digest returns the digest the employer signs for the specified pay
// stub.
func (p *Payroll) Digest(employee token.AccountID, period uint64, amount uint64) common.Hash {
	return StubDigest(p.domain, employee, period, amount)
}

// Claim verifies the employer's signature over the pay stub and pays
// the employee from the fund account. All validation completes before
// the latch is set or any funds move, so a failed claim leaves no
// partial state behind.
func (p *Payroll) Claim(employee token.AccountID, period uint64, amount uint64, sig []byte) error {
	digest := p.Digest(employee, period, amount)
	if err := signature.Verify(digest, sig, p.employer.Address()); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.claimed[employee][period] {
		return ErrPeriodClaimed
	}

	if err := p.token.Transfer(p.fund, employee, amount); err != nil {
		return err
	}

	if p.claimed[employee] == nil {
		p.claimed[employee] = make(map[uint64]bool)
	}
	p.claimed[employee][period] = true

	p.evHandler("payroll: claim: employee[%s] period[%d] amount[%d]", employee, period, amount)

	return nil
}
