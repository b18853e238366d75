// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/ledger/merkle"
	"github.com/ardanlabs/ledger/foundation/ledger/nameservice"
	"github.com/ardanlabs/ledger/foundation/ledger/payroll"
	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Accounts returns the balances for every token, optionally restricted
// to a single account.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var only token.AccountID
	if acct := web.Param(r, "account"); acct != "" {
		accountID, err := token.ToAccountID(acct)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		only = accountID
	}

	tokens := make([]tokenBalances, 0, len(h.State.Symbols()))
	for _, symbol := range h.State.Symbols() {
		l, err := h.State.Token(symbol)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

		var balances []accountBalance
		for account, balance := range l.CopyBalances() {
			if only != "" && account != only {
				continue
			}
			balances = append(balances, accountBalance{
				Account: string(account),
				Name:    h.NS.Lookup(account),
				Balance: balance,
			})
		}

		tokens = append(tokens, tokenBalances{
			Symbol:   symbol,
			Balances: balances,
		})
	}

	return web.Respond(ctx, w, tokens, http.StatusOK)
}

// SubmitTransfer relays a signed transfer authorization to the ledger.
func (h Handlers) SubmitTransfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app submitTransfer
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	from, err := token.ToAccountID(app.From)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := token.ToAccountID(app.To)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	sig, err := signature.SignatureBytes(app.Sig)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("transfer authorization", "traceid", v.TraceID, "symbol", app.Symbol, "from", app.From, "to", app.To, "value", app.Value)

	if err := h.State.SubmitTransferAuthorization(app.Symbol, from, to, app.Value, app.ValidAfter, app.ValidBefore, common.HexToHash(app.Nonce), sig); err != nil {
		return trusted(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transfer settled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitPermit relays a signed allowance to the ledger.
func (h Handlers) SubmitPermit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app submitPermit
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	owner, err := token.ToAccountID(app.Owner)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	spender, err := token.ToAccountID(app.Spender)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	sig, err := signature.SignatureBytes(app.Sig)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("permit", "traceid", v.TraceID, "symbol", app.Symbol, "owner", app.Owner, "spender", app.Spender, "value", app.Value)

	if err := h.State.SubmitPermit(app.Symbol, owner, spender, app.Value, app.Nonce, sig); err != nil {
		return trusted(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "allowance set",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitCancel burns an unused transfer nonce.
func (h Handlers) SubmitCancel(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app submitCancel
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	authorizer, err := token.ToAccountID(app.Authorizer)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	sig, err := signature.SignatureBytes(app.Sig)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.SubmitCancelAuthorization(app.Symbol, authorizer, common.HexToHash(app.Nonce), sig); err != nil {
		return trusted(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "authorization canceled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitPayrollClaim pays an employer-signed pay stub to the employee.
func (h Handlers) SubmitPayrollClaim(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app submitPayStub
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	employee, err := token.ToAccountID(app.Employee)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	sig, err := signature.SignatureBytes(app.Sig)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("payroll claim", "traceid", v.TraceID, "employee", app.Employee, "period", app.Period, "amount", app.Amount)

	if err := h.State.SubmitPayrollClaim(employee, app.Period, app.Amount, sig); err != nil {
		return trusted(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "pay stub settled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// PayrollClaimed reports whether the employee was paid for the period.
func (h Handlers) PayrollClaimed(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	employee, err := token.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	period, err := strconv.ParseUint(web.Param(r, "period"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid period: %w", err), http.StatusBadRequest)
	}

	claimed, err := h.State.PayrollClaimed(employee, period)
	if err != nil {
		return trusted(err)
	}

	resp := struct {
		Account string `json:"account"`
		Period  uint64 `json:"period"`
		Claimed bool   `json:"claimed"`
	}{
		Account: string(employee),
		Period:  period,
		Claimed: claimed,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Swap trades one pool asset for the other.
func (h Handlers) Swap(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app submitSwap
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	trader, err := token.ToAccountID(app.Trader)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("swap", "traceid", v.TraceID, "trader", app.Trader, "symbol", app.Symbol, "amountIn", app.AmountIn)

	amountOut, err := h.State.Swap(trader, app.Symbol, app.AmountIn)
	if err != nil {
		return trusted(err)
	}

	resp := struct {
		AmountOut uint64 `json:"amount_out"`
	}{
		AmountOut: amountOut,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddLiquidity deposits both pool assets for shares.
func (h Handlers) AddLiquidity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app submitAddLiquidity
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	provider, err := token.ToAccountID(app.Provider)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	shares, err := h.State.AddLiquidity(provider, app.Amount0, app.Amount1)
	if err != nil {
		return trusted(err)
	}

	resp := struct {
		Shares uint64 `json:"shares"`
	}{
		Shares: shares,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RemoveLiquidity burns shares for both pool assets.
func (h Handlers) RemoveLiquidity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app submitRemoveLiquidity
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	provider, err := token.ToAccountID(app.Provider)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	amount0, amount1, err := h.State.RemoveLiquidity(provider, app.Shares)
	if err != nil {
		return trusted(err)
	}

	resp := struct {
		Amount0 uint64 `json:"amount0"`
		Amount1 uint64 `json:"amount1"`
	}{
		Amount0: amount0,
		Amount1: amount1,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Reserves returns the current pool holdings.
func (h Handlers) Reserves(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	reserve0, reserve1, err := h.State.Reserves()
	if err != nil {
		return trusted(err)
	}

	gen := h.State.Genesis()
	resp := poolReserves{
		Asset0:   gen.Pool.Asset0,
		Asset1:   gen.Pool.Asset1,
		Reserve0: reserve0,
		Reserve1: reserve1,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitAirdropClaim redeems a committed award against its proof.
func (h Handlers) SubmitAirdropClaim(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app submitAirdropClaim
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	account, err := token.ToAccountID(app.Account)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	proof := make([]common.Hash, len(app.Proof))
	for i, node := range app.Proof {
		proof[i] = common.HexToHash(node)
	}

	if err := h.State.SubmitAirdropClaim(account, app.Amount, proof); err != nil {
		return trusted(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "award settled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AirdropProof returns the award and proof the account needs to claim.
func (h Handlers) AirdropProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account, err := token.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	amount, proof, err := h.State.AirdropProof(account)
	if err != nil {
		return trusted(err)
	}

	root, err := h.State.AirdropRoot()
	if err != nil {
		return trusted(err)
	}

	nodes := make([]string, len(proof))
	for i, node := range proof {
		nodes[i] = node.Hex()
	}

	resp := airdropProof{
		Account: string(account),
		Amount:  amount,
		Root:    root.Hex(),
		Proof:   nodes,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// VaultVersion returns the version of the active vault strategy.
func (h Handlers) VaultVersion(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	version, err := h.State.VaultVersion()
	if err != nil {
		return trusted(err)
	}

	resp := struct {
		Version string `json:"version"`
	}{
		Version: version,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// VaultDeposit credits the depositor net of the active strategy's fee.
func (h Handlers) VaultDeposit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app submitVaultMove
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	account, err := token.ToAccountID(app.Account)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	credited, err := h.State.VaultDeposit(account, app.Amount)
	if err != nil {
		return trusted(err)
	}

	resp := struct {
		Credited uint64 `json:"credited"`
	}{
		Credited: credited,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// VaultWithdraw moves previously credited funds back to the depositor.
func (h Handlers) VaultWithdraw(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app submitVaultMove
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	account, err := token.ToAccountID(app.Account)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.VaultWithdraw(account, app.Amount); err != nil {
		return trusted(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "withdrawal settled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// trusted maps ledger errors to client responses. Replays answer 409
// so a relayer can tell a burned authorization from a malformed one.
func trusted(err error) error {
	switch {
	case errors.Is(err, token.ErrAuthUsed),
		errors.Is(err, token.ErrBadNonce),
		errors.Is(err, payroll.ErrPeriodClaimed),
		errors.Is(err, merkle.ErrAlreadyClaimed):
		return errs.NewTrusted(err, http.StatusConflict)
	}

	return errs.NewTrusted(err, http.StatusBadRequest)
}
