// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ledger/app/services/ledger/handlers/v1/private"
	"github.com/ardanlabs/ledger/app/services/ledger/handlers/v1/public"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/ledger/nameservice"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	State       *state.State
	NS          *nameservice.NameService
	Evts        *events.Events
	SnapshotDir string
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)

	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/list/:account", pbl.Accounts)

	app.Handle(http.MethodPost, version, "/token/transfer", pbl.SubmitTransfer)
	app.Handle(http.MethodPost, version, "/token/permit", pbl.SubmitPermit)
	app.Handle(http.MethodPost, version, "/token/cancel", pbl.SubmitCancel)

	app.Handle(http.MethodPost, version, "/payroll/claim", pbl.SubmitPayrollClaim)
	app.Handle(http.MethodGet, version, "/payroll/claimed/:account/:period", pbl.PayrollClaimed)

	app.Handle(http.MethodPost, version, "/pool/swap", pbl.Swap)
	app.Handle(http.MethodPost, version, "/pool/liquidity/add", pbl.AddLiquidity)
	app.Handle(http.MethodPost, version, "/pool/liquidity/remove", pbl.RemoveLiquidity)
	app.Handle(http.MethodGet, version, "/pool/reserves", pbl.Reserves)

	app.Handle(http.MethodPost, version, "/airdrop/claim", pbl.SubmitAirdropClaim)
	app.Handle(http.MethodGet, version, "/airdrop/proof/:account", pbl.AirdropProof)

	app.Handle(http.MethodGet, version, "/vault/version", pbl.VaultVersion)
	app.Handle(http.MethodPost, version, "/vault/deposit", pbl.VaultDeposit)
	app.Handle(http.MethodPost, version, "/vault/withdraw", pbl.VaultWithdraw)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:         cfg.Log,
		State:       cfg.State,
		SnapshotDir: cfg.SnapshotDir,
	}

	app.Handle(http.MethodGet, version, "/node/genesis", prv.Genesis)
	app.Handle(http.MethodPost, version, "/node/archive/snapshot", prv.Snapshot)
	app.Handle(http.MethodPost, version, "/node/vault/migrate", prv.VaultMigrate)
}
