// Package private maintains the group of handlers for node to node
// access.
package private

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/ledger/genesis"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	State       *state.State
	SnapshotDir string
}

// Genesis returns the genesis information the node was booted with.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Snapshot writes the current balances to disk as a genesis document a
// new node could boot from.
func (h Handlers) Snapshot(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	gen := h.State.Genesis()

	// Replace the boot balances with the current ones so the snapshot
	// reflects every settled operation. The tokens slice is rebuilt so
	// the running genesis is never touched.
	tokens := make([]genesis.Token, len(gen.Tokens))
	copy(tokens, gen.Tokens)
	for i, tkn := range tokens {
		l, err := h.State.Token(tkn.Symbol)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

		balances := make(map[string]uint64)
		for account, balance := range l.CopyBalances() {
			balances[string(account)] = balance
		}
		tokens[i].Balances = balances
	}
	gen.Tokens = tokens

	if err := os.MkdirAll(h.SnapshotDir, 0755); err != nil {
		return fmt.Errorf("unable to create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot-%s.json", v.Now.Format("20060102-150405"))
	path := filepath.Join(h.SnapshotDir, name)

	if err := gen.Save(path); err != nil {
		return fmt.Errorf("unable to save snapshot: %w", err)
	}

	h.Log.Infow("snapshot", "traceid", v.TraceID, "path", path)

	resp := struct {
		Path string `json:"path"`
	}{
		Path: path,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// VaultMigrate swaps the vault's fee strategy while balances stay in
// place.
func (h Handlers) VaultMigrate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app struct {
		Version string `json:"version" validate:"required"`
	}
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}
	if err := validate.Check(app); err != nil {
		return err
	}

	if err := h.State.VaultMigrate(app.Version); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Version string `json:"version"`
	}{
		Version: app.Version,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
