// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date    time.Time `json:"date"`
	ChainID uint64    `json:"chain_id"` // The chain id scopes every signature to this running instance.
	Name    string    `json:"name"`     // The signing domain name.
	Version string    `json:"version"`  // The signing domain version.
	Tokens  []Token   `json:"tokens"`   // The token ledgers the node manages.
	Payroll Payroll   `json:"payroll"`
	Pool    Pool      `json:"pool"`
	Vault   Vault     `json:"vault"`
	Airdrop Airdrop   `json:"airdrop"`
}

// Token holds the starting state of one token ledger.
type Token struct {
	Name     string            `json:"name"`
	Symbol   string            `json:"symbol"`
	Balances map[string]uint64 `json:"balances"`
}

// Payroll holds the accounts the payroll component is bound to.
type Payroll struct {
	Employer string `json:"employer"` // Account whose signature authorizes pay stubs.
	Fund     string `json:"fund"`     // Account pay stubs are paid from.
}

// Pool holds the configuration for the market maker.
type Pool struct {
	Asset0  string `json:"asset0"`  // Symbol of the first pool asset.
	Asset1  string `json:"asset1"`  // Symbol of the second pool asset.
	Account string `json:"account"` // Account the pool holds reserves in.
}

// Airdrop holds the distribution paid out through merkle claims. The
// first token in the genesis document settles payroll, vault and
// airdrop operations.
type Airdrop struct {
	Fund   string            `json:"fund"`   // Account awards are paid from.
	Awards map[string]uint64 `json:"awards"` // Award amount per account.
}

// Vault holds the configuration for the strategy vault.
type Vault struct {
	Account   string `json:"account"`   // Account the vault holds deposits in.
	Collector string `json:"collector"` // Account deposit fees are paid to.
	Version   string `json:"version"`   // Strategy version the vault starts on.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Save writes the genesis document to the specified path.
func (g Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Domain builds the signing domain for one component of this genesis.
// The verifying contract slot has no contract to point at on a node, so
// it carries an address derived from the component name, which still
// makes every domain distinct. Wallets rebuild the same domain from the
// published genesis document to sign payloads off node.
func (g Genesis) Domain(component string) signature.Domain {
	h := crypto.Keccak256([]byte(g.Name + "/" + component))

	return signature.Domain{
		Name:              g.Name + " " + component,
		Version:           g.Version,
		ChainID:           g.ChainID,
		VerifyingContract: common.BytesToAddress(h[12:]),
	}
}

// TokenBySymbol returns the token entry for the specified symbol.
func (g Genesis) TokenBySymbol(symbol string) (Token, error) {
	for _, tkn := range g.Tokens {
		if tkn.Symbol == symbol {
			return tkn, nil
		}
	}

	return Token{}, fmt.Errorf("token %q does not exist in genesis", symbol)
}
