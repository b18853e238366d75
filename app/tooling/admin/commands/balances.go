// Package commands implements the admin tool's subcommands.
package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

type accountBalance struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Balance uint64 `json:"balance"`
}

type tokenBalances struct {
	Symbol   string           `json:"symbol"`
	Balances []accountBalance `json:"balances"`
}

// Balances prints the current balances from a running node. An account
// may be given as the third argument to restrict the listing.
func Balances(args []string) error {
	url := nodeURL()
	path := "/v1/accounts/list"
	if len(args) == 3 {
		path += "/" + args[2]
	}

	resp, err := http.Get(url + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned %s", resp.Status)
	}

	var tokens []tokenBalances
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return err
	}

	for _, tkn := range tokens {
		fmt.Printf("Token: %s\n", tkn.Symbol)
		for _, bal := range tkn.Balances {
			if bal.Name != "" {
				fmt.Printf("  Account: %s (%s)  Balance: %d\n", bal.Account, bal.Name, bal.Balance)
				continue
			}
			fmt.Printf("  Account: %s  Balance: %d\n", bal.Account, bal.Balance)
		}
	}

	return nil
}

func nodeURL() string {
	if url := os.Getenv("LEDGER_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}
