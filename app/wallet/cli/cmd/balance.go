package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
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

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance for every token",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := token.PublicKeyToAccountID(privateKey.PublicKey)
	fmt.Println("for account:", accountID)

	resp, err := http.Get(fmt.Sprintf("%s/v1/accounts/list/%s", getNodeURL(), accountID))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var tokens []tokenBalances
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		log.Fatal(err)
	}

	for _, tkn := range tokens {
		for _, bal := range tkn.Balances {
			fmt.Printf("%s: %d\n", tkn.Symbol, bal.Balance)
		}
	}
}
