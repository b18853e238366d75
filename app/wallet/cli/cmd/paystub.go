package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/ardanlabs/ledger/foundation/ledger/payroll"
	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	stubEmployee string
	stubPeriod   uint64
	stubAmount   uint64
	stubSubmit   bool
)

// paystubCmd signs a pay stub with the employer key. The stub is
// printed so it can be handed to the employee, or submitted straight to
// the node with --submit.
var paystubCmd = &cobra.Command{
	Use:   "paystub",
	Short: "Sign a pay stub for an employee",
	Run:   paystubRun,
}

func init() {
	rootCmd.AddCommand(paystubCmd)
	paystubCmd.Flags().StringVarP(&stubEmployee, "employee", "e", "", "Account of the employee.")
	paystubCmd.Flags().Uint64Var(&stubPeriod, "period", 0, "Pay period, YYYYMM.")
	paystubCmd.Flags().Uint64VarP(&stubAmount, "amount", "m", 0, "Amount to pay.")
	paystubCmd.Flags().BoolVar(&stubSubmit, "submit", false, "Submit the stub to the node.")
	paystubCmd.MarkFlagRequired("employee")
	paystubCmd.MarkFlagRequired("period")
	paystubCmd.MarkFlagRequired("amount")
}

func paystubRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	gen, err := getGenesis()
	if err != nil {
		log.Fatal(err)
	}

	employee, err := token.ToAccountID(stubEmployee)
	if err != nil {
		log.Fatal(err)
	}

	digest := payroll.StubDigest(gen.Domain("Payroll"), employee, stubPeriod, stubAmount)
	sig, err := signature.Sign(digest, privateKey)
	if err != nil {
		log.Fatal(err)
	}

	payload := struct {
		Employee string `json:"employee"`
		Period   uint64 `json:"period"`
		Amount   uint64 `json:"amount"`
		Sig      string `json:"sig"`
	}{
		Employee: string(employee),
		Period:   stubPeriod,
		Amount:   stubAmount,
		Sig:      signature.SignatureString(sig),
	}

	if stubSubmit {
		if err := postJSON("/v1/payroll/claim", payload); err != nil {
			log.Fatal(err)
		}
		return
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
}
