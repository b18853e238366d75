package cmd

import (
	"crypto/rand"
	"log"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/signature"
	"github.com/ardanlabs/ledger/foundation/ledger/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	sendSymbol   string
	sendTo       string
	sendValue    uint64
	sendAfter    uint64
	sendBefore   uint64
	sendValidFor time.Duration
)

// sendCmd signs a transfer authorization and relays it to the node.
// The nonce is chosen at random so the holder never has to coordinate
// with other outstanding authorizations.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transfer authorization",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendSymbol, "symbol", "s", "ARD", "Token symbol to move.")
	sendCmd.Flags().StringVarP(&sendTo, "to", "t", "", "Account to pay.")
	sendCmd.Flags().Uint64VarP(&sendValue, "value", "v", 0, "Value to send.")
	sendCmd.Flags().Uint64Var(&sendAfter, "valid-after", 0, "Unix time the authorization becomes valid.")
	sendCmd.Flags().Uint64Var(&sendBefore, "valid-before", 0, "Unix time the authorization expires. Overrides --valid-for.")
	sendCmd.Flags().DurationVar(&sendValidFor, "valid-for", time.Hour, "Lifetime of the authorization.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("value")
}

func sendRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	gen, err := getGenesis()
	if err != nil {
		log.Fatal(err)
	}
	tkn, err := gen.TokenBySymbol(sendSymbol)
	if err != nil {
		log.Fatal(err)
	}

	from := token.PublicKeyToAccountID(privateKey.PublicKey)
	to, err := token.ToAccountID(sendTo)
	if err != nil {
		log.Fatal(err)
	}

	validBefore := sendBefore
	if validBefore == 0 {
		validBefore = uint64(time.Now().Add(sendValidFor).Unix())
	}

	var nonce common.Hash
	if _, err := rand.Read(nonce[:]); err != nil {
		log.Fatal(err)
	}

	digest := token.XferDigest(gen.Domain(tkn.Name), from, to, sendValue, sendAfter, validBefore, nonce)
	sig, err := signature.Sign(digest, privateKey)
	if err != nil {
		log.Fatal(err)
	}

	payload := struct {
		Symbol      string `json:"symbol"`
		From        string `json:"from"`
		To          string `json:"to"`
		Value       uint64 `json:"value"`
		ValidAfter  uint64 `json:"valid_after"`
		ValidBefore uint64 `json:"valid_before"`
		Nonce       string `json:"nonce"`
		Sig         string `json:"sig"`
	}{
		Symbol:      sendSymbol,
		From:        string(from),
		To:          string(to),
		Value:       sendValue,
		ValidAfter:  sendAfter,
		ValidBefore: validBefore,
		Nonce:       nonce.Hex(),
		Sig:         signature.SignatureString(sig),
	}

	if err := postJSON("/v1/token/transfer", payload); err != nil {
		log.Fatal(err)
	}
}
