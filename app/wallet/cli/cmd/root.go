// Package cmd contains the wallet app.
package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/ledger/foundation/ledger/genesis"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const keyExtension = ".ecdsa"

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Sign and submit ledger authorizations",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringP("account-path", "p", "zarea/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringP("url", "u", "http://localhost:8080", "Url of the node.")

	viper.BindPFlag("account", rootCmd.PersistentFlags().Lookup("account"))
	viper.BindPFlag("account-path", rootCmd.PersistentFlags().Lookup("account-path"))
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}

// initConfig layers flag defaults under $HOME/.ledger.yaml and LEDGER_*
// environment variables.
func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".ledger")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Missing config file is fine, flags and env cover everything.
	viper.ReadInConfig()
}

func getPrivateKeyPath() string {
	accountName := viper.GetString("account")
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}

	return filepath.Join(viper.GetString("account-path"), accountName)
}

func getNodeURL() string {
	return viper.GetString("url")
}

// getGenesis retrieves the genesis document from the node so the wallet
// can rebuild signing domains locally.
func getGenesis() (genesis.Genesis, error) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/genesis", getNodeURL()))
	if err != nil {
		return genesis.Genesis{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return genesis.Genesis{}, fmt.Errorf("node returned %s", resp.Status)
	}

	var gen genesis.Genesis
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return genesis.Genesis{}, err
	}

	return gen, nil
}

// postJSON submits a payload to the node and prints the response body.
func postJSON(path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s%s", getNodeURL(), path), "application/json", strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	out, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned %s", resp.Status)
	}

	return nil
}
