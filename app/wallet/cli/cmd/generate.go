package cmd

import (
	"fmt"
	"os"

	"github.com/ardanlabs/peerledger/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	path := getPrivateKeyPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key %q already exists", path)
	}

	w, err := wallet.Generate()
	if err != nil {
		return err
	}

	if err := w.Save(path); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), w.Address())
	return nil
}
