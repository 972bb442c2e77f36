package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

type balance struct {
	Account string  `json:"account"`
	Balance float64 `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

var url string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance of the wallet",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node public api.")
}

func balanceRun(cmd *cobra.Command, args []string) error {
	w, err := loadWallet()
	if err != nil {
		return err
	}

	resp, err := http.Get(fmt.Sprintf("%s/v1/balances/list/%s", url, w.Address()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node responded with %s", resp.Status)
	}

	var bals balances
	if err := json.NewDecoder(resp.Body).Decode(&bals); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "For Account:", w.Address())
	if len(bals.Balances) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), bals.Balances[0].Balance)
	}

	return nil
}
