package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wire"
	"github.com/spf13/cobra"
)

var (
	node    string
	to      string
	amount  float64
	timeout time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transaction and submit it to a node",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&node, "node", "n", "127.0.0.1:9080", "Peer address of the node.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account receiving the amount.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Time allowed for the node to answer.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	w, err := loadWallet()
	if err != nil {
		return err
	}

	recipient, err := database.ToAccountID(to)
	if err != nil {
		return err
	}

	tx, err := database.NewTx(w.Address(), recipient, amount)
	if err != nil {
		return err
	}

	if err := w.SignTx(&tx); err != nil {
		return err
	}

	env, err := wire.NewEnvelope(wire.KindTransaction, tx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var ack wire.Ack
	if err := wire.Call(ctx, node, wire.DefaultTimeouts, env, wire.KindAck, &ack); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", ack.Status, tx.ID())
	return nil
}
