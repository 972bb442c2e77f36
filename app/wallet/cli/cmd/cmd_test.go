package cmd

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/wire"
)

func Test_Commands(t *testing.T) {
	dir := t.TempDir()

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append(args, "--account-path", dir, "--account", "kennedy"))
		err := rootCmd.Execute()
		return strings.TrimSpace(out.String()), err
	}

	generated, err := run("generate")
	if err != nil {
		t.Fatalf("Should be able to generate a wallet: %v", err)
	}
	if !database.AccountID(generated).IsAccountID() {
		t.Fatalf("Should print the new account: %q", generated)
	}

	if _, err := run("generate"); err == nil {
		t.Fatal("Should not overwrite an existing key.")
	}

	account, err := run("account")
	if err != nil || account != generated {
		t.Fatalf("Should print the same account: %q %v", account, err)
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Should be able to listen: %v", err)
	}
	defer l.Close()

	got := make(chan database.Tx, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		env, err := wire.ReadMessage(conn)
		if err != nil {
			return
		}

		var tx database.Tx
		env.Decode(&tx)
		got <- tx

		wire.WriteMessage(conn, wire.NewAck("queued"))
	}()

	const recipient = "0x2222222222222222222222222222222222222222222222222222222222222222"
	out, err := run("send", "--node", l.Addr().String(), "--to", recipient, "--amount", "0.3")
	if err != nil {
		t.Fatalf("Should be able to send: %v", err)
	}
	if !strings.HasPrefix(out, "queued") {
		t.Fatalf("Should print the ack: %q", out)
	}

	tx := <-got
	if string(tx.Sender) != generated || tx.Recipient != recipient || tx.Amount != 0.3 {
		t.Fatalf("Should send the transaction: %v", tx)
	}
	if err := tx.Validate(); err != nil {
		t.Fatalf("Should send a signed transaction: %v", err)
	}
}
