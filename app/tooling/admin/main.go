// This program performs administrative tasks against the ledger a node
// persisted to disk.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/peerledger/app/tooling/admin/commands"
	"github.com/ardanlabs/peerledger/foundation/blockchain/database"
	"github.com/ardanlabs/peerledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/peerledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/peerledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args        conf.Args
		DBPath      string `conf:"default:zblock/miner1/"`
		GenesisPath string `conf:"default:zblock/genesis.json"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger administration",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	disk, err := storage.NewDisk(cfg.DBPath)
	if err != nil {
		return err
	}

	ev := func(v string, args ...any) {
		log.Debugw(fmt.Sprintf(v, args...))
	}

	db, err := database.New(disk, ev)
	if err != nil {
		return err
	}
	defer db.Close()

	return processCommands(cfg.Args, db, gen)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, db *database.Database, gen genesis.Genesis) error {
	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(os.Stdout, db, database.AccountID(args.Num(1))); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "blocks":
		if err := commands.Blocks(os.Stdout, db); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}

	case "verify":
		if err := commands.Verify(os.Stdout, db, gen); err != nil {
			return fmt.Errorf("verifying ledger: %w", err)
		}

	default:
		fmt.Println("bals [account]: show the balances of the ledger")
		fmt.Println("blocks:         show the blocks of the ledger")
		fmt.Println("verify:         validate linkage and proof of work")
	}

	return nil
}
