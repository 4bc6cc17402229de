package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/quillvm/cellar/layout"
	"github.com/quillvm/cellar/metadata"
	"github.com/quillvm/cellar/store"
)

// Demo contract storage: a token ledger with a pinned version cell, a
// packed holdings map, and a lazy audit log behind its own cell.

type AuditLog struct {
	Entries []string
}

type Token struct {
	TotalSupply uint64
	Paused      bool
	Version     uint32 `cellar:"key=0x00c0ffee"`
	Holdings    map[uint32]uint64
	Audit       layout.Lazy[AuditLog]
}

type Idle struct{}

type Active struct {
	Since uint64
	Round uint32
}

// Phase is an enum: exactly one variant pointer is live.
type Phase struct {
	Idle   *Idle
	Active *Active
}

func (Phase) StorageEnum() {}

var demoTypes = map[string]any{
	"token": Token{},
	"phase": Phase{},
	"audit": AuditLog{},
}

func main() {
	var (
		typeName = flag.String("type", "", "Demo type to derive (token, phase, audit); all when empty")
		asJSON   = flag.Bool("json", false, "Print the layout metadata document instead of the tree")
		dbDir    = flag.String("db", "", "Pebble directory for the round-trip demo")
		verbose  = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		layout.SetLogger(logger)
		store.SetLogger(logger)
	}

	if err := run(*typeName, *asJSON, *dbDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(typeName string, asJSON bool, dbDir string) error {
	deriver := layout.NewDeriver(layout.Options{})

	names := []string{"token", "phase", "audit"}
	if typeName != "" {
		if _, ok := demoTypes[typeName]; !ok {
			return fmt.Errorf("unknown type %q (have: token, phase, audit)", typeName)
		}
		names = []string{typeName}
	}

	for _, name := range names {
		derived, err := deriver.DeriveType(typeOf(demoTypes[name]))
		if err != nil {
			return fmt.Errorf("derive %s: %w", name, err)
		}
		if asJSON {
			doc, err := metadata.RenderJSON(derived)
			if err != nil {
				return fmt.Errorf("render %s: %w", name, err)
			}
			fmt.Println(string(doc))
			continue
		}
		fmt.Println(renderTree(derived))
	}

	if dbDir != "" {
		return runStoreDemo(deriver, dbDir)
	}
	return nil
}

// runStoreDemo opens a Pebble store and round-trips the token layout:
// pull-or-init the root, bump the supply, store it back.
func runStoreDemo(deriver *layout.Deriver, dir string) error {
	db, err := store.OpenPebble(dir, store.PebbleOptions{Sync: true})
	if err != nil {
		return err
	}
	defer db.Close()

	cell, err := store.NewCell[Token](db, store.CellOptions{Deriver: deriver})
	if err != nil {
		return err
	}

	token, err := cell.LoadOrInit(func() Token {
		return Token{Version: 1, Holdings: map[uint32]uint64{}}
	})
	if err != nil {
		return err
	}

	token.TotalSupply += 100
	token.Holdings[uint32(len(token.Holdings))] = 100
	if err := cell.Store(token); err != nil {
		return err
	}

	fmt.Printf("\nStore demo (%s):\n", dir)
	fmt.Printf("  root key:     %s\n", cell.Key())
	fmt.Printf("  version cell: v%d\n", token.Version)
	fmt.Printf("  total supply: %d across %d holders\n", token.TotalSupply, len(token.Holdings))
	return nil
}
