// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Command triecli is an operator tool for poking at a trie's node store
// directly: inserting and reading key/value pairs, printing the current
// root hash, and checking that a store opens. Grounded on the
// teacher's cmd/ tooling convention of a single urfave/cli/v2 app with one
// subcommand per maintenance operation.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ledgerfold/pmt-core/common"
	"github.com/ledgerfold/pmt-core/store"
	"github.com/ledgerfold/pmt-core/store/leveldbkv"
	"github.com/ledgerfold/pmt-core/store/pebblekv"
	"github.com/ledgerfold/pmt-core/trie"
)

var (
	dbPathFlag = &cli.StringFlag{
		Name:     "db-path",
		Usage:    "directory holding the node store",
		Required: true,
	}
	backendFlag = &cli.StringFlag{
		Name:  "backend",
		Usage: "storage engine: leveldb or pebble",
		Value: "leveldb",
	}
	cacheSizeFlag = &cli.IntFlag{
		Name:  "cache-size",
		Usage: "number of decoded nodes to keep in the read-through LRU cache",
		Value: 4096,
	}
	rootFlag = &cli.StringFlag{
		Name:  "root",
		Usage: "hex-encoded trie root hash (defaults to the empty trie)",
	}
)

func openStore(c *cli.Context) (*store.NodeStore, error) {
	cfg := common.Config{
		Name:          "triecli",
		Backend:       common.Backend(c.String(backendFlag.Name)),
		NodeCacheSize: c.Int(cacheSizeFlag.Name),
	}

	path := c.String(dbPathFlag.Name)
	var kv store.KV
	var err error
	switch cfg.Backend {
	case common.BackendPebble:
		kv, err = pebblekv.Open(path)
	case common.BackendLevelDB:
		kv, err = leveldbkv.Open(path)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	ns, err := store.Open(kv, cfg.NodeCacheSize)
	if err != nil {
		return nil, err
	}
	ns.SetLogger(cliLogger{})
	return ns, nil
}

// cliLogger prints trace/debug messages straight to stderr; triecli is an
// operator tool, not a long-running node, so a structured logging backend
// would be unused ceremony here.
type cliLogger struct{}

func (cliLogger) Trace(msg string, ctx ...interface{}) { fmt.Fprintln(os.Stderr, "trace:", msg, ctx) }
func (cliLogger) Debug(msg string, ctx ...interface{}) { fmt.Fprintln(os.Stderr, "debug:", msg, ctx) }
func (cliLogger) IsTrace() bool                        { return false }
func (cliLogger) IsDebug() bool                        { return true }

func openTrie(c *cli.Context) (*store.NodeStore, *trie.Trie, error) {
	ns, err := openStore(c)
	if err != nil {
		return nil, nil, err
	}
	rootArg := c.String(rootFlag.Name)
	var tr *trie.Trie
	if rootArg == "" {
		tr = trie.New(ns)
	} else {
		root := common.HexToHash(rootArg)
		tr, err = trie.OpenAt(ns, root)
		if err != nil {
			return nil, nil, err
		}
	}
	tr.SetLogger(cliLogger{})
	return ns, tr, nil
}

func main() {
	app := &cli.App{
		Name:  "triecli",
		Usage: "inspect and mutate a Patricia Merkle Trie node store",
		Commands: []*cli.Command{
			getCommand,
			putCommand,
			rootCommand,
			statsCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var getCommand = &cli.Command{
	Name:      "get",
	Usage:     "print the value stored at a key",
	ArgsUsage: "<hex-key>",
	Flags:     []cli.Flag{dbPathFlag, backendFlag, cacheSizeFlag, rootFlag},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one argument, the hex key")
		}
		_, tr, err := openTrie(c)
		if err != nil {
			return err
		}
		key, err := decodeHex(c.Args().First())
		if err != nil {
			return err
		}
		value, err := tr.Get(key)
		if err != nil {
			return err
		}
		if value == nil {
			fmt.Println("<not found>")
			return nil
		}
		fmt.Printf("0x%x\n", value)
		return nil
	},
}

var putCommand = &cli.Command{
	Name:      "put",
	Usage:     "insert a key/value pair and print the new root hash",
	ArgsUsage: "<hex-key> <hex-value>",
	Flags:     []cli.Flag{dbPathFlag, backendFlag, cacheSizeFlag, rootFlag},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("expected exactly two arguments, the hex key and hex value")
		}
		_, tr, err := openTrie(c)
		if err != nil {
			return err
		}
		key, err := decodeHex(c.Args().Get(0))
		if err != nil {
			return err
		}
		value, err := decodeHex(c.Args().Get(1))
		if err != nil {
			return err
		}
		if err := tr.Insert(key, value); err != nil {
			return err
		}
		root, err := tr.Commit()
		if err != nil {
			return err
		}
		fmt.Println(root.String())
		return nil
	},
}

var rootCommand = &cli.Command{
	Name:  "root",
	Usage: "print the current root hash without mutating anything",
	Flags: []cli.Flag{dbPathFlag, backendFlag, cacheSizeFlag, rootFlag},
	Action: func(c *cli.Context) error {
		_, tr, err := openTrie(c)
		if err != nil {
			return err
		}
		hash, err := tr.ComputeRootHash()
		if err != nil {
			return err
		}
		fmt.Println(hash.String())
		return nil
	},
}

var statsCommand = &cli.Command{
	Name:  "stats",
	Usage: "open the node store and report whether it opened (no counters are printed)",
	Flags: []cli.Flag{dbPathFlag, backendFlag, cacheSizeFlag},
	Action: func(c *cli.Context) error {
		ns, err := openStore(c)
		if err != nil {
			return err
		}
		defer ns.Close()
		fmt.Println("store opened successfully")
		return nil
	},
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}
