package main

import (
	"fmt"
	"os"
	"strings"

	"cqlite/pager"
	"cqlite/storage"
)

// MetaCommandResult is a ".command" dispatch outcome.
type MetaCommandResult int

const (
	MetaCommandSuccess MetaCommandResult = iota
	MetaCommandUnrecognizedCommand
)

// handleMetaCommand recognizes the four debugging meta-commands (spec
// §6), grounded on execute_meta_command's dispatch. ".exit" terminates
// the process directly, matching the original's behavior of closing
// the database and calling exit() from inside the handler.
func handleMetaCommand(line string, tree *storage.BTree, p *pager.Pager) MetaCommandResult {
	switch strings.TrimSpace(line) {
	case ".exit":
		if err := p.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "cqlite: close:", err)
			os.Exit(1)
		}
		os.Exit(0)
		return MetaCommandSuccess // unreachable, satisfies the compiler

	case ".btree":
		fmt.Println("Tree:")
		if err := tree.PrintTree(os.Stdout, tree.RootPage(), 0); err != nil {
			fmt.Fprintln(os.Stderr, "cqlite:", err)
		}
		return MetaCommandSuccess

	case ".constants":
		fmt.Println("Constants:")
		tree.PrintConstants(os.Stdout)
		return MetaCommandSuccess

	case ".printstats":
		if err := tree.PrintStats(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "cqlite:", err)
		}
		return MetaCommandSuccess

	default:
		return MetaCommandUnrecognizedCommand
	}
}
