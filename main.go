package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"cqlite/config"
	"cqlite/pager"
	"cqlite/schema"
	"cqlite/storage"
)

func displayBanner(banner string) {
	fmt.Printf("%s.....\n", banner)
	fmt.Println("This is just a database built to learn....")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Must supply a database filename.")
		os.Exit(1)
	}
	filename := os.Args[1]

	cfg, err := config.Load(".cqliterc")
	if err != nil {
		fmt.Fprintln(os.Stderr, "cqlite:", err)
		os.Exit(1)
	}

	p, err := pager.OpenPager(filename)
	if err != nil {
		slog.Error("cqlite: open database", "error", err)
		os.Exit(1)
	}

	tree, err := storage.Open(p, schema.Meta)
	if err != nil {
		slog.Error("cqlite: open schema tree", "error", err)
		os.Exit(1)
	}

	displayBanner(cfg.Banner)

	reader := bufio.NewReader(os.Stdin)
	for {
		printPrompt(cfg.Prompt)
		line, err := readInput(reader)
		if err != nil {
			// EOF (e.g. piped input ran out) behaves like a clean exit.
			if closeErr := p.Close(); closeErr != nil {
				fmt.Fprintln(os.Stderr, "cqlite: close:", closeErr)
				os.Exit(1)
			}
			os.Exit(0)
		}

		if len(line) > 0 && line[0] == '.' {
			switch handleMetaCommand(line, tree, p) {
			case MetaCommandSuccess:
				continue
			case MetaCommandUnrecognizedCommand:
				fmt.Printf("Unrecognized command '%s'\n", line)
				continue
			}
		}

		var stmt Statement
		switch prepareStatement(line, &stmt) {
		case PrepareSuccess:
			// fall through to execute
		case PrepareStringTooLong:
			fmt.Println("String is too long.")
			continue
		case PrepareSyntaxError:
			fmt.Println("Syntax error.")
			continue
		case PrepareUnrecognizedStatement:
			fmt.Printf("Unrecognized keyword at start of '%s'.\n", line)
			continue
		}

		switch executeStatement(&stmt, tree) {
		case ExecuteSuccess:
			fmt.Println("Executed.")
		case ExecuteDuplicateTableOrIndex:
			fmt.Println("Error: Duplicate table or index.")
		}
	}
}

// executeStatement dispatches a prepared Statement to the schema
// package's executor, grounded on the original execute_statement's
// switch over StatementType.
func executeStatement(stmt *Statement, tree *storage.BTree) ExecuteResult {
	switch stmt.Type {
	case StatementInsert, StatementCreate:
		var result schema.Result
		var err error
		if stmt.Type == StatementCreate {
			result, err = schema.Create(tree, stmt.Row)
		} else {
			result, err = schema.Insert(tree, stmt.Row)
		}
		if err != nil {
			slog.Error("cqlite: execute", "error", err)
			os.Exit(1)
		}
		if result == schema.ResultDuplicateTableOrIndex {
			return ExecuteDuplicateTableOrIndex
		}
		return ExecuteSuccess

	case StatementSelect:
		rows, err := schema.Select(tree)
		if err != nil {
			slog.Error("cqlite: execute", "error", err)
			os.Exit(1)
		}
		for _, r := range rows {
			fmt.Printf("(%d, %s, %s, %s, %d, %s)\n", r.RowID, r.Type, r.Name, r.TblName, r.RootPage, r.SQL)
		}
		return ExecuteSuccess

	default:
		return ExecuteSuccess
	}
}
