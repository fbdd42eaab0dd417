package main

import (
	"strings"

	"cqlite/lexer"
	"cqlite/schema"
)

// StatementType is the parsed statement's kind.
type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
	StatementCreate
)

// Statement is the output of PREPARE and the input to EXECUTE (spec
// §4.F's three-phase state machine).
type Statement struct {
	Type StatementType
	Row  schema.Row
}

// PrepareResult is a parse-phase outcome. Spec §6's failure enumeration
// also names NEGATIVE_ID, for a user-supplied row id; the schema-row
// variant this package implements (SPEC_FULL.md OQ5) has no such field —
// ids are assigned internally by schema.rowidSource, never parsed from
// input — so NEGATIVE_ID has no reachable call site here. See
// SPEC_FULL.md OPEN QUESTIONS — DECISIONS, OQ8.
type PrepareResult int

const (
	PrepareSuccess PrepareResult = iota
	PrepareStringTooLong
	PrepareSyntaxError
	PrepareUnrecognizedStatement
)

// ExecuteResult is an execute-phase outcome.
type ExecuteResult int

const (
	ExecuteSuccess ExecuteResult = iota
	ExecuteDuplicateTableOrIndex
)

// prepareStatement dispatches on the input line's first keyword,
// grounded on the original prepare_statement's strncmp dispatch.
func prepareStatement(line string, stmt *Statement) PrepareResult {
	switch {
	case strings.HasPrefix(line, "insert"):
		return prepareInsert(line, stmt)
	case strings.HasPrefix(line, "create"):
		return prepareCreate(line, stmt)
	case line == "select":
		stmt.Type = StatementSelect
		return PrepareSuccess
	default:
		return PrepareUnrecognizedStatement
	}
}

// prepareInsert parses `insert <type> <name> <tbl_name> <sql...>`: the
// first three fields are whitespace-delimited, the rest of the line is
// taken verbatim as the SQL text (spec §6, grounded on
// prepare_insert_schema's strtok sequence).
func prepareInsert(line string, stmt *Statement) PrepareResult {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return PrepareSyntaxError
	}

	typeStr, nameStr, tblNameStr := fields[1], fields[2], fields[3]

	// Walk past the first four whitespace-delimited fields
	// ("insert", type, name, tbl_name) to find where the verbatim SQL
	// text begins, rather than splitting on field content (which
	// could recur earlier in the line).
	rest := line
	for i := 0; i < 4; i++ {
		rest = strings.TrimLeft(rest, " \t")
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return PrepareSyntaxError
		}
		rest = rest[idx:]
	}
	sqlStr := strings.TrimSpace(rest)

	if len(typeStr) > schema.TypeLen || len(nameStr) > schema.NameLen ||
		len(tblNameStr) > schema.TblNameLen || len(sqlStr) > schema.SQLLen {
		return PrepareStringTooLong
	}

	stmt.Type = StatementInsert
	stmt.Row = schema.Row{Type: typeStr, Name: nameStr, TblName: tblNameStr, SQL: sqlStr}
	return PrepareSuccess
}

// prepareCreate parses `create table <name> (...)` or
// `create index <name> on <tbl> (...)`, grounded on
// prepare_create_schema's minimal SQL validation.
func prepareCreate(line string, stmt *Statement) PrepareResult {
	toks := lexer.Tokenize(line)
	if len(toks) < 3 {
		return PrepareSyntaxError
	}
	if toks[0].Type != lexer.CREATE {
		return PrepareSyntaxError
	}

	switch toks[1].Type {
	case lexer.TABLE:
		if toks[2].Type != lexer.IDENTIFIER {
			return PrepareSyntaxError
		}
		name := toks[2].Lexeme
		if !strings.Contains(line, "(") || !strings.Contains(line, ")") {
			return PrepareSyntaxError
		}
		stmt.Type = StatementCreate
		stmt.Row = schema.Row{Type: "table", Name: name, TblName: name, SQL: line}
		return PrepareSuccess

	case lexer.IDENTIFIER:
		// "create index <name> on <tbl> (...)" — INDEX is not a reserved
		// keyword in the lexer, so toks[1] is an IDENTIFIER spelling
		// "index", toks[2] is the index name and toks[4] the table.
		if !strings.EqualFold(toks[1].Lexeme, "index") || len(toks) < 6 ||
			toks[2].Type != lexer.IDENTIFIER || toks[4].Type != lexer.IDENTIFIER {
			return PrepareSyntaxError
		}
		name := toks[2].Lexeme
		tbl := toks[4].Lexeme
		if !strings.Contains(strings.ToLower(line), strings.ToLower(tbl)) {
			return PrepareSyntaxError
		}
		stmt.Type = StatementCreate
		stmt.Row = schema.Row{Type: "index", Name: name, TblName: tbl, SQL: line}
		return PrepareSuccess

	default:
		return PrepareSyntaxError
	}
}
