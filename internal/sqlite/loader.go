// This file implements JSONL loading for startup.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// loadAccountsJSONL replaces the contents of the accounts table with the
// records in dataDir/accounts.jsonl, in one transaction: on failure the
// table keeps its previous rows. Malformed lines and records that violate
// constraints are skipped. Unknown fields are ignored.
func loadAccountsJSONL(ctx context.Context, db *sql.DB, dataDir string) error {
	records, err := readJSONL(filepath.Join(dataDir, accountsJSONL))
	if err != nil {
		return fmt.Errorf("reading %s: %w", accountsJSONL, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM accounts"); err != nil {
		return fmt.Errorf("clearing accounts: %w", err)
	}

	if err := insertRecords(tx, "accounts", accountColumns, records, validAccountRecord); err != nil {
		return fmt.Errorf("loading %s: %w", accountsJSONL, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// validAccountRecord rejects records the accounts table would accept but
// ListAccounts could not read back: a missing or empty account_id, or an
// annual_revenue that is not a decimal.
func validAccountRecord(obj map[string]any) bool {
	switch id := obj["account_id"].(type) {
	case string:
		if strings.TrimSpace(id) == "" {
			return false
		}
	case json.Number:
	default:
		return false
	}

	switch rev := obj["annual_revenue"].(type) {
	case nil:
	case json.Number:
		if _, err := decimal.NewFromString(rev.String()); err != nil {
			return false
		}
	case string:
		if _, err := decimal.NewFromString(rev); err != nil {
			return false
		}
	default:
		return false
	}
	return true
}

// insertRecords inserts parsed JSONL records into a SQLite table. Only
// columns listed in columns are extracted; missing keys insert NULL.
// Numbers are re-encoded as text so revenue keeps its decimal form.
// Records rejected by accept are skipped.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage, accept func(map[string]any) bool) error {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		dec := json.NewDecoder(strings.NewReader(string(rec)))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		if accept != nil && !accept(obj) {
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			switch v := obj[col].(type) {
			case json.Number:
				args[i] = v.String()
			case map[string]any, []any:
				args[i] = nil
			default:
				args[i] = v
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
	}
	return nil
}
