// This file defines the SQLite schema for the accounts table.
package sqlite

// Schema DDL for the accounts table. Revenue is stored as decimal text to
// keep currency precision.
const (
	createAccounts = `CREATE TABLE accounts (
    account_id TEXT PRIMARY KEY NOT NULL CHECK (account_id <> ''),
    name TEXT NOT NULL,
    owner_id TEXT,
    owner_name TEXT,
    phone TEXT,
    website TEXT,
    annual_revenue TEXT,
    created_at TEXT,
    updated_at TEXT
);`

	idxAccountsName  = `CREATE INDEX idx_accounts_name ON accounts(name);`
	idxAccountsOwner = `CREATE INDEX idx_accounts_owner ON accounts(owner_name);`
)

// schemaDDL lists all CREATE statements in execution order.
var schemaDDL = []string{
	createAccounts,
	idxAccountsName,
	idxAccountsOwner,
}

// accountColumns is the column list shared by SELECTs, the JSONL loader,
// and JSONL persistence.
var accountColumns = []string{
	"account_id", "name", "owner_id", "owner_name", "phone", "website",
	"annual_revenue", "created_at", "updated_at",
}
