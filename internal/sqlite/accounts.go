// This file implements the account record operations of the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// accountRecord is the JSONL shape of one account row.
type accountRecord struct {
	AccountID     string  `json:"account_id"`
	Name          string  `json:"name"`
	OwnerID       *string `json:"owner_id"`
	OwnerName     *string `json:"owner_name"`
	Phone         *string `json:"phone"`
	Website       *string `json:"website"`
	AnnualRevenue *string `json:"annual_revenue"`
	CreatedAt     *string `json:"created_at"`
	UpdatedAt     *string `json:"updated_at"`
}

// editColumns maps editable fields to their SQLite columns.
var editColumns = map[types.Field]string{
	types.FieldPhone:         "phone",
	types.FieldWebsite:       "website",
	types.FieldAnnualRevenue: "annual_revenue",
}

var selectAccounts = "SELECT " + strings.Join(accountColumns, ", ") + " FROM accounts"

// ListAccounts returns every account in load order.
func (b *Backend) ListAccounts(ctx context.Context) ([]types.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(ctx); err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, selectAccounts+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []types.Account
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a, err := rec.toAccount()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount retrieves one account by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if it does not exist.
func (b *Backend) GetAccount(ctx context.Context, id string) (types.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(ctx); err != nil {
		return types.Account{}, err
	}
	return b.getLocked(ctx, id)
}

// UpdateRecord applies a delta to one account and persists accounts.jsonl.
// Only the fields present in the delta are written. Values are validated
// with types.NormalizeValue.
// Returns ErrNotFound if the account does not exist.
func (b *Backend) UpdateRecord(ctx context.Context, delta types.FieldDelta) (types.Account, error) {
	if delta.RecordID == "" {
		return types.Account{}, types.ErrInvalidID
	}
	if len(delta.Changes) == 0 {
		return types.Account{}, types.ErrEmptyDelta
	}

	var sets []string
	var args []any
	for _, field := range types.Fields {
		value, ok := delta.Changes[field]
		if !ok {
			continue
		}
		column, ok := editColumns[field]
		if !ok {
			return types.Account{}, fmt.Errorf("%w: %s", types.ErrFieldNotEditable, field)
		}
		normalized, err := types.NormalizeValue(field, value)
		if err != nil {
			return types.Account{}, err
		}
		sets = append(sets, column+" = ?")
		args = append(args, columnValue(normalized))
	}
	if len(sets) != len(delta.Changes) {
		return types.Account{}, fmt.Errorf("%w: delta names unknown fields", types.ErrInvalidField)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now(), delta.RecordID)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(ctx); err != nil {
		return types.Account{}, err
	}

	res, err := b.db.ExecContext(ctx,
		"UPDATE accounts SET "+strings.Join(sets, ", ")+" WHERE account_id = ?", args...)
	if err != nil {
		return types.Account{}, fmt.Errorf("updating account %s: %w", delta.RecordID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.Account{}, fmt.Errorf("updating account %s: %w", delta.RecordID, err)
	}
	if n == 0 {
		return types.Account{}, types.ErrNotFound
	}

	if err := b.persistLocked(ctx); err != nil {
		return types.Account{}, fmt.Errorf("persisting %s: %w", accountsJSONL, err)
	}
	return b.getLocked(ctx, delta.RecordID)
}

// SaveAccount creates or replaces an account. When a.ID is empty a new
// UUID v7 is generated. Returns the ID used.
// Returns ErrInvalidName if the name is empty.
func (b *Backend) SaveAccount(ctx context.Context, a types.Account) (string, error) {
	if strings.TrimSpace(a.Name) == "" {
		return "", types.ErrInvalidName
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(ctx); err != nil {
		return "", err
	}

	if a.ID == "" {
		id, err := generateID()
		if err != nil {
			return "", err
		}
		a.ID = id
	}

	rec := recordFromAccount(a)
	ts := now()
	rec.UpdatedAt = &ts
	rec.CreatedAt = &ts

	var existing sql.NullString
	err := b.db.QueryRowContext(ctx,
		"SELECT created_at FROM accounts WHERE account_id = ?", a.ID,
	).Scan(&existing)
	switch {
	case err == nil:
		if existing.Valid {
			rec.CreatedAt = &existing.String
		}
		_, err = b.db.ExecContext(ctx,
			`UPDATE accounts SET name = ?, owner_id = ?, owner_name = ?, phone = ?, website = ?,
			annual_revenue = ?, created_at = ?, updated_at = ? WHERE account_id = ?`,
			rec.Name, rec.OwnerID, rec.OwnerName, rec.Phone, rec.Website,
			rec.AnnualRevenue, rec.CreatedAt, rec.UpdatedAt, rec.AccountID)
	case errors.Is(err, sql.ErrNoRows):
		_, err = b.db.ExecContext(ctx,
			"INSERT INTO accounts ("+strings.Join(accountColumns, ", ")+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			rec.args()...)
	}
	if err != nil {
		return "", fmt.Errorf("saving account: %w", err)
	}

	if err := b.persistLocked(ctx); err != nil {
		return "", fmt.Errorf("persisting %s: %w", accountsJSONL, err)
	}
	return a.ID, nil
}

// getLocked reads one account. The caller must hold b.mu.
func (b *Backend) getLocked(ctx context.Context, id string) (types.Account, error) {
	if id == "" {
		return types.Account{}, types.ErrInvalidID
	}
	row := b.db.QueryRowContext(ctx, selectAccounts+" WHERE account_id = ?", id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, types.ErrNotFound
		}
		return types.Account{}, fmt.Errorf("getting account %s: %w", id, err)
	}
	return rec.toAccount()
}

// persistLocked rewrites accounts.jsonl from the accounts table. The
// caller must hold b.mu.
func (b *Backend) persistLocked(ctx context.Context) error {
	rows, err := b.db.QueryContext(ctx, selectAccounts+" ORDER BY rowid")
	if err != nil {
		return fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return fmt.Errorf("scanning account: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling account %s: %w", rec.AccountID, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating accounts: %w", err)
	}
	return writeJSONL(filepath.Join(b.dataDir, accountsJSONL), records)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (accountRecord, error) {
	var rec accountRecord
	var ownerID, ownerName, phone, website, revenue, createdAt, updatedAt sql.NullString
	err := row.Scan(&rec.AccountID, &rec.Name, &ownerID, &ownerName, &phone, &website,
		&revenue, &createdAt, &updatedAt)
	if err != nil {
		return rec, err
	}
	rec.OwnerID = nullable(ownerID)
	rec.OwnerName = nullable(ownerName)
	rec.Phone = nullable(phone)
	rec.Website = nullable(website)
	rec.AnnualRevenue = nullable(revenue)
	rec.CreatedAt = nullable(createdAt)
	rec.UpdatedAt = nullable(updatedAt)
	return rec, nil
}

func (rec accountRecord) toAccount() (types.Account, error) {
	a := types.Account{
		ID:      rec.AccountID,
		Name:    rec.Name,
		Phone:   rec.Phone,
		Website: rec.Website,
	}
	if rec.OwnerName != nil || rec.OwnerID != nil {
		a.Owner = &types.Owner{}
		if rec.OwnerID != nil {
			a.Owner.ID = *rec.OwnerID
		}
		if rec.OwnerName != nil {
			a.Owner.Name = *rec.OwnerName
		}
	}
	if rec.AnnualRevenue != nil {
		d, err := decimal.NewFromString(*rec.AnnualRevenue)
		if err != nil {
			return types.Account{}, fmt.Errorf("account %s revenue %q: %w", rec.AccountID, *rec.AnnualRevenue, err)
		}
		a.AnnualRevenue = decimal.NewNullDecimal(d)
	}
	return a, nil
}

func recordFromAccount(a types.Account) accountRecord {
	rec := accountRecord{
		AccountID: a.ID,
		Name:      a.Name,
		Phone:     a.Phone,
		Website:   a.Website,
	}
	if a.Owner != nil {
		if a.Owner.ID != "" {
			rec.OwnerID = &a.Owner.ID
		}
		rec.OwnerName = &a.Owner.Name
	}
	if a.AnnualRevenue.Valid {
		s := a.AnnualRevenue.Decimal.String()
		rec.AnnualRevenue = &s
	}
	return rec
}

func (rec accountRecord) args() []any {
	return []any{
		rec.AccountID, rec.Name, rec.OwnerID, rec.OwnerName, rec.Phone, rec.Website,
		rec.AnnualRevenue, rec.CreatedAt, rec.UpdatedAt,
	}
}

// columnValue converts a normalized delta value to its column form.
func columnValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	return v
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
