// Tests for JSONL loading on attach.
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderSkipsInvalidRecords(t *testing.T) {
	seed := `{"account_id":"1","name":"Acme"}
{"account_id":"2"}
{"account_id":"1","name":"Duplicate"}
[1,2,3]
{"account_id":"3","name":"Gamma","color":"blue","owner_name":{"nested":true}}
{"name":"NoID"}
{"account_id":"","name":"EmptyID"}
{"account_id":"4","name":"Lots","annual_revenue":"lots"}
{"account_id":"5","name":"Flag","annual_revenue":true}
`
	b, _ := attachSeeded(t, seed)

	accounts, err := b.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Name != "Acme" {
		t.Errorf("first account = %q, want Acme", accounts[0].Name)
	}
	if accounts[1].ID != "3" || accounts[1].Owner != nil {
		t.Errorf("unexpected second account %+v", accounts[1])
	}
}

func TestLoaderKeepsValidRecordsAroundBadRevenue(t *testing.T) {
	seed := `{"account_id":"1","name":"Acme","annual_revenue":"100.50"}
{"account_id":"2","name":"Bad","annual_revenue":"lots"}
{"account_id":"3","name":"Gamma","annual_revenue":7}
`
	b, _ := attachSeeded(t, seed)

	accounts, err := b.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 2 || accounts[0].ID != "1" || accounts[1].ID != "3" {
		t.Fatalf("unexpected accounts %+v", accounts)
	}
}

func TestLoaderKeepsRevenuePrecision(t *testing.T) {
	b, _ := attachSeeded(t, `{"account_id":"1","name":"Acme","annual_revenue":12345678901234.56}`+"\n")

	a, err := b.GetAccount(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if got := a.AnnualRevenue.Decimal.StringFixed(2); got != "12345678901234.56" {
		t.Errorf("revenue = %s", got)
	}
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	b, tmpDir := attachSeeded(t, seedAccounts)
	ctx := context.Background()

	edited := `{"account_id":"9","name":"Zeta"}` + "\n"
	if err := os.WriteFile(filepath.Join(tmpDir, accountsJSONL), []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := b.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	accounts, err := b.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "9" {
		t.Errorf("expected only account 9 after reload, got %+v", accounts)
	}
	if b.SourcePath() != filepath.Join(tmpDir, accountsJSONL) {
		t.Errorf("SourcePath = %q", b.SourcePath())
	}
}

func TestReloadKeepsRowsWhenFileMissing(t *testing.T) {
	b, tmpDir := attachSeeded(t, seedAccounts)
	ctx := context.Background()

	if err := os.Remove(filepath.Join(tmpDir, accountsJSONL)); err != nil {
		t.Fatal(err)
	}
	if err := b.Reload(ctx); err == nil {
		t.Fatal("expected error for missing file")
	}

	accounts, err := b.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 3 {
		t.Errorf("expected previous 3 accounts, got %d", len(accounts))
	}
}
