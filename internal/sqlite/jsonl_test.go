// Tests for JSONL persistence in the SQLite backend.
package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

func TestReadJSONLSkipsBlankAndMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.jsonl")
	content := "{\"a\":1}\n\nnot json\n{\"b\":2}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestReadJSONLLongLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.jsonl")
	long := `{"name":"` + strings.Repeat("a", 200*1024) + `"}`
	if err := os.WriteFile(path, []byte(long+"\n   \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	tooLong := `{"name":"` + strings.Repeat("a", maxRecordBytes) + `"}`
	if err := os.WriteFile(path, []byte(tooLong+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readJSONL(path); err == nil {
		t.Error("expected error for a line over maxRecordBytes")
	}
}

func TestReadJSONLMissingFile(t *testing.T) {
	if _, err := readJSONL(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteJSONLReplacesFileAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.jsonl")
	if err := os.WriteFile(path, []byte("{\"old\":true}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	records := []json.RawMessage{json.RawMessage(`{"a":1}`), json.RawMessage(`{"b":2}`)}
	if err := writeJSONL(path, records); err != nil {
		t.Fatalf("writeJSONL failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\"a\":1}\n{\"b\":2}\n" {
		t.Errorf("unexpected content %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestJSONLInitializedEmptyOnAttach(t *testing.T) {
	_, tmpDir := attachSeeded(t, "")

	info, err := os.Stat(filepath.Join(tmpDir, accountsJSONL))
	if err != nil {
		t.Fatalf("stat %s: %v", accountsJSONL, err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty %s, got %d bytes", accountsJSONL, info.Size())
	}
}

func TestJSONLRewrittenAfterUpdate(t *testing.T) {
	b, tmpDir := attachSeeded(t, seedAccounts)

	delta := types.FieldDelta{RecordID: "2", Changes: map[types.Field]any{types.FieldPhone: "555-0222"}}
	if _, err := b.UpdateRecord(context.Background(), delta); err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}

	records, err := readJSONL(filepath.Join(tmpDir, accountsJSONL))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	var rec accountRecord
	if err := json.Unmarshal(records[1], &rec); err != nil {
		t.Fatal(err)
	}
	if rec.AccountID != "2" || rec.Phone == nil || *rec.Phone != "555-0222" {
		t.Errorf("unexpected persisted record %+v", rec)
	}
	if rec.UpdatedAt == nil {
		t.Error("expected updated_at to be set")
	}
}
