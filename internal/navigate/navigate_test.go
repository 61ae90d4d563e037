package navigate

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

func TestRecordURL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		id       string
		want     string
		wantErr  bool
	}{
		{"default template", "", "001A", "https://example.my.salesforce.com/lightning/r/Account/001A/view", false},
		{"custom template", "http://localhost:8080/accounts/{id}", "42", "http://localhost:8080/accounts/42", false},
		{"escapes id", "http://h/{id}", "a/b c", "http://h/a%2Fb%20c", false},
		{"missing placeholder", "http://h/accounts", "42", "", true},
		{"empty id", "http://h/{id}", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RecordURL(tt.template, tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBrowserOpensRecordURL(t *testing.T) {
	var opened []string
	b := NewBrowser("http://h/{id}", nil)
	b.open = func(u string) error {
		opened = append(opened, u)
		return nil
	}

	b.OpenRecordView("001")
	b.OpenRecordView("002")

	assert.Equal(t, []string{"http://h/001", "http://h/002"}, opened)
}

func TestBrowserLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewBrowser("http://h/{id}", zap.New(core))
	b.open = func(string) error { return errors.New("no browser") }

	b.OpenRecordView("001")
	b.OpenRecordView("")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "open record view failed", logs.All()[0].Message)
	assert.Equal(t, "cannot build record URL", logs.All()[1].Message)
}

func TestWriterAndFunc(t *testing.T) {
	var buf bytes.Buffer
	var nav types.Navigator = NewWriter(&buf, "http://h/{id}")
	nav.OpenRecordView("7")
	assert.Equal(t, "http://h/7\n", buf.String())

	var got string
	nav = Func(func(id string) { got = id })
	nav.OpenRecordView("8")
	assert.Equal(t, "8", got)
}
