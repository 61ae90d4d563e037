// Package navigate implements types.Navigator: opening a record's detail
// view outside the listing.
package navigate

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// DefaultRecordURLTemplate is used when no record_url_template is configured.
const DefaultRecordURLTemplate = "https://example.my.salesforce.com/lightning/r/Account/{id}/view"

// idPlaceholder is replaced by the escaped record ID.
const idPlaceholder = "{id}"

var (
	_ types.Navigator = (*Browser)(nil)
	_ types.Navigator = (*Writer)(nil)
	_ types.Navigator = Func(nil)
)

// RecordURL expands template for the record. The template must contain
// {id}.
func RecordURL(template, recordID string) (string, error) {
	if template == "" {
		template = DefaultRecordURLTemplate
	}
	if !strings.Contains(template, idPlaceholder) {
		return "", fmt.Errorf("record URL template %q has no %s placeholder", template, idPlaceholder)
	}
	if recordID == "" {
		return "", types.ErrInvalidID
	}
	return strings.ReplaceAll(template, idPlaceholder, url.PathEscape(recordID)), nil
}

// Func adapts a function to types.Navigator.
type Func func(recordID string)

// OpenRecordView calls f.
func (f Func) OpenRecordView(recordID string) { f(recordID) }

// Browser opens record URLs in the system browser, each in a new tab or
// window. Failures are logged and otherwise dropped.
type Browser struct {
	template string
	logger   *zap.Logger
	open     func(string) error
}

// NewBrowser creates a browser navigator for template. A nil logger
// disables logging.
func NewBrowser(template string, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Browser{template: template, logger: logger, open: browser.OpenURL}
}

// OpenRecordView launches the browser for the record.
func (b *Browser) OpenRecordView(recordID string) {
	target, err := RecordURL(b.template, recordID)
	if err != nil {
		b.logger.Warn("cannot build record URL", zap.String("id", recordID), zap.Error(err))
		return
	}
	if err := b.open(target); err != nil {
		b.logger.Warn("open record view failed", zap.String("url", target), zap.Error(err))
		return
	}
	b.logger.Debug("opened record view", zap.String("url", target))
}

// Writer prints record URLs, one per line, instead of opening them.
type Writer struct {
	mu       sync.Mutex
	w        io.Writer
	template string
}

// NewWriter creates a navigator that writes to w.
func NewWriter(w io.Writer, template string) *Writer {
	return &Writer{w: w, template: template}
}

// OpenRecordView writes the record URL.
func (n *Writer) OpenRecordView(recordID string) {
	target, err := RecordURL(n.template, recordID)
	if err != nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, target)
}
