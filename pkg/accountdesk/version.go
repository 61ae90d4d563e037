// Package accountdesk holds module-wide metadata for the accountdesk CLI.
package accountdesk

// Version is the current accountdesk release.
const Version = "0.3.0"

// ModulePath is the Go module path, printed by the version command.
const ModulePath = "github.com/mesh-intelligence/accountdesk"

// Commit is the source revision, set at build time with
// -ldflags "-X github.com/mesh-intelligence/accountdesk/pkg/accountdesk.Commit=<rev>".
var Commit string
